package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

const (
	// confirmationTTL is how long a confirmation request remains valid.
	confirmationTTL = 5 * time.Minute

	callbackConfirm = "confirm:"
	callbackCancel  = "cancel:"
)

// PendingConfirmation tracks a command awaiting user confirmation.
type PendingConfirmation struct {
	ChatID    int64
	MessageID int
	Command   string
	Args      []string
	ExpiresAt time.Time
}

// ConfirmationManager handles confirmation dialogs.
type ConfirmationManager struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	pending map[string]*PendingConfirmation
}

// NewConfirmationManager creates a confirmation manager. Call Run to
// expire stale requests.
func NewConfirmationManager() *ConfirmationManager {
	return &ConfirmationManager{
		ttl:     confirmationTTL,
		now:     time.Now,
		pending: make(map[string]*PendingConfirmation),
	}
}

// RequestConfirmation sends an inline keyboard and stores pending state.
func (cm *ConfirmationManager) RequestConfirmation(api sender, chatID int64, cmdName string, args []string) error {
	id := uuid.NewString()

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Confirm", callbackConfirm+id),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", callbackCancel+id),
		),
	)

	msg := tgbotapi.NewMessage(chatID, confirmText(cmdName, args))
	msg.ReplyMarkup = keyboard

	sent, err := api.Send(msg)
	if err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}

	cm.register(id, chatID, sent.MessageID, cmdName, args)
	return nil
}

func confirmText(cmdName string, args []string) string {
	if len(args) == 0 {
		return fmt.Sprintf("Run /%s?", cmdName)
	}
	return fmt.Sprintf("Run /%s %s?", cmdName, strings.Join(args, " "))
}

func (cm *ConfirmationManager) register(id string, chatID int64, messageID int, cmdName string, args []string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.pending[id] = &PendingConfirmation{
		ChatID:    chatID,
		MessageID: messageID,
		Command:   cmdName,
		Args:      args,
		ExpiresAt: cm.now().Add(cm.ttl),
	}
}

// HandleCallback processes a confirmation button press. It returns the
// pending request and true only for a live, confirmed request from the
// chat that asked. Any press consumes the request.
func (cm *ConfirmationManager) HandleCallback(chatID int64, callbackData string) (*PendingConfirmation, bool) {
	var id string
	var confirmed bool

	switch {
	case strings.HasPrefix(callbackData, callbackConfirm):
		id = strings.TrimPrefix(callbackData, callbackConfirm)
		confirmed = true
	case strings.HasPrefix(callbackData, callbackCancel):
		id = strings.TrimPrefix(callbackData, callbackCancel)
	default:
		return nil, false
	}

	cm.mu.Lock()
	pending, ok := cm.pending[id]
	if ok && pending.ChatID == chatID {
		delete(cm.pending, id)
	}
	cm.mu.Unlock()

	if !ok || pending.ChatID != chatID || cm.now().After(pending.ExpiresAt) {
		return nil, false
	}

	if !confirmed {
		return pending, false
	}

	return pending, true
}

// IsConfirmCallback reports whether data belongs to a confirmation button.
func IsConfirmCallback(data string) bool {
	return strings.HasPrefix(data, callbackConfirm) || strings.HasPrefix(data, callbackCancel)
}

// Run removes expired confirmations until ctx is cancelled.
func (cm *ConfirmationManager) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cm.expire()
		}
	}
}

func (cm *ConfirmationManager) expire() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	now := cm.now()
	for id, pending := range cm.pending {
		if now.After(pending.ExpiresAt) {
			delete(cm.pending, id)
		}
	}
}

// Len returns the number of pending requests.
func (cm *ConfirmationManager) Len() int {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return len(cm.pending)
}
