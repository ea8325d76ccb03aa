// Package bot handles Telegram updates and routes commands to handlers.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/rashpile/pako-tasks/internal/audit"
	"github.com/rashpile/pako-tasks/internal/auth"
	"github.com/rashpile/pako-tasks/internal/command"
	"github.com/rashpile/pako-tasks/internal/output"
	pkgcmd "github.com/rashpile/pako-tasks/pkg/command"
)

// Config holds dependencies for Bot construction.
type Config struct {
	Token          string
	Authorizer     auth.Authorizer
	Registry       *command.Registry
	Audit          audit.Logger
	Explainer      output.Explainer
	Mode           *output.Mode
	AllowedChatIDs []int64 // Chat IDs to notify on startup
}

// Bot handles Telegram updates and routes commands to handlers.
type Bot struct {
	api            botAPI
	authorizer     auth.Authorizer
	registry       *command.Registry
	audit          audit.Logger
	explainer      output.Explainer
	mode           *output.Mode
	confirmMgr     *ConfirmationManager
	menuBuilder    *MenuBuilder
	allowedChatIDs []int64
}

// New creates a Bot with the given dependencies.
func New(cfg Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	slog.Info("authorized on telegram", "username", api.Self.UserName)

	return newBot(api, cfg), nil
}

func newBot(api botAPI, cfg Config) *Bot {
	registry := cfg.Registry
	if registry == nil {
		registry = command.NewRegistry()
	}
	mode := cfg.Mode
	if mode == nil {
		mode = output.NewMode(false)
	}
	var auditLog audit.Logger = audit.NopLogger{}
	if cfg.Audit != nil {
		auditLog = cfg.Audit
	}

	return &Bot{
		api:            api,
		authorizer:     cfg.Authorizer,
		registry:       registry,
		audit:          auditLog,
		explainer:      cfg.Explainer,
		mode:           mode,
		confirmMgr:     NewConfirmationManager(),
		menuBuilder:    NewMenuBuilder(registry, mode),
		allowedChatIDs: cfg.AllowedChatIDs,
	}
}

// NotifyStartup sends a startup message with menu to all allowed chats.
func (b *Bot) NotifyStartup() {
	for _, chatID := range b.allowedChatIDs {
		b.sendText(chatID, "Bot restarted")
		b.sendMenu(chatID)
	}
}

// Run starts the bot's update loop. Blocks until context is cancelled.
// Each update is handled on its own goroutine, so a long task never
// blocks /stop.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)
	go b.confirmMgr.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			slog.Info("bot stopped")
			return nil

		case update := <-updates:
			if update.CallbackQuery != nil {
				go b.handleCallback(ctx, update.CallbackQuery)
				continue
			}

			if update.Message != nil && update.Message.IsCommand() {
				cmdName := update.Message.Command()
				if cmdName == "start" || cmdName == "menu" {
					go b.handleMenuCommand(update.Message)
					continue
				}
				go b.handleCommand(ctx, update.Message)
			}
		}
	}
}

// handleMenuCommand shows the interactive menu.
func (b *Bot) handleMenuCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if !b.authorizer.IsAllowed(chatID) {
		slog.Warn("unauthorized access attempt", "chat_id", chatID)
		b.sendText(chatID, fmt.Sprintf("Unauthorized. Your chat ID (%d) is not in the allowlist.", chatID))
		return
	}

	b.sendMenu(chatID)
}

// handleCallback processes menu navigation and confirmation button presses.
func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	logger := slog.With("chat_id", chatID, "callback", query.Data)

	if !b.authorizer.IsAllowed(chatID) {
		logger.Warn("unauthorized callback attempt")
		return
	}

	// Answer the callback to remove loading state
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		logger.Debug("failed to answer callback", "error", err)
	}

	if IsMenuCallback(query.Data) {
		b.handleMenuCallback(ctx, query)
		return
	}
	if !IsConfirmCallback(query.Data) {
		logger.Warn("unknown callback")
		return
	}

	pending, confirmed := b.confirmMgr.HandleCallback(chatID, query.Data)

	var resultText string
	switch {
	case pending == nil:
		resultText = "Confirmation expired or invalid."
	case !confirmed:
		resultText = "Command cancelled."
	default:
		resultText = fmt.Sprintf("Running /%s...", pending.Command)
	}

	b.api.Send(tgbotapi.NewEditMessageText(chatID, query.Message.MessageID, resultText))

	if confirmed {
		cmd := b.registry.Get(pending.Command)
		if cmd == nil {
			b.sendText(chatID, fmt.Sprintf("Command /%s no longer exists.", pending.Command))
			return
		}
		b.executeCommand(ctx, chatID, userName(query.From), cmd, pending.Args)
		b.sendMenu(chatID)
	}
}

// handleMenuCallback processes menu navigation callbacks.
func (b *Bot) handleMenuCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	logger := slog.With("chat_id", chatID, "callback", query.Data)

	callbackType, value := ParseCallback(query.Data)

	switch callbackType {
	case callbackMenu:
		b.editMenu(chatID, messageID, logger)

	case callbackCategory:
		text, keyboard := b.menuBuilder.BuildCategoryMenu(value)
		edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
		edit.ReplyMarkup = &keyboard
		if _, err := b.api.Send(edit); err != nil {
			logger.Error("failed to show category", "error", err)
		}

	case callbackAction:
		// Stop and explain answer in place and keep the menu.
		cmd := b.registry.Get(value)
		if cmd == nil {
			logger.Warn("action not registered", "action", value)
			return
		}
		var out strings.Builder
		if err := cmd.Execute(ctx, nil, &out); err != nil {
			logger.Error("menu action failed", "error", err)
			return
		}
		b.sendText(chatID, strings.TrimSpace(out.String()))
		b.editMenu(chatID, messageID, logger)

	case callbackCommand:
		cmd := b.registry.Get(value)
		if cmd == nil {
			logger.Warn("command not found from menu", "command", value)
			return
		}

		if needsConfirm(cmd) {
			b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))

			logger.Info("requesting confirmation from menu", "command", value)
			if err := b.confirmMgr.RequestConfirmation(b.api, chatID, value, nil); err != nil {
				logger.Error("failed to request confirmation", "error", err)
			}
			return
		}

		b.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, fmt.Sprintf("Running /%s...", value)))

		logger.Info("executing command from menu", "command", value)
		b.executeCommand(ctx, chatID, userName(query.From), cmd, nil)

		// Show menu again for quick access to next command
		b.sendMenu(chatID)
	}
}

func (b *Bot) editMenu(chatID int64, messageID int, logger *slog.Logger) {
	text, keyboard := b.menuBuilder.BuildMainMenu()
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ReplyMarkup = &keyboard
	if _, err := b.api.Send(edit); err != nil {
		logger.Debug("failed to edit menu", "error", err)
	}
}

// sendMenu sends the interactive menu to a chat.
func (b *Bot) sendMenu(chatID int64) {
	text, keyboard := b.menuBuilder.BuildMainMenu()
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		slog.Error("failed to send menu", "error", err, "chat_id", chatID)
	}
}

// handleCommand processes a single command message.
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	cmdName := msg.Command()

	logger := slog.With("chat_id", chatID, "command", cmdName)

	if !b.authorizer.IsAllowed(chatID) {
		logger.Warn("unauthorized access attempt")
		b.sendText(chatID, fmt.Sprintf("Unauthorized. Your chat ID (%d) is not in the allowlist.", chatID))
		return
	}

	cmd := b.registry.Get(cmdName)
	if cmd == nil {
		logger.Debug("unknown command")
		b.sendText(chatID, fmt.Sprintf("Unknown command: /%s\nUse /help to see available commands.", cmdName))
		return
	}

	args := commandArgs(cmd, msg.Text, cmdName, msg.CommandArguments())

	if needsConfirm(cmd) {
		logger.Info("requesting confirmation", "args", args)
		if err := b.confirmMgr.RequestConfirmation(b.api, chatID, cmdName, args); err != nil {
			logger.Error("failed to request confirmation", "error", err)
		}
		return
	}

	logger.Info("executing command", "args_count", len(args))
	b.executeCommand(ctx, chatID, userName(msg.From), cmd, args)

	b.sendMenu(chatID)
}

// executeCommand runs a command, streams its output and records the run.
func (b *Bot) executeCommand(ctx context.Context, chatID int64, user string, cmd pkgcmd.Command, args []string) {
	logger := slog.With("chat_id", chatID, "command", cmd.Name())

	buf := output.NewBuffer(b.explainer, b.mode.Enabled())
	streamer := NewMessageStreamer(b.api, chatID, buf, b.mode)
	if err := streamer.Start(ctx); err != nil {
		logger.Error("failed to start streamer", "error", err)
		return
	}

	start := time.Now()
	execErr := cmd.Execute(ctx, args, streamer)
	duration := time.Since(start)

	if footer := footerFor(execErr, duration); footer != "" {
		streamer.SetFooter(footer)
	}
	if execErr != nil && !isExitError(execErr) {
		logger.Error("command execution failed", "error", execErr)
	}

	if err := streamer.Flush(); err != nil {
		logger.Error("failed to flush output", "error", err)
	}

	withAudit, ok := cmd.(pkgcmd.WithAudit)
	if !ok {
		return
	}
	info := withAudit.RunInfo(args)
	entry := audit.Entry{
		RunID:      uuid.NewString(),
		Timestamp:  start,
		ChatID:     chatID,
		Username:   user,
		Kind:       info.Kind,
		Name:       info.Name,
		Command:    info.Command,
		ExitCode:   pkgcmd.ExitCode(execErr),
		DurationMs: duration.Milliseconds(),
	}
	// The run already finished; record it even if the request was cancelled.
	if err := b.audit.Log(context.WithoutCancel(ctx), entry); err != nil {
		logger.Warn("failed to record run", "error", err)
	}
}

// footerFor describes how a run ended. Successful built-ins get no footer.
func footerFor(err error, d time.Duration) string {
	if err == nil {
		return ""
	}
	if isExitError(err) {
		return fmt.Sprintf("Exited with code %d after %s", pkgcmd.ExitCode(err), d.Round(100*time.Millisecond))
	}
	return fmt.Sprintf("Error: %v", err)
}

func isExitError(err error) bool {
	var exitErr *pkgcmd.ExitError
	return errors.As(err, &exitErr)
}

func needsConfirm(cmd pkgcmd.Command) bool {
	withMeta, ok := cmd.(pkgcmd.WithMetadata)
	return ok && withMeta.Metadata().RequireConfirm
}

// commandArgs returns the arguments for cmd: the raw text after the
// command for RawArgs commands, whitespace-split arguments otherwise.
func commandArgs(cmd pkgcmd.Command, text, cmdName, argString string) []string {
	if raw, ok := cmd.(pkgcmd.RawArgs); ok && raw.RawArgs() {
		if rawText := extractRawText(text, cmdName); rawText != "" {
			return []string{rawText}
		}
		return nil
	}
	return parseArgs(argString)
}

// sendText sends a simple text message.
func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		slog.Error("failed to send message", "error", err, "chat_id", chatID)
	}
}

func userName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	if u.UserName != "" {
		return u.UserName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// parseArgs splits command arguments into a slice.
func parseArgs(argString string) []string {
	if argString == "" {
		return nil
	}
	return strings.Fields(argString)
}

// extractRawText extracts text after the command, preserving newlines.
// Example: "/sh ls -la\n/tmp" with cmdName "sh" returns "ls -la\n/tmp"
func extractRawText(fullText, cmdName string) string {
	// Find the end of the command (after /cmdName or /cmdName@botname)
	prefix := "/" + cmdName
	idx := strings.Index(fullText, prefix)
	if idx == -1 {
		return ""
	}

	rest := fullText[idx+len(prefix):]

	// Skip @botname if present
	if len(rest) > 0 && rest[0] == '@' {
		spaceIdx := strings.IndexAny(rest, " \n")
		if spaceIdx == -1 {
			return ""
		}
		rest = rest[spaceIdx:]
	}

	// Skip leading space/newline after command
	if len(rest) > 0 && (rest[0] == ' ' || rest[0] == '\n') {
		rest = rest[1:]
	}

	return rest
}
