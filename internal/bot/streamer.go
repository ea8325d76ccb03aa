package bot

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rashpile/pako-tasks/internal/explain"
	"github.com/rashpile/pako-tasks/internal/output"
)

const (
	// throttleInterval limits message edits to respect Telegram rate limits.
	throttleInterval = time.Second

	// maxMessageLength is Telegram's limit for message text.
	maxMessageLength = 4096

	elided = "[...]\n"
)

// sender is the part of *tgbotapi.BotAPI that posts and edits messages.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// botAPI is the part of *tgbotapi.BotAPI the bot talks through.
type botAPI interface {
	sender
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// MessageStreamer shows a run's output in a single message that is
// edited as output arrives. The full output lives in an output.Buffer;
// the message shows its tail. The buffer follows mode, so learning can be
// switched on or off while the run is in progress.
type MessageStreamer struct {
	api       sender
	chatID    int64
	messageID int
	buf       *output.Buffer
	mode      *output.Mode

	mu       sync.Mutex
	lastEdit time.Time
	lastText string
	footer   string
}

// NewMessageStreamer creates a streamer that edits a message progressively.
// A nil mode leaves the buffer's learning setting alone.
func NewMessageStreamer(api sender, chatID int64, buf *output.Buffer, mode *output.Mode) *MessageStreamer {
	return &MessageStreamer{
		api:    api,
		chatID: chatID,
		buf:    buf,
		mode:   mode,
	}
}

// Start sends an initial "Running..." message and stores its ID.
func (ms *MessageStreamer) Start(ctx context.Context) error {
	msg := tgbotapi.NewMessage(ms.chatID, "```\nRunning...\n```")
	msg.ParseMode = tgbotapi.ModeMarkdown

	sent, err := ms.api.Send(msg)
	if err != nil {
		return err
	}

	ms.messageID = sent.MessageID
	return nil
}

// Write implements io.Writer, buffering output for throttled edits.
func (ms *MessageStreamer) Write(p []byte) (n int, err error) {
	ms.syncLearning()
	ms.buf.Append(string(p))

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if time.Since(ms.lastEdit) >= throttleInterval {
		ms.editMessage()
	}

	return len(p), nil
}

// SetFooter sets a status line shown under the output, e.g. the exit code.
func (ms *MessageStreamer) SetFooter(footer string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.footer = footer
}

// Flush sends the final message content. Unchanged text is not resent.
func (ms *MessageStreamer) Flush() error {
	ms.syncLearning()

	ms.mu.Lock()
	defer ms.mu.Unlock()

	return ms.editMessage()
}

// syncLearning applies the current mode to the buffer.
func (ms *MessageStreamer) syncLearning() {
	if ms.mode == nil {
		return
	}
	if on := ms.mode.Enabled(); on != ms.buf.Learning() {
		ms.buf.SetLearning(on)
	}
}

func (ms *MessageStreamer) currentText() string {
	var expl *explain.Result
	if res, ok := ms.buf.Explanation(); ok {
		expl = &res
	}
	return render(ms.buf.String(), ms.footer, expl)
}

// editMessage must be called with mu held.
func (ms *MessageStreamer) editMessage() error {
	text := ms.currentText()
	ms.lastEdit = time.Now()

	// Telegram rejects edits that change nothing.
	if text == ms.lastText {
		return nil
	}

	edit := tgbotapi.NewEditMessageText(ms.chatID, ms.messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown

	if _, err := ms.api.Send(edit); err != nil {
		return err
	}
	ms.lastText = text
	return nil
}

// render builds the message text: a code block holding the tail of
// content, then the footer and explanation.
func render(content, footer string, expl *explain.Result) string {
	var suffix strings.Builder
	if footer != "" {
		suffix.WriteString("\n")
		suffix.WriteString(escape(footer))
	}
	if expl != nil {
		suffix.WriteString("\n\n💡 *")
		suffix.WriteString(escape(expl.Title))
		suffix.WriteString("*\n")
		suffix.WriteString(escape(expl.Explanation))
		if expl.Suggestion != "" {
			suffix.WriteString("\n_")
			suffix.WriteString(escape(expl.Suggestion))
			suffix.WriteString("_")
		}
	}

	content = strings.TrimRight(content, "\n")
	if content == "" {
		content = "(no output)"
	}
	// A fence inside the output would close the code block early.
	content = strings.ReplaceAll(content, "```", "'''")

	const fence = "```\n"
	budget := maxMessageLength - 2*len(fence) - suffix.Len()
	content = tail(content, budget)

	return fence + content + "\n```" + suffix.String()
}

// tail returns at most limit bytes from the end of s, starting at a line
// boundary when one is available and marking the cut.
func tail(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	limit -= len(elided)
	if limit <= 0 {
		return ""
	}

	cut := s[len(s)-limit:]
	if i := strings.IndexByte(cut, '\n'); i >= 0 && i < len(cut)-1 {
		cut = cut[i+1:]
	} else {
		for len(cut) > 0 && !utf8.RuneStart(cut[0]) {
			cut = cut[1:]
		}
	}
	return elided + cut
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
