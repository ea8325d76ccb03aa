package bot

import (
	"fmt"
	"strings"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rashpile/pako-tasks/internal/command"
	"github.com/rashpile/pako-tasks/internal/output"
	pkgcmd "github.com/rashpile/pako-tasks/pkg/command"
)

// capitalize returns string with first letter uppercase.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

const (
	// Callback data prefixes for menu navigation
	menuPrefix     = "menu:"
	categoryPrefix = "cat:"
	commandPrefix  = "cmd:"
	actionPrefix   = "act:"
	backToMenu     = "menu:main"

	actionStop    = "stop"
	actionExplain = "explain"
)

// Callback types returned by ParseCallback.
const (
	callbackMenu     = "menu"
	callbackCategory = "category"
	callbackCommand  = "command"
	callbackAction   = "action"
)

// MenuBuilder creates inline keyboards for the interactive menu.
type MenuBuilder struct {
	registry *command.Registry
	mode     *output.Mode
}

// NewMenuBuilder creates a menu builder.
func NewMenuBuilder(registry *command.Registry, mode *output.Mode) *MenuBuilder {
	return &MenuBuilder{registry: registry, mode: mode}
}

// BuildMainMenu creates the main menu: one button per category, then the
// stop and learning-mode controls.
func (m *MenuBuilder) BuildMainMenu() (string, tgbotapi.InlineKeyboardMarkup) {
	categories := m.registry.Categories()

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for _, cat := range categories {
		label := capitalize(cat.Name)
		if cat.Icon != "" {
			label = cat.Icon + " " + label
		}

		btn := tgbotapi.NewInlineKeyboardButtonData(label, categoryPrefix+cat.Name)
		row = append(row, btn)

		// 2 buttons per row
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}

	if len(row) > 0 {
		rows = append(rows, row)
	}

	explainLabel := "💡 Explain: off"
	if m.mode.Enabled() {
		explainLabel = "💡 Explain: on"
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⏹ Stop", actionPrefix+actionStop),
		tgbotapi.NewInlineKeyboardButtonData(explainLabel, actionPrefix+actionExplain),
	))

	text := "Select a category:"
	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)

	return text, keyboard
}

// BuildCategoryMenu creates a keyboard showing commands in a category.
func (m *MenuBuilder) BuildCategoryMenu(categoryName string) (string, tgbotapi.InlineKeyboardMarkup) {
	cmds := m.registry.ByCategory(categoryName)

	var rows [][]tgbotapi.InlineKeyboardButton

	for _, cmd := range cmds {
		label := "/" + cmd.Name()
		if cmd.Description() != "" {
			label += " - " + cmd.Description()
		}

		// Add warning for confirmation-required commands
		if withMeta, ok := cmd.(pkgcmd.WithMetadata); ok {
			if withMeta.Metadata().RequireConfirm {
				label += " (!)"
			}
		}

		btn := tgbotapi.NewInlineKeyboardButtonData(label, commandPrefix+cmd.Name())
		rows = append(rows, []tgbotapi.InlineKeyboardButton{btn})
	}

	backBtn := tgbotapi.NewInlineKeyboardButtonData("<< Back to Menu", backToMenu)
	rows = append(rows, []tgbotapi.InlineKeyboardButton{backBtn})

	icon := ""
	for _, cat := range m.registry.Categories() {
		if cat.Name == categoryName {
			icon = cat.Icon
			break
		}
	}

	header := capitalize(categoryName)
	if icon != "" {
		header = icon + " " + header
	}

	text := fmt.Sprintf("%s:\n\nTap a command to run it.", header)
	if categoryName == command.TaskCategory.Name {
		text = fmt.Sprintf("%s:\n\nTap a task to run it. Starting a task stops the one already running.", header)
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)

	return text, keyboard
}

// ParseCallback extracts the type and value from a callback data string.
func ParseCallback(data string) (callbackType, value string) {
	if strings.HasPrefix(data, categoryPrefix) {
		return callbackCategory, strings.TrimPrefix(data, categoryPrefix)
	}
	if strings.HasPrefix(data, commandPrefix) {
		return callbackCommand, strings.TrimPrefix(data, commandPrefix)
	}
	if strings.HasPrefix(data, actionPrefix) {
		return callbackAction, strings.TrimPrefix(data, actionPrefix)
	}
	if data == backToMenu {
		return callbackMenu, "main"
	}
	if strings.HasPrefix(data, menuPrefix) {
		return callbackMenu, strings.TrimPrefix(data, menuPrefix)
	}
	return "", data
}

// IsMenuCallback checks if the callback is a menu-related callback.
func IsMenuCallback(data string) bool {
	return strings.HasPrefix(data, menuPrefix) ||
		strings.HasPrefix(data, categoryPrefix) ||
		strings.HasPrefix(data, commandPrefix) ||
		strings.HasPrefix(data, actionPrefix)
}
