package telegram

import (
	"github.com/google/uuid"
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/nextlevelbuilder/tgrelay/internal/router"
)

// ReplyKeyboard builds a resized reply keyboard from rows of button
// labels.
func ReplyKeyboard(oneTime bool, rows ...[]string) *telego.ReplyKeyboardMarkup {
	keyboardRows := make([][]telego.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]telego.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, tu.KeyboardButton(label))
		}
		keyboardRows = append(keyboardRows, buttons)
	}
	kb := tu.Keyboard(keyboardRows...).WithResizeKeyboard()
	if oneTime {
		kb = kb.WithOneTimeKeyboard()
	}
	return kb
}

// RemoveKeyboard builds the payload that hides a reply keyboard.
func RemoveKeyboard() *telego.ReplyKeyboardRemove {
	return &telego.ReplyKeyboardRemove{RemoveKeyboard: true}
}

// InlineKeyboard assembles rows of inline buttons into a markup
// payload.
func InlineKeyboard(rows ...[]telego.InlineKeyboardButton) *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(rows...)
}

// Row groups inline buttons into one keyboard row.
func Row(buttons ...telego.InlineKeyboardButton) []telego.InlineKeyboardButton {
	return buttons
}

// InlineButton mints a fresh callback identifier, registers fn on the
// router's button bridge under it, and returns the button payload.
// Identifiers live for the lifetime of the process; after a restart
// old buttons fall through to the router's unknown-callback path.
func InlineButton(r *router.Router, label string, fn router.ButtonFunc) telego.InlineKeyboardButton {
	id := uuid.NewString()
	r.RegisterButton(id, fn)
	return tu.InlineKeyboardButton(label).WithCallbackData(id)
}

// URLButton builds an inline button that opens a link instead of
// firing a callback.
func URLButton(label, url string) telego.InlineKeyboardButton {
	return tu.InlineKeyboardButton(label).WithURL(url)
}
