package telegram

import (
	"strings"
	"time"

	"github.com/mymmrac/telego"

	"github.com/nextlevelbuilder/tgrelay/internal/router"
)

// messageEvent converts an incoming Telegram message into a router
// event. Caption text counts as text for caption-only media messages.
func messageEvent(msg *telego.Message, botUsername string) router.Event {
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	ev := router.Event{
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Text:      text,
		Time:      time.Unix(msg.Date, 0),
		Voice:     msg.Voice != nil || msg.Audio != nil,
	}
	if msg.From != nil {
		ev.SenderID = msg.From.ID
		ev.Username = msg.From.Username
	}
	ev.MentionsBot = detectMention(msg, botUsername)
	if reply := msg.ReplyToMessage; reply != nil && reply.From != nil {
		ev.ReplyToBot = botUsername != "" && reply.From.Username == botUsername
	}
	return ev
}

// callbackEvent converts a button press into a router event. The
// chat/message fields refer to the message carrying the button and
// stay zero when Telegram reports it as unresolvable.
func callbackEvent(cq *telego.CallbackQuery) router.Event {
	ev := router.Event{
		SenderID:     cq.From.ID,
		Username:     cq.From.Username,
		Time:         time.Now(),
		CallbackID:   cq.ID,
		CallbackData: cq.Data,
	}
	if cq.Message != nil {
		ev.ChatID = cq.Message.GetChat().ID
		ev.MessageID = cq.Message.GetMessageID()
	}
	return ev
}

// detectMention checks if a Telegram message mentions the bot, in
// either text entities or caption entities, with a substring fallback.
func detectMention(msg *telego.Message, botUsername string) bool {
	if botUsername == "" {
		return false
	}
	lowerBot := strings.ToLower(botUsername)

	for _, pair := range []struct {
		entities []telego.MessageEntity
		text     string
	}{
		{msg.Entities, msg.Text},
		{msg.CaptionEntities, msg.Caption},
	} {
		if pair.text == "" {
			continue
		}
		for _, entity := range pair.entities {
			if entity.Offset+entity.Length > len(pair.text) {
				continue
			}
			part := pair.text[entity.Offset : entity.Offset+entity.Length]
			switch entity.Type {
			case "mention":
				if strings.EqualFold(part, "@"+botUsername) {
					return true
				}
			case "bot_command":
				if strings.Contains(strings.ToLower(part), "@"+lowerBot) {
					return true
				}
			}
		}
	}

	if msg.Text != "" && strings.Contains(strings.ToLower(msg.Text), "@"+lowerBot) {
		return true
	}
	if msg.Caption != "" && strings.Contains(strings.ToLower(msg.Caption), "@"+lowerBot) {
		return true
	}
	return false
}
