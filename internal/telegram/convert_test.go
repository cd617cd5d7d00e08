package telegram

import (
	"testing"
	"time"

	"github.com/mymmrac/telego"
)

// TestMessageEvent_Basic verifies field mapping from a plain text
// message.
func TestMessageEvent_Basic(t *testing.T) {
	now := time.Now().Unix()
	msg := &telego.Message{
		MessageID: 12,
		Chat:      telego.Chat{ID: 100, Type: "private"},
		From:      &telego.User{ID: 7, Username: "alice"},
		Date:      now,
		Text:      "/ping now",
	}

	ev := messageEvent(msg, "relay_bot")

	if ev.ChatID != 100 || ev.MessageID != 12 {
		t.Errorf("chat/message = %d/%d, want 100/12", ev.ChatID, ev.MessageID)
	}
	if ev.SenderID != 7 || ev.Username != "alice" {
		t.Errorf("sender = %d @%s, want 7 @alice", ev.SenderID, ev.Username)
	}
	if ev.Text != "/ping now" {
		t.Errorf("text = %q", ev.Text)
	}
	if ev.Time.Unix() != now {
		t.Errorf("time = %v, want unix %d", ev.Time, now)
	}
	if ev.Voice || ev.MentionsBot || ev.ReplyToBot {
		t.Errorf("unexpected flags in %+v", ev)
	}
}

// TestMessageEvent_VoiceAndCaption verifies audio detection and the
// caption fallback for media messages.
func TestMessageEvent_VoiceAndCaption(t *testing.T) {
	msg := &telego.Message{
		Chat:    telego.Chat{ID: 100},
		Date:    time.Now().Unix(),
		Voice:   &telego.Voice{FileID: "v1"},
		Caption: "listen to this",
	}

	ev := messageEvent(msg, "")
	if !ev.Voice {
		t.Error("voice message not flagged")
	}
	if ev.Text != "listen to this" {
		t.Errorf("caption not used as text: %q", ev.Text)
	}

	audio := &telego.Message{
		Chat:  telego.Chat{ID: 100},
		Date:  time.Now().Unix(),
		Audio: &telego.Audio{FileID: "a1"},
	}
	if !messageEvent(audio, "").Voice {
		t.Error("audio message not flagged")
	}
}

// TestMessageEvent_ReplyToBot verifies the implicit-mention flag for
// replies to the bot's own messages.
func TestMessageEvent_ReplyToBot(t *testing.T) {
	msg := &telego.Message{
		Chat: telego.Chat{ID: 100},
		Date: time.Now().Unix(),
		Text: "yes please",
		ReplyToMessage: &telego.Message{
			From: &telego.User{Username: "relay_bot"},
		},
	}

	if !messageEvent(msg, "relay_bot").ReplyToBot {
		t.Error("reply to bot not flagged")
	}
	if messageEvent(msg, "other_bot").ReplyToBot {
		t.Error("reply to different bot flagged")
	}
}

// TestDetectMention covers entity-based and substring-based mention
// detection.
func TestDetectMention(t *testing.T) {
	tests := []struct {
		name string
		msg  *telego.Message
		want bool
	}{
		{
			name: "mention entity",
			msg: &telego.Message{
				Text:     "@relay_bot hello",
				Entities: []telego.MessageEntity{{Type: "mention", Offset: 0, Length: 10}},
			},
			want: true,
		},
		{
			name: "command with bot suffix",
			msg: &telego.Message{
				Text:     "/ping@relay_bot",
				Entities: []telego.MessageEntity{{Type: "bot_command", Offset: 0, Length: 15}},
			},
			want: true,
		},
		{
			name: "substring fallback in caption",
			msg:  &telego.Message{Caption: "cc @relay_bot"},
			want: true,
		},
		{
			name: "other bot",
			msg: &telego.Message{
				Text:     "@other_bot hello",
				Entities: []telego.MessageEntity{{Type: "mention", Offset: 0, Length: 10}},
			},
			want: false,
		},
		{
			name: "no mention",
			msg:  &telego.Message{Text: "hello there"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectMention(tt.msg, "relay_bot"); got != tt.want {
				t.Errorf("detectMention = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestCallbackEvent verifies callback conversion, including the
// carrier message reference.
func TestCallbackEvent(t *testing.T) {
	cq := &telego.CallbackQuery{
		ID:   "cb1",
		From: telego.User{ID: 7, Username: "alice"},
		Data: "btn_1",
		Message: &telego.Message{
			MessageID: 55,
			Chat:      telego.Chat{ID: 100},
		},
	}

	ev := callbackEvent(cq)
	if !ev.IsCallback() {
		t.Fatal("callback event not flagged as callback")
	}
	if ev.CallbackID != "cb1" || ev.CallbackData != "btn_1" {
		t.Errorf("callback fields = %q/%q", ev.CallbackID, ev.CallbackData)
	}
	if ev.ChatID != 100 || ev.MessageID != 55 {
		t.Errorf("carrier = %d/%d, want 100/55", ev.ChatID, ev.MessageID)
	}

	// No resolvable carrier message: fields stay zero.
	bare := callbackEvent(&telego.CallbackQuery{ID: "cb2", Data: "btn_2"})
	if bare.ChatID != 0 || bare.MessageID != 0 {
		t.Errorf("bare callback carrier = %d/%d, want zeros", bare.ChatID, bare.MessageID)
	}
}
