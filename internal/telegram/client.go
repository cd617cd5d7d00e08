// Package telegram connects the routing core to the Telegram Bot API
// via telego. It owns bot construction, the long-polling update loop,
// conversion of raw updates into router events, and keyboard/markup
// helpers.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/nextlevelbuilder/tgrelay/internal/config"
	"github.com/nextlevelbuilder/tgrelay/internal/router"
)

// Client wraps a telego bot and implements router.Platform.
type Client struct {
	bot *telego.Bot
}

// NewClient creates a Telegram client from config, with optional HTTP
// proxy support.
func NewClient(cfg config.TelegramConfig) (*Client, error) {
	var opts []telego.BotOption

	if cfg.Proxy != "" {
		proxyURL, parseErr := url.Parse(cfg.Proxy)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, parseErr)
		}
		opts = append(opts, telego.WithHTTPClient(&http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyURL(proxyURL),
			},
		}))
	}

	bot, err := telego.NewBot(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &Client{bot: bot}, nil
}

// Username returns the bot's own identity.
func (c *Client) Username() string { return c.bot.Username() }

// SendMessage implements router.Platform.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts router.SendOptions) (router.SentMessage, error) {
	params := tu.Message(tu.ID(chatID), text)
	params.ParseMode = string(opts.Mode)
	params.DisableNotification = opts.Silent
	if opts.ReplyTo != 0 {
		params.ReplyParameters = &telego.ReplyParameters{MessageID: opts.ReplyTo}
	}
	if rm, ok := opts.ReplyMarkup.(telego.ReplyMarkup); ok {
		params.ReplyMarkup = rm
	}

	msg, err := c.bot.SendMessage(ctx, params)
	if err != nil {
		return router.SentMessage{}, err
	}
	return router.SentMessage{ChatID: msg.Chat.ID, MessageID: msg.MessageID, Payload: msg}, nil
}

// EditMessage implements router.Platform.
func (c *Client) EditMessage(ctx context.Context, chatID int64, messageID int, text string, opts router.SendOptions) error {
	params := &telego.EditMessageTextParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
		Text:      text,
		ParseMode: string(opts.Mode),
	}
	if rm, ok := opts.ReplyMarkup.(*telego.InlineKeyboardMarkup); ok {
		params.ReplyMarkup = rm
	}
	_, err := c.bot.EditMessageText(ctx, params)
	return err
}

// DeleteMessage implements router.Platform.
func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return c.bot.DeleteMessage(ctx, &telego.DeleteMessageParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
	})
}

// SendPoll implements router.Platform.
func (c *Client) SendPoll(ctx context.Context, chatID int64, question string, options []string) (router.SentMessage, error) {
	pollOptions := make([]telego.InputPollOption, 0, len(options))
	for _, o := range options {
		pollOptions = append(pollOptions, telego.InputPollOption{Text: o})
	}
	msg, err := c.bot.SendPoll(ctx, &telego.SendPollParams{
		ChatID:   tu.ID(chatID),
		Question: question,
		Options:  pollOptions,
	})
	if err != nil {
		return router.SentMessage{}, err
	}
	return router.SentMessage{ChatID: msg.Chat.ID, MessageID: msg.MessageID, Payload: msg}, nil
}

// SendDice implements router.Platform. An empty emoji lets Telegram
// pick the default die.
func (c *Client) SendDice(ctx context.Context, chatID int64, emoji string) (router.SentMessage, error) {
	msg, err := c.bot.SendDice(ctx, &telego.SendDiceParams{
		ChatID: tu.ID(chatID),
		Emoji:  emoji,
	})
	if err != nil {
		return router.SentMessage{}, err
	}
	return router.SentMessage{ChatID: msg.Chat.ID, MessageID: msg.MessageID, Payload: msg}, nil
}

// AnswerCallback implements router.Platform.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	return c.bot.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
}

// menuAPI is the slice of the bot API needed to publish the command
// menu. *telego.Bot satisfies it.
type menuAPI interface {
	DeleteMyCommands(ctx context.Context, params *telego.DeleteMyCommandsParams) error
	SetMyCommands(ctx context.Context, params *telego.SetMyCommandsParams) error
}

// SyncMenuCommands publishes the registered command list as the bot's
// menu via setMyCommands.
func (c *Client) SyncMenuCommands(ctx context.Context, commands []router.CommandInfo) error {
	return syncMenuCommands(ctx, c.bot, commands)
}

func syncMenuCommands(ctx context.Context, api menuAPI, commands []router.CommandInfo) error {
	if err := api.DeleteMyCommands(ctx, nil); err != nil {
		slog.Debug("deleteMyCommands failed (may not exist)", "error", err)
	}
	if len(commands) == 0 {
		return nil
	}
	if len(commands) > 100 {
		commands = commands[:100]
	}

	botCommands := make([]telego.BotCommand, 0, len(commands))
	for _, cmd := range commands {
		desc := cmd.Description
		if desc == "" {
			desc = "/" + cmd.Token
		}
		botCommands = append(botCommands, telego.BotCommand{Command: cmd.Token, Description: desc})
	}
	return api.SetMyCommands(ctx, &telego.SetMyCommandsParams{Commands: botCommands})
}
