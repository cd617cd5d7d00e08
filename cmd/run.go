package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nextlevelbuilder/tgrelay/internal/config"
	"github.com/nextlevelbuilder/tgrelay/internal/router"
	"github.com/nextlevelbuilder/tgrelay/internal/telegram"
	"github.com/nextlevelbuilder/tgrelay/internal/telemetry"
)

// runRelay is the host process: load config, build the client and the
// router, register the built-in commands, poll until a signal arrives.
func runRelay() error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	client, err := telegram.NewClient(cfg.Telegram)
	if err != nil {
		return err
	}

	r := router.New(client, router.Options{
		DebugChat:       cfg.Router.DebugChat,
		AuthorizedChats: cfg.Router.AuthorizedChats,
		OutboxCapacity:  cfg.Router.OutboxCapacity,
		NoticeDelay:     time.Duration(cfg.Router.NoticeDelayMS) * time.Millisecond,
	})
	registerBuiltins(r)

	listener := telegram.NewListener(client, r)
	if err := listener.Start(ctx); err != nil {
		return err
	}

	slog.Info("tgrelay running",
		"authorized_chats", len(r.AuthorizedChats()),
		"debug_chat", cfg.Router.DebugChat,
	)

	<-ctx.Done()
	return listener.Stop(context.Background())
}

// registerBuiltins adds the relay's own commands. Empty scope means
// any authorized chat may use them.
func registerBuiltins(r *router.Router) {
	r.RegisterCommand("help", nil, func(ctx context.Context, ev router.Event, _ string) error {
		var sb strings.Builder
		sb.WriteString("Available commands:\n")
		for _, c := range r.Commands() {
			desc := c.Description
			if desc == "" {
				desc = "(no description)"
			}
			fmt.Fprintf(&sb, "/%s — %s\n", c.Token, desc)
		}
		_, err := r.Send(ctx, ev.ChatID, sb.String(), router.SendOptions{})
		return err
	}, "Show available commands")

	r.RegisterCommand("uptime", nil, func(ctx context.Context, ev router.Event, _ string) error {
		_, err := r.Send(ctx, ev.ChatID, "Relay up for "+r.Uptime(), router.SendOptions{})
		return err
	}, "Show how long the relay has been running")
}
