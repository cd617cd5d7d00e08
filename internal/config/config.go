// Package config holds the tgrelay configuration: a JSON5 file with
// env-var overrides for secrets.
package config

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexibleInt64Slice accepts both [123] and ["123"] in JSON, since
// chat identifiers are often pasted as strings.
type FlexibleInt64Slice []int64

func (f *FlexibleInt64Slice) UnmarshalJSON(data []byte) error {
	var ids []int64
	if err := json.Unmarshal(data, &ids); err == nil {
		*f = ids
		return nil
	}
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]int64, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case float64:
			result = append(result, int64(val))
		case string:
			id, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return fmt.Errorf("chat id %q: %w", val, err)
			}
			result = append(result, id)
		default:
			return fmt.Errorf("chat id %v: unsupported type", v)
		}
	}
	*f = result
	return nil
}

// Config is the root configuration for the relay.
type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Router    RouterConfig    `json:"router"`
	Telemetry TelemetryConfig `json:"telemetry,omitempty"`
}

// TelegramConfig configures the Bot API client.
type TelegramConfig struct {
	Token string `json:"token"`           // bot token; env TGRELAY_TELEGRAM_TOKEN overrides
	Proxy string `json:"proxy,omitempty"` // optional HTTP proxy URL
}

// RouterConfig configures the routing core.
type RouterConfig struct {
	DebugChat       int64              `json:"debug_chat,omitempty"`       // mirrored diagnostics target, 0 = unset
	AuthorizedChats FlexibleInt64Slice `json:"authorized_chats,omitempty"` // chats allowed to trigger handlers
	OutboxCapacity  int                `json:"outbox_capacity,omitempty"`  // sent-message history bound (default 1000)
	NoticeDelayMS   int                `json:"notice_delay_ms,omitempty"`  // stale-button notice lifetime (default 10000)
}

// TelemetryConfig configures OpenTelemetry trace export. When enabled,
// dispatch spans are exported to an OTLP/HTTP-compatible backend.
type TelemetryConfig struct {
	Enabled  bool   `json:"enabled,omitempty"`
	Endpoint string `json:"endpoint,omitempty"` // OTLP endpoint, e.g. "localhost:4318"
	Insecure bool   `json:"insecure,omitempty"` // plain HTTP for local collectors
}
