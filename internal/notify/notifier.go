// Package notify delivers best-effort user notifications. Delivery never
// blocks the request that triggered it and failures are logged, not raised.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/kindling-app/kindling/internal/cache"
)

// Event kinds the engines emit.
const (
	KindLikeReceived    = "like_received"
	KindMatchCreated    = "match_created"
	KindMessageReceived = "message_received"
)

// Dispatcher is the fire-and-forget notification contract.
type Dispatcher interface {
	Notify(userID uint64, kind string, payload map[string]any)
}

// Fanout publishes events onto the recipient's Redis channel so connected
// sessions see them in real time, and logs each dispatch.
type Fanout struct {
	Cache  *cache.RedisCache
	Logger *slog.Logger
}

func NewFanout(c *cache.RedisCache, logger *slog.Logger) *Fanout {
	return &Fanout{Cache: c, Logger: logger}
}

func (f *Fanout) Notify(userID uint64, kind string, payload map[string]any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		event := map[string]any{
			"kind":    kind,
			"user_id": userID,
			"payload": payload,
			"at":      time.Now().UTC(),
		}
		body, err := json.Marshal(event)
		if err != nil {
			f.Logger.Error("notify marshal failed", "kind", kind, "err", err)
			return
		}
		if err := f.Cache.Publish(ctx, userID, body); err != nil {
			f.Logger.Warn("notify publish failed", "kind", kind, "user", userID, "err", err)
			return
		}
		f.Logger.Debug("notified", "kind", kind, "user", userID)
	}()
}

// Noop drops every event. Used in tests.
type Noop struct{}

func (Noop) Notify(uint64, string, map[string]any) {}
