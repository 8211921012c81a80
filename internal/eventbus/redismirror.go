package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/media-orchestrator/internal/platform/logger"
)

// RedisMirror forwards every Publish onto a Redis pub/sub channel, and
// forwards whatever arrives on that channel back into a local Bus. It
// exists so that a second process watching the same job directory (or a
// separate read replica of the HTTP API) can observe events without
// claiming any work itself: the scheduler's single-claimant invariant is
// untouched, only event delivery is mirrored.
type RedisMirror struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewRedisMirror dials Redis using REDIS_ADDR (required) and REDIS_CHANNEL
// (defaults to "orchestrator-events").
func NewRedisMirror(log *logger.Logger) (*RedisMirror, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_CHANNEL"))
	if ch == "" {
		ch = "orchestrator-events"
	}

	rdb := goredis.NewClient(&goredis.Options{Addr: addr, DialTimeout: 5 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisMirror{log: log.With("component", "eventbus.redis"), rdb: rdb, channel: ch}, nil
}

// Publish implements Mirror.
func (m *RedisMirror) Publish(evt Event) {
	raw, err := json.Marshal(evt)
	if err != nil {
		m.log.Warn("failed to marshal event for redis mirror", "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.rdb.Publish(ctx, m.channel, raw).Err(); err != nil {
		m.log.Warn("redis publish failed", "error", err)
	}
}

// StartForwarder subscribes to the mirror's channel and replays every
// message it receives into local, returning once ctx is canceled.
func (m *RedisMirror) StartForwarder(ctx context.Context, local *Bus) error {
	sub := m.rdb.Subscribe(ctx, m.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case raw, ok := <-ch:
				if !ok || raw == nil {
					_ = sub.Close()
					return
				}
				var evt Event
				if err := json.Unmarshal([]byte(raw.Payload), &evt); err != nil {
					m.log.Warn("bad redis event payload", "error", err)
					continue
				}
				local.PublishLocal(evt)
			}
		}
	}()
	return nil
}

func (m *RedisMirror) Close() error {
	if m == nil || m.rdb == nil {
		return nil
	}
	return m.rdb.Close()
}
