package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/onboardhub/onboardhub-backend/internal/logger"
)

// FlowEvent is published on every recorded lifecycle action so other
// processes (notifications, dashboards) can react without polling.
type FlowEvent struct {
	UserFlowID    uuid.UUID `json:"user_flow_id"`
	ActionType    string    `json:"action_type"`
	PerformedByID uuid.UUID `json:"performed_by_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type FlowEventBus interface {
	Publish(ctx context.Context, event FlowEvent) error
	StartForwarder(ctx context.Context, onEvent func(e FlowEvent)) error
	Close() error
}

type flowEventBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewFlowEventBus(log *logger.Logger) (FlowEventBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_CHANNEL"))
	if ch == "" {
		ch = "flow-events"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &flowEventBus{
		log:     log.With("service", "RedisFlowEventBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *flowEventBus) Publish(ctx context.Context, event FlowEvent) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("flow event bus not initialized")
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *flowEventBus) StartForwarder(ctx context.Context, onEvent func(e FlowEvent)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("flow event bus not initialized")
	}
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
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
			case m, ok := <-ch:
				if !ok {
					return
				}
				var event FlowEvent
				if err := json.Unmarshal([]byte(m.Payload), &event); err != nil {
					b.log.Warn("Dropping malformed flow event", "error", err)
					continue
				}
				onEvent(event)
			}
		}
	}()
	return nil
}

func (b *flowEventBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

// NoopFlowEventBus satisfies FlowEventBus when REDIS_ADDR is unset, so a
// single-process deployment runs without redis.
type NoopFlowEventBus struct{}

func (NoopFlowEventBus) Publish(ctx context.Context, event FlowEvent) error { return nil }
func (NoopFlowEventBus) StartForwarder(ctx context.Context, onEvent func(e FlowEvent)) error {
	return nil
}
func (NoopFlowEventBus) Close() error { return nil }
