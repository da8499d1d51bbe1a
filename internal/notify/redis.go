package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"alcyxob/gym-routines/internal/config"
	"alcyxob/gym-routines/internal/platform/logger"

	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventRoutineReady is the event type published when a member is notified.
const EventRoutineReady = "routine.ready"

// Event is the JSON payload published on the notification channel.
type Event struct {
	Type      string    `json:"type"`
	MemberID  string    `json:"memberId"`
	RoutineID string    `json:"routineId"`
	Message   string    `json:"message"`
	SentAt    time.Time `json:"sentAt"`
}

// RedisNotifier publishes notification events over Redis pub/sub for the
// push/SSE gateways to pick up.
type RedisNotifier struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
	now     func() time.Time
}

// NewRedisNotifier connects to Redis and verifies the connection with a ping.
func NewRedisNotifier(log *logger.Logger, cfg config.RedisConfig) (*RedisNotifier, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	ch := strings.TrimSpace(cfg.Channel)
	if ch == "" {
		ch = "routines.notifications"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisNotifier{
		log:     log.With("service", "RedisNotifier"),
		rdb:     rdb,
		channel: ch,
		now:     time.Now,
	}, nil
}

func (n *RedisNotifier) Notify(ctx context.Context, memberID, routineID primitive.ObjectID, message string) error {
	if n == nil || n.rdb == nil {
		return fmt.Errorf("redis notifier not initialized")
	}
	raw, err := encodeEvent(memberID, routineID, message, n.now())
	if err != nil {
		return err
	}
	if err := n.rdb.Publish(ctx, n.channel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	n.log.Debug("notification published", "channel", n.channel, "routine_id", routineID.Hex())
	return nil
}

func (n *RedisNotifier) Close() error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Close()
}

func encodeEvent(memberID, routineID primitive.ObjectID, message string, at time.Time) ([]byte, error) {
	return json.Marshal(Event{
		Type:      EventRoutineReady,
		MemberID:  memberID.Hex(),
		RoutineID: routineID.Hex(),
		Message:   message,
		SentAt:    at.UTC(),
	})
}
