// Package notify delivers "your routine is ready" messages to members.
// The routine core calls a Notifier exactly once per activation and never
// retries; delivery guarantees belong to the implementation.
package notify

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/gym-routines/internal/platform/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notifier sends a message about routineID to memberID.
type Notifier interface {
	Notify(ctx context.Context, memberID, routineID primitive.ObjectID, message string) error
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, memberID, routineID primitive.ObjectID, message string) error

func (f Func) Notify(ctx context.Context, memberID, routineID primitive.ObjectID, message string) error {
	return f(ctx, memberID, routineID, message)
}

// LogNotifier only writes the notification to the log. Used when no
// delivery channel is configured.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log.With("service", "LogNotifier")}
}

func (n *LogNotifier) Notify(_ context.Context, memberID, routineID primitive.ObjectID, message string) error {
	n.log.Info("member notification", "member_id", memberID.Hex(), "routine_id", routineID.Hex(), "message", message)
	return nil
}

// Multi fans a notification out to every channel. All channels are attempted;
// the failures are joined.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, memberID, routineID primitive.ObjectID, message string) error {
	var errs []error
	for i, n := range m {
		if err := n.Notify(ctx, memberID, routineID, message); err != nil {
			errs = append(errs, fmt.Errorf("channel %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
