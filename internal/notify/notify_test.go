package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"alcyxob/gym-routines/internal/domain"
	"alcyxob/gym-routines/internal/platform/logger"
	"alcyxob/gym-routines/internal/repository"
	"alcyxob/gym-routines/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeSender struct {
	sent []SendRequest
	err  error
}

func (f *fakeSender) Send(_ context.Context, req SendRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, req)
	return "msg-1", nil
}

func TestMultiAttemptsEveryChannel(t *testing.T) {
	var calls int
	ok := Func(func(context.Context, primitive.ObjectID, primitive.ObjectID, string) error {
		calls++
		return nil
	})
	boom := errors.New("boom")
	failing := Func(func(context.Context, primitive.ObjectID, primitive.ObjectID, string) error {
		calls++
		return boom
	})

	err := Multi{failing, ok, failing}.Notify(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), "hi")

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestMultiEmpty(t *testing.T) {
	assert.NoError(t, Multi{}.Notify(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), "hi"))
}

func TestEmailNotifier(t *testing.T) {
	member := domain.User{ID: primitive.NewObjectID(), Name: "Ana", Email: "ana@example.com", Role: domain.RoleMember}
	users := memory.NewUserRepository(member)

	t.Run("renders markdown and sends to the member", func(t *testing.T) {
		sender := &fakeSender{}
		n := NewEmailNotifier(logger.Nop(), users, sender)

		err := n.Notify(context.Background(), member.ID, primitive.NewObjectID(), "Your routine **Phase 1** is active.")

		require.NoError(t, err)
		require.Len(t, sender.sent, 1)
		assert.Equal(t, []string{"ana@example.com"}, sender.sent[0].To)
		assert.Contains(t, sender.sent[0].HTML, "<strong>Phase 1</strong>")
		assert.Contains(t, sender.sent[0].HTML, "Hi Ana,")
	})

	t.Run("unknown member", func(t *testing.T) {
		n := NewEmailNotifier(logger.Nop(), users, &fakeSender{})
		err := n.Notify(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), "x")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("provider failure is returned", func(t *testing.T) {
		n := NewEmailNotifier(logger.Nop(), users, &fakeSender{err: errors.New("rate limited")})
		err := n.Notify(context.Background(), member.ID, primitive.NewObjectID(), "x")
		assert.EqualError(t, err, "rate limited")
	})
}

func TestRenderBodyEscapesHTML(t *testing.T) {
	body := renderBody("", "<script>alert(1)</script>")
	assert.NotContains(t, body, "<script>")
}

func TestEncodeEvent(t *testing.T) {
	member, routine := primitive.NewObjectID(), primitive.NewObjectID()
	at := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	raw, err := encodeEvent(member, routine, "ready", at)
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	assert.Equal(t, Event{
		Type:      EventRoutineReady,
		MemberID:  member.Hex(),
		RoutineID: routine.Hex(),
		Message:   "ready",
		SentAt:    at,
	}, ev)
}
