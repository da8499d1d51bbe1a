package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"alcyxob/gym-routines/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func activeRoutines(t *testing.T, f *fixture) []primitive.ObjectID {
	t.Helper()
	routines, err := f.routine.ListRoutinesForMember(context.Background(), f.member)
	require.NoError(t, err)
	var ids []primitive.ObjectID
	for _, r := range routines {
		if r.IsActive {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func TestActivationSwapsRoutines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.mustActiveRoutine(t, "A", entry(f.bench.ID, domain.Monday))
	b := f.mustRoutine(t, "B", entry(f.squat.ID, domain.Monday))

	activated, err := f.activation.ActivateRoutine(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, activated.IsActive)

	oldA, err := f.routine.GetRoutine(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, oldA.IsActive)
	assert.Equal(t, []primitive.ObjectID{b.ID}, activeRoutines(t, f))
}

func TestActivatingTwiceIsConflict(t *testing.T) {
	f := newFixture(t)
	a := f.mustActiveRoutine(t, "A", entry(f.bench.ID, domain.Monday))

	_, err := f.activation.ActivateRoutine(context.Background(), a.ID)
	de := requireKind(t, err, domain.KindConflict)
	assert.Equal(t, true, de.Details["is_active"])
}

func TestActivateUnknownRoutine(t *testing.T) {
	f := newFixture(t)
	_, err := f.activation.ActivateRoutine(context.Background(), primitive.NewObjectID())
	requireKind(t, err, domain.KindNotFound)
}

func TestActivationOnlyTouchesOwnMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.mustActiveRoutine(t, "Mine", entry(f.bench.ID, domain.Monday))

	other, err := f.routine.CreateRoutine(ctx, CreateRoutineInput{
		MemberID: primitive.NewObjectID(), TrainerID: f.trainer, Name: "Theirs", DurationWeeks: 4,
	})
	require.NoError(t, err)
	_, err = f.activation.ActivateRoutine(ctx, other.ID)
	require.NoError(t, err)

	still, err := f.routine.GetRoutine(ctx, mine.ID)
	require.NoError(t, err)
	assert.True(t, still.IsActive)
}

func TestConcurrentActivationKeepsOneActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 12
	ids := make([]primitive.ObjectID, n)
	for i := range ids {
		ids[i] = f.mustRoutine(t, "R", entry(f.bench.ID, domain.Monday)).ID
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	for round := 0; round < 3; round++ {
		for _, id := range ids {
			id := id
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := f.activation.ActivateRoutine(ctx, id)
				if err != nil && !domain.IsKind(err, domain.KindConflict) {
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
	}
	close(start)
	wg.Wait()

	assert.Len(t, activeRoutines(t, f), 1)
}

func TestNotifyMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.mustActiveRoutine(t, "Phase 1", entry(f.bench.ID, domain.Monday))

	res, err := f.activation.NotifyMember(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, res.Delivered())
	assert.Equal(t, fixedNow, res.NotifiedAt)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, f.member, f.notifier.sent[0].MemberID)
	assert.Equal(t, r.ID, f.notifier.sent[0].RoutineID)
	assert.Contains(t, f.notifier.sent[0].Message, "Phase 1")

	f.activation.now = func() time.Time { return fixedNow.Add(time.Hour) }
	_, err = f.activation.NotifyMember(ctx, r.ID)
	de := requireKind(t, err, domain.KindConflict)
	assert.Equal(t, fixedNow, de.Details["notified_at"])
	assert.Len(t, f.notifier.sent, 1, "second call must not resend")

	stored, err := f.routine.GetRoutine(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.NotifiedAt)
	assert.True(t, fixedNow.Equal(*stored.NotifiedAt))
}

func TestNotifyInactiveRoutine(t *testing.T) {
	f := newFixture(t)
	r := f.mustRoutine(t, "Draft", entry(f.bench.ID, domain.Monday))

	_, err := f.activation.NotifyMember(context.Background(), r.ID)
	de := requireKind(t, err, domain.KindConflict)
	assert.Equal(t, false, de.Details["is_active"])
	assert.Empty(t, f.notifier.sent)
}

func TestNotifyDeliveryFailureKeepsStamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.mustActiveRoutine(t, "Phase 1", entry(f.bench.ID, domain.Monday))
	f.notifier.err = errors.New("smtp down")

	res, err := f.activation.NotifyMember(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, res.Delivered())
	assert.EqualError(t, res.DeliveryErr, "smtp down")

	stored, err := f.routine.GetRoutine(ctx, r.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.NotifiedAt)

	_, err = f.activation.NotifyMember(ctx, r.ID)
	requireKind(t, err, domain.KindConflict)
	assert.Len(t, f.notifier.sent, 1, "the core never retries")
}

func TestConcurrentNotifySendsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.mustActiveRoutine(t, "Phase 1", entry(f.bench.ID, domain.Monday))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.activation.NotifyMember(ctx, r.ID)
		}()
	}
	wg.Wait()
	assert.Len(t, f.notifier.sent, 1)
}
