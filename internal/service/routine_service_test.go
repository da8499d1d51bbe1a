package service

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"alcyxob/gym-routines/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func exerciseIDs(entries []domain.RoutineExercise) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ExerciseID)
	}
	return out
}

func TestCreateRoutine(t *testing.T) {
	f := newFixture(t)

	r := f.mustRoutine(t, "Phase 1",
		entry(f.bench.ID, domain.Tuesday),
		entry(f.squat.ID, domain.Monday),
		entry(f.fly.ID, domain.Tuesday),
	)

	assert.False(t, r.IsActive)
	assert.Equal(t, int64(1), r.Version)
	assert.True(t, r.DenseOrders())
	assert.Equal(t, []primitive.ObjectID{f.bench.ID, f.fly.ID}, exerciseIDs(r.Day(domain.Tuesday)))
	assert.Equal(t, []primitive.ObjectID{f.squat.ID}, exerciseIDs(r.Day(domain.Monday)))
}

func TestCreateRoutineExplicitOrder(t *testing.T) {
	f := newFixture(t)

	a := entry(f.bench.ID, domain.Monday)
	a.Order = ptr(7)
	b := entry(f.fly.ID, domain.Monday)
	c := entry(f.squat.ID, domain.Monday)
	c.Order = ptr(2)

	r := f.mustRoutine(t, "Ordered", a, b, c)

	day := r.Day(domain.Monday)
	assert.Equal(t, []primitive.ObjectID{f.squat.ID, f.bench.ID, f.fly.ID}, exerciseIDs(day))
	for i, e := range day {
		assert.Equal(t, i, e.Order)
	}
}

func TestCreateRoutineMissingExerciseReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.routine.CreateRoutine(ctx, CreateRoutineInput{
		MemberID:      f.member,
		TrainerID:     f.trainer,
		Name:          "Broken",
		DurationWeeks: 4,
		Exercises: []RoutineExerciseInput{
			entry(f.bench.ID, domain.Monday),
			entry(primitive.NilObjectID, domain.Monday),
			entry(primitive.NewObjectID(), domain.Wednesday),
		},
	})

	de := requireKind(t, err, domain.KindValidation)
	assert.Equal(t, "missing exercise reference", de.Message)
	entries, ok := de.Details["entries"].([]EntryProblem)
	require.True(t, ok)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Index)
	assert.Equal(t, 2, entries[1].Index)

	routines, err := f.routine.ListRoutinesForMember(ctx, f.member)
	require.NoError(t, err)
	assert.Empty(t, routines, "nothing may be persisted on failure")
}

func TestCreateRoutineValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bad := func(mut func(*RoutineExerciseInput)) []RoutineExerciseInput {
		e := entry(f.bench.ID, domain.Monday)
		mut(&e)
		return []RoutineExerciseInput{e}
	}
	tests := []struct {
		name string
		in   CreateRoutineInput
	}{
		{"no name", CreateRoutineInput{MemberID: f.member, TrainerID: f.trainer, DurationWeeks: 4}},
		{"no duration", CreateRoutineInput{MemberID: f.member, TrainerID: f.trainer, Name: "x"}},
		{"no member", CreateRoutineInput{TrainerID: f.trainer, Name: "x", DurationWeeks: 4}},
		{"day zero", CreateRoutineInput{MemberID: f.member, TrainerID: f.trainer, Name: "x", DurationWeeks: 4,
			Exercises: bad(func(e *RoutineExerciseInput) { e.DayOfWeek = 0 })}},
		{"day eight", CreateRoutineInput{MemberID: f.member, TrainerID: f.trainer, Name: "x", DurationWeeks: 4,
			Exercises: bad(func(e *RoutineExerciseInput) { e.DayOfWeek = 8 })}},
		{"zero sets", CreateRoutineInput{MemberID: f.member, TrainerID: f.trainer, Name: "x", DurationWeeks: 4,
			Exercises: bad(func(e *RoutineExerciseInput) { e.Sets = 0 })}},
		{"zero reps", CreateRoutineInput{MemberID: f.member, TrainerID: f.trainer, Name: "x", DurationWeeks: 4,
			Exercises: bad(func(e *RoutineExerciseInput) { e.Reps = 0 })}},
		{"negative rest", CreateRoutineInput{MemberID: f.member, TrainerID: f.trainer, Name: "x", DurationWeeks: 4,
			Exercises: bad(func(e *RoutineExerciseInput) { e.RestSeconds = -1 })}},
		{"negative weight", CreateRoutineInput{MemberID: f.member, TrainerID: f.trainer, Name: "x", DurationWeeks: 4,
			Exercises: bad(func(e *RoutineExerciseInput) { e.WeightKg = ptr(-2.5) })}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.routine.CreateRoutine(ctx, tt.in)
			requireKind(t, err, domain.KindValidation)
		})
	}
}

func TestCreateRoutineRejectsDeactivatedExercise(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.catalog.DeactivateExercise(ctx, f.fly.ID))

	_, err := f.routine.CreateRoutine(ctx, CreateRoutineInput{
		MemberID: f.member, TrainerID: f.trainer, Name: "x", DurationWeeks: 4,
		Exercises: []RoutineExerciseInput{entry(f.fly.ID, domain.Monday)},
	})
	requireKind(t, err, domain.KindValidation)
}

func TestUpdateRoutine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.mustRoutine(t, "Phase 1", entry(f.bench.ID, domain.Monday), entry(f.fly.ID, domain.Monday))

	t.Run("field patch leaves exercises untouched", func(t *testing.T) {
		updated, err := f.routine.UpdateRoutine(ctx, r.ID, RoutinePatch{Name: ptr("Phase 1b"), Goal: ptr("strength")})
		require.NoError(t, err)
		assert.Equal(t, "Phase 1b", updated.Name)
		assert.Equal(t, "strength", updated.Goal)
		assert.Equal(t, r.Exercises, updated.Exercises)
		assert.Equal(t, r.Version+1, updated.Version)
	})

	t.Run("exercise replacement re-validates and re-packs", func(t *testing.T) {
		list := []RoutineExerciseInput{entry(f.squat.ID, domain.Friday), entry(f.bench.ID, domain.Friday)}
		updated, err := f.routine.UpdateRoutine(ctx, r.ID, RoutinePatch{Exercises: &list})
		require.NoError(t, err)
		assert.Equal(t, 0, updated.CountForDay(domain.Monday))
		assert.Equal(t, []primitive.ObjectID{f.squat.ID, f.bench.ID}, exerciseIDs(updated.Day(domain.Friday)))
		assert.True(t, updated.DenseOrders())
	})

	t.Run("invalid replacement keeps the stored schedule", func(t *testing.T) {
		before, err := f.routine.GetRoutine(ctx, r.ID)
		require.NoError(t, err)
		list := []RoutineExerciseInput{entry(primitive.NilObjectID, domain.Friday)}
		_, err = f.routine.UpdateRoutine(ctx, r.ID, RoutinePatch{Exercises: &list})
		requireKind(t, err, domain.KindValidation)
		after, err := f.routine.GetRoutine(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("stale version is a conflict", func(t *testing.T) {
		_, err := f.routine.UpdateRoutine(ctx, r.ID, RoutinePatch{Name: ptr("late"), ExpectedVersion: ptr(int64(1))})
		de := requireKind(t, err, domain.KindConflict)
		assert.Equal(t, int64(3), de.Details["version"])
	})

	t.Run("unknown routine", func(t *testing.T) {
		_, err := f.routine.UpdateRoutine(ctx, primitive.NewObjectID(), RoutinePatch{Name: ptr("x")})
		requireKind(t, err, domain.KindNotFound)
	})
}

func TestUpdateRoutineKeepsDeactivatedEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.mustRoutine(t, "Phase 1", entry(f.bench.ID, domain.Monday))
	require.NoError(t, f.catalog.DeactivateExercise(ctx, f.bench.ID))

	list := []RoutineExerciseInput{entry(f.bench.ID, domain.Monday), entry(f.fly.ID, domain.Monday)}
	_, err := f.routine.UpdateRoutine(ctx, r.ID, RoutinePatch{Exercises: &list})
	require.NoError(t, err)
}

func TestAddAndRemoveExercise(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.mustRoutine(t, "Push", entry(f.bench.ID, domain.Monday), entry(f.fly.ID, domain.Monday))

	r, err := f.routine.AddExercise(ctx, r.ID, domain.Monday, entry(f.squat.ID, domain.Sunday), ptr(0))
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{f.squat.ID, f.bench.ID, f.fly.ID}, exerciseIDs(r.Day(domain.Monday)))
	assert.Equal(t, 0, r.CountForDay(domain.Sunday), "the day argument wins over the entry's day")

	r, err = f.routine.AddExercise(ctx, r.ID, domain.Monday, entry(f.squat.ID, domain.Monday), ptr(99))
	require.NoError(t, err)
	assert.Equal(t, 4, r.CountForDay(domain.Monday))
	assert.Equal(t, f.squat.ID, r.Day(domain.Monday)[3].ExerciseID)

	r, err = f.routine.RemoveExercise(ctx, r.ID, domain.Monday, 1)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{f.squat.ID, f.fly.ID, f.squat.ID}, exerciseIDs(r.Day(domain.Monday)))
	assert.True(t, r.DenseOrders())

	_, err = f.routine.RemoveExercise(ctx, r.ID, domain.Monday, 3)
	requireKind(t, err, domain.KindNotFound)
	_, err = f.routine.RemoveExercise(ctx, r.ID, domain.Thursday, 0)
	requireKind(t, err, domain.KindNotFound)
	_, err = f.routine.AddExercise(ctx, r.ID, 9, entry(f.bench.ID, domain.Monday), nil)
	requireKind(t, err, domain.KindValidation)
	_, err = f.routine.AddExercise(ctx, r.ID, domain.Monday, entry(primitive.NilObjectID, domain.Monday), nil)
	requireKind(t, err, domain.KindValidation)
}

func TestOrdersStayDenseUnderRandomEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.mustRoutine(t, "Random")
	rng := rand.New(rand.NewSource(7))
	pool := []primitive.ObjectID{f.bench.ID, f.fly.ID, f.squat.ID}

	for step := 0; step < 200; step++ {
		day := domain.Weekday(rng.Intn(3) + 1)
		var err error
		if n := r.CountForDay(day); n > 0 && rng.Intn(3) == 0 {
			r, err = f.routine.RemoveExercise(ctx, r.ID, day, rng.Intn(n))
		} else {
			pos := rng.Intn(n+3) - 1
			r, err = f.routine.AddExercise(ctx, r.ID, day, entry(pool[rng.Intn(len(pool))], day), &pos)
		}
		require.NoError(t, err)
		require.True(t, r.DenseOrders(), "step %d left gaps", step)
	}
}

func TestConcurrentEditsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.mustRoutine(t, "Shared", entry(f.bench.ID, domain.Monday))

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.routine.UpdateRoutine(ctx, r.ID, RoutinePatch{Name: ptr("v"), ExpectedVersion: ptr(r.Version)})
		}()
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		requireKind(t, err, domain.KindConflict)
	}
	assert.Equal(t, 1, ok)
}

func TestDeleteRoutine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.mustActiveRoutine(t, "Push", entry(f.bench.ID, domain.Monday))

	s, err := f.session.StartSession(ctx, StartSessionInput{MemberID: f.member, RoutineID: r.ID, DayOfWeek: domain.Monday})
	require.NoError(t, err)

	err = f.routine.DeleteRoutine(ctx, r.ID)
	de := requireKind(t, err, domain.KindFailedPrecondition)
	assert.Equal(t, int64(1), de.Details["open_sessions"])

	_, err = f.session.CompleteSession(ctx, s.ID, 30)
	require.NoError(t, err)
	require.NoError(t, f.routine.DeleteRoutine(ctx, r.ID))

	_, err = f.routine.GetRoutine(ctx, r.ID)
	requireKind(t, err, domain.KindNotFound)
	err = f.routine.DeleteRoutine(ctx, r.ID)
	requireKind(t, err, domain.KindNotFound)

	// History outlives the plan.
	kept, err := f.session.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Push", kept.RoutineName)
}

func TestRoutineQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.routine.GetActiveRoutine(ctx, f.member)
	requireKind(t, err, domain.KindNotFound)

	a := f.mustRoutine(t, "A", entry(f.bench.ID, domain.Monday), entry(f.fly.ID, domain.Monday))
	b := f.mustActiveRoutine(t, "B", entry(f.squat.ID, domain.Monday))

	active, err := f.routine.GetActiveRoutine(ctx, f.member)
	require.NoError(t, err)
	assert.Equal(t, b.ID, active.ID)

	mine, err := f.routine.ListRoutinesForMember(ctx, f.member)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	authored, err := f.routine.ListRoutinesByTrainer(ctx, f.trainer)
	require.NoError(t, err)
	assert.Len(t, authored, 2)

	none, err := f.routine.ListRoutinesByTrainer(ctx, primitive.NewObjectID())
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	day, err := f.routine.RoutineDay(ctx, a.ID, domain.Monday)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{f.bench.ID, f.fly.ID}, exerciseIDs(day))

	empty, err := f.routine.RoutineDay(ctx, a.ID, domain.Sunday)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = f.routine.RoutineDay(ctx, a.ID, 0)
	requireKind(t, err, domain.KindValidation)
}
