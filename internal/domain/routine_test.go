package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func entry(day Weekday, name string) RoutineExercise {
	return RoutineExercise{
		ID:         primitive.NewObjectID(),
		ExerciseID: primitive.NewObjectID(),
		DayOfWeek:  day,
		Sets:       3,
		Reps:       10,
		Notes:      name,
	}
}

func notes(entries []RoutineExercise) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Notes
	}
	return out
}

func intp(v int) *int { return &v }

func TestRoutineExercise_Problems(t *testing.T) {
	neg := -2.5
	tests := []struct {
		name string
		mod  func(e *RoutineExercise)
		want []string
	}{
		{name: "valid", mod: func(e *RoutineExercise) {}, want: nil},
		{name: "missing exercise", mod: func(e *RoutineExercise) { e.ExerciseID = primitive.NilObjectID }, want: []string{"missing exercise reference"}},
		{name: "day zero", mod: func(e *RoutineExercise) { e.DayOfWeek = 0 }, want: []string{"day_of_week must be between 1 and 7"}},
		{name: "day eight", mod: func(e *RoutineExercise) { e.DayOfWeek = 8 }, want: []string{"day_of_week must be between 1 and 7"}},
		{name: "zero sets and reps", mod: func(e *RoutineExercise) { e.Sets, e.Reps = 0, 0 }, want: []string{"sets must be positive", "reps must be positive"}},
		{name: "negative rest", mod: func(e *RoutineExercise) { e.RestSeconds = -1 }, want: []string{"rest_seconds must not be negative"}},
		{name: "negative weight", mod: func(e *RoutineExercise) { e.WeightKg = &neg }, want: []string{"weight_kg must not be negative"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := entry(Monday, "x")
			tt.mod(&e)
			assert.Equal(t, tt.want, e.Problems())
		})
	}
}

func TestBuildSchedule_ArrivalOrder(t *testing.T) {
	planned := []PlannedEntry{
		{Entry: entry(Wednesday, "squat")},
		{Entry: entry(Monday, "bench")},
		{Entry: entry(Wednesday, "lunge")},
		{Entry: entry(Monday, "fly")},
	}
	got := BuildSchedule(planned)
	require.Len(t, got, 4)

	r := WorkoutRoutine{Exercises: got}
	assert.Equal(t, []string{"bench", "fly"}, notes(r.Day(Monday)))
	assert.Equal(t, []string{"squat", "lunge"}, notes(r.Day(Wednesday)))
	assert.True(t, r.DenseOrders())
}

func TestBuildSchedule_ExplicitOrderIsRenumbered(t *testing.T) {
	planned := []PlannedEntry{
		{Entry: entry(Tuesday, "c"), Order: intp(30)},
		{Entry: entry(Tuesday, "none")},
		{Entry: entry(Tuesday, "a"), Order: intp(5)},
		{Entry: entry(Tuesday, "b"), Order: intp(5)},
	}
	r := WorkoutRoutine{Exercises: BuildSchedule(planned)}
	assert.Equal(t, []string{"a", "b", "c", "none"}, notes(r.Day(Tuesday)))
	for i, e := range r.Day(Tuesday) {
		assert.Equal(t, i, e.Order)
	}
}

func TestWorkoutRoutine_InsertExercise(t *testing.T) {
	r := WorkoutRoutine{Exercises: BuildSchedule([]PlannedEntry{
		{Entry: entry(Friday, "a")},
		{Entry: entry(Friday, "b")},
	})}

	r.InsertExercise(entry(Friday, "head"), intp(0))
	r.InsertExercise(entry(Friday, "tail"), nil)
	r.InsertExercise(entry(Friday, "clamped"), intp(99))
	r.InsertExercise(entry(Friday, "mid"), intp(2))

	assert.Equal(t, []string{"head", "a", "mid", "b", "tail", "clamped"}, notes(r.Day(Friday)))
	assert.True(t, r.DenseOrders())
}

func TestWorkoutRoutine_RemoveExercise(t *testing.T) {
	r := WorkoutRoutine{Exercises: BuildSchedule([]PlannedEntry{
		{Entry: entry(Monday, "a")},
		{Entry: entry(Monday, "b")},
		{Entry: entry(Monday, "c")},
		{Entry: entry(Sunday, "z")},
	})}

	removed, ok := r.RemoveExercise(Monday, 1)
	require.True(t, ok)
	assert.Equal(t, "b", removed.Notes)
	assert.Equal(t, []string{"a", "c"}, notes(r.Day(Monday)))
	assert.Equal(t, []string{"z"}, notes(r.Day(Sunday)))
	assert.True(t, r.DenseOrders())

	_, ok = r.RemoveExercise(Monday, 2)
	assert.False(t, ok)
	_, ok = r.RemoveExercise(Tuesday, 0)
	assert.False(t, ok)
}

func TestWorkoutRoutine_OrdersStayDenseUnderRandomEdits(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	r := WorkoutRoutine{}
	for i := 0; i < 500; i++ {
		day := Weekday(rng.Intn(7) + 1)
		n := r.CountForDay(day)
		if n > 0 && rng.Intn(3) == 0 {
			_, ok := r.RemoveExercise(day, rng.Intn(n))
			require.True(t, ok)
		} else {
			var pos *int
			if rng.Intn(2) == 0 {
				pos = intp(rng.Intn(n+3) - 1)
			}
			r.InsertExercise(entry(day, "x"), pos)
		}
		require.True(t, r.DenseOrders(), "orders not dense after step %d", i)
	}
}

func TestWorkoutRoutine_RepackFixesGaps(t *testing.T) {
	a, b, c := entry(Monday, "a"), entry(Monday, "b"), entry(Monday, "c")
	a.Order, b.Order, c.Order = 4, 0, 9
	r := WorkoutRoutine{Exercises: []RoutineExercise{a, b, c}}
	require.False(t, r.DenseOrders())

	r.Repack()
	assert.True(t, r.DenseOrders())
	assert.Equal(t, []string{"b", "a", "c"}, notes(r.Day(Monday)))
}

func TestWeekday_String(t *testing.T) {
	assert.Equal(t, "Monday", Monday.String())
	assert.Equal(t, "Sunday", Sunday.String())
	assert.Equal(t, "Invalid", Weekday(0).String())
}
