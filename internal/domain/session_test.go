package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestWorkoutSession_ProgressIsNotClamped(t *testing.T) {
	s := WorkoutSession{TotalExercisesCount: 2, CompletedExercisesCount: 3}
	logged, total, pct := s.Progress()
	assert.Equal(t, 3, logged)
	assert.Equal(t, 2, total)
	assert.InDelta(t, 150.0, pct, 0.001)

	empty := WorkoutSession{}
	_, _, pct = empty.Progress()
	assert.Zero(t, pct)
}

func TestExerciseLog_AvgRepsPerSet(t *testing.T) {
	assert.InDelta(t, 8.0, ExerciseLog{ActualSets: 3, ActualReps: 24}.AvgRepsPerSet(), 0.001)
	assert.Zero(t, ExerciseLog{ActualReps: 10}.AvgRepsPerSet())
}

func TestExerciseFilter_Matches(t *testing.T) {
	chest := primitive.NewObjectID()
	legs := primitive.NewObjectID()
	adv := DifficultyAdvanced
	ex := &Exercise{Name: "Bench Press", EquipmentNeeded: "Barbell", MuscleGroupID: chest, Difficulty: DifficultyIntermediate, IsActive: true}

	assert.True(t, ExerciseFilter{}.Matches(ex))
	assert.True(t, ExerciseFilter{MuscleGroupID: &chest, Search: "barb"}.Matches(ex))
	assert.False(t, ExerciseFilter{MuscleGroupID: &legs}.Matches(ex))
	assert.False(t, ExerciseFilter{Difficulty: &adv}.Matches(ex))
	assert.False(t, ExerciseFilter{Search: "squat"}.Matches(ex))

	ex.IsActive = false
	assert.False(t, ExerciseFilter{}.Matches(ex))
}

func TestError_KindAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(KindConflict, "op", cause).WithDetail("completed", true)

	assert.True(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(err, KindNotFound))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, true, err.Details["completed"])
	assert.Equal(t, "op: conflict: boom", err.Error())

	wrapped := errors.Join(errors.New("outer"), Validation("create", "bad %d", 1))
	assert.Equal(t, KindValidation, KindOf(wrapped))
	assert.Equal(t, ErrorKind(""), KindOf(cause))
}
