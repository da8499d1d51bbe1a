package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionStatus tracks the lifecycle of a training session.
type SessionStatus string

const (
	SessionPlanned    SessionStatus = "planned"
	SessionInProgress SessionStatus = "in_progress" // At least one exercise logged
	SessionCompleted  SessionStatus = "completed"   // Terminal
)

// ExerciseSnapshot is the exercise identity captured when a log is written,
// so the log stays readable after the plan or catalog entry changes.
type ExerciseSnapshot struct {
	ID          primitive.ObjectID `bson:"id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	MuscleGroup string             `bson:"muscleGroup,omitempty" json:"muscleGroup,omitempty"`
}

// ExerciseLog is one recorded performance entry within a session. Logs are
// append-only.
type ExerciseLog struct {
	ID                primitive.ObjectID `bson:"_id" json:"id"`
	RoutineExerciseID primitive.ObjectID `bson:"routineExerciseId" json:"routineExerciseId"` // Weak reference to the plan entry
	Exercise          ExerciseSnapshot   `bson:"exercise" json:"exercise"`
	PlannedSets       int                `bson:"plannedSets" json:"plannedSets"`
	PlannedReps       int                `bson:"plannedReps" json:"plannedReps"`
	ActualSets        int                `bson:"actualSets" json:"actualSets"`
	ActualReps        int                `bson:"actualReps" json:"actualReps"`
	WeightUsed        *float64           `bson:"weightUsed,omitempty" json:"weightUsed,omitempty"`
	DifficultyRating  int                `bson:"difficultyRating" json:"difficultyRating"` // 1 (easy) .. 5 (max effort)
	Notes             string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CompletedAt       time.Time          `bson:"completedAt" json:"completedAt"`
}

// AvgRepsPerSet is the mean number of reps actually performed per set.
func (l ExerciseLog) AvgRepsPerSet() float64 {
	if l.ActualSets <= 0 {
		return 0
	}
	return float64(l.ActualReps) / float64(l.ActualSets)
}

// WorkoutSession is one concrete execution of a routine's plan for a day.
type WorkoutSession struct {
	ID                      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MemberID                primitive.ObjectID `bson:"memberId" json:"memberId"`
	RoutineID               primitive.ObjectID `bson:"routineId" json:"routineId"`
	RoutineName             string             `bson:"routineName" json:"routineName"`
	DayOfWeek               Weekday            `bson:"dayOfWeek" json:"dayOfWeek"`
	Date                    time.Time          `bson:"date" json:"date"`
	Notes                   string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Status                  SessionStatus      `bson:"status" json:"status"`
	Completed               bool               `bson:"completed" json:"completed"`
	DurationMinutes         *int               `bson:"durationMinutes,omitempty" json:"durationMinutes,omitempty"` // Set on completion only
	TotalExercisesCount     int                `bson:"totalExercisesCount" json:"totalExercisesCount"`             // Fixed at creation
	CompletedExercisesCount int                `bson:"completedExercisesCount" json:"completedExercisesCount"`     // Log entries so far
	Logs                    []ExerciseLog      `bson:"logs" json:"logs"`
	CompletedAt             *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt               time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt               time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Progress reports logged entries against planned exercises. Percent is not
// clamped: repeated logs of the same exercise can push it past 100.
func (s *WorkoutSession) Progress() (logged, total int, percent float64) {
	logged, total = s.CompletedExercisesCount, s.TotalExercisesCount
	if total > 0 {
		percent = float64(logged) * 100 / float64(total)
	}
	return logged, total, percent
}
