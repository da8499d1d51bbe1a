package repository

import (
	"alcyxob/gym-routines/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound         = RepositoryError("not found")
	ErrDuplicate        = RepositoryError("duplicate key")
	ErrVersionConflict  = RepositoryError("version conflict")
	ErrAlreadyActive    = RepositoryError("routine already active")
	ErrAlreadyNotified  = RepositoryError("member already notified")
	ErrSessionCompleted = RepositoryError("session already completed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// MuscleGroupRepository defines the interface for muscle group reference data.
type MuscleGroupRepository interface {
	Create(ctx context.Context, group *domain.MuscleGroup) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MuscleGroup, error)
	GetByName(ctx context.Context, name string) (*domain.MuscleGroup, error)
	List(ctx context.Context) ([]domain.MuscleGroup, error) // Ordered by name
	Update(ctx context.Context, group *domain.MuscleGroup) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ExerciseRepository defines the interface for interacting with the exercise catalog.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	// GetByID returns the exercise whether or not it is active.
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.Exercise, error)
	// List returns active exercises matching filter in ascending id order.
	List(ctx context.Context, filter domain.ExerciseFilter) ([]domain.Exercise, error)
	FindByName(ctx context.Context, muscleGroupID primitive.ObjectID, name string) (*domain.Exercise, error)
	CountByMuscleGroup(ctx context.Context, muscleGroupID primitive.ObjectID) (int64, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) error
	AddMediaKey(ctx context.Context, id primitive.ObjectID, key string) error
}

// RoutineRepository defines the interface for routines and their owned exercise entries.
type RoutineRepository interface {
	Create(ctx context.Context, routine *domain.WorkoutRoutine) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutRoutine, error)
	ListByMember(ctx context.Context, memberID primitive.ObjectID) ([]domain.WorkoutRoutine, error)
	ListByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.WorkoutRoutine, error)
	GetActiveByMember(ctx context.Context, memberID primitive.ObjectID) (*domain.WorkoutRoutine, error)
	// Update writes descriptive fields and the exercise list when the stored
	// version equals routine.Version, then bumps the version.
	// Returns ErrVersionConflict if another writer got there first.
	Update(ctx context.Context, routine *domain.WorkoutRoutine) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// Activate deactivates every other active routine of memberID and
	// activates id as one atomic step. ErrAlreadyActive if id is already active.
	Activate(ctx context.Context, id, memberID primitive.ObjectID) error
	// MarkNotified stamps notifiedAt only if it is unset. ErrAlreadyNotified otherwise.
	MarkNotified(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

// SessionRepository defines the interface for workout sessions and their owned logs.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error)
	ListByMember(ctx context.Context, memberID primitive.ObjectID) ([]domain.WorkoutSession, error) // Newest first
	CountOpenByRoutine(ctx context.Context, routineID primitive.ObjectID) (int64, error)
	// AppendLog pushes a log and increments the completed count atomically,
	// provided the session is not completed. ErrSessionCompleted otherwise.
	AppendLog(ctx context.Context, sessionID primitive.ObjectID, log domain.ExerciseLog) (*domain.WorkoutSession, error)
	// Complete transitions an open session to completed. ErrSessionCompleted if it already is.
	Complete(ctx context.Context, sessionID primitive.ObjectID, durationMinutes int, at time.Time) (*domain.WorkoutSession, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// UserRepository is the read-only view of accounts owned by the identity service.
type UserRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}
