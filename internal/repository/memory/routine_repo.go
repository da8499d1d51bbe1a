package memory

import (
	"alcyxob/gym-routines/internal/domain"
	"alcyxob/gym-routines/internal/repository"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// routineRepository guards every routine with one lock, which is what makes
// Activate atomic across a member's routines.
type routineRepository struct {
	mu       sync.RWMutex
	routines map[primitive.ObjectID]domain.WorkoutRoutine
}

// NewRoutineRepository creates an empty in-memory routine repository.
func NewRoutineRepository() repository.RoutineRepository {
	return &routineRepository{routines: make(map[primitive.ObjectID]domain.WorkoutRoutine)}
}

func cloneRoutine(r domain.WorkoutRoutine) domain.WorkoutRoutine {
	r.Exercises = slices.Clone(r.Exercises)
	if r.NotifiedAt != nil {
		at := *r.NotifiedAt
		r.NotifiedAt = &at
	}
	return r
}

func newestFirst(a, b domain.WorkoutRoutine) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return compareIDs(b.ID, a.ID)
}

func (r *routineRepository) Create(_ context.Context, routine *domain.WorkoutRoutine) (primitive.ObjectID, error) {
	if routine.MemberID == primitive.NilObjectID || routine.TrainerID == primitive.NilObjectID || routine.Name == "" {
		return primitive.NilObjectID, errors.New("routine requires memberId, trainerId, and name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if routine.IsActive {
		for _, other := range r.routines {
			if other.MemberID == routine.MemberID && other.IsActive {
				return primitive.NilObjectID, repository.ErrAlreadyActive
			}
		}
	}
	routine.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	routine.CreatedAt, routine.UpdatedAt = now, now
	routine.Version = 1
	r.routines[routine.ID] = cloneRoutine(*routine)
	return routine.ID, nil
}

func (r *routineRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutRoutine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	routine, ok := r.routines[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	routine = cloneRoutine(routine)
	return &routine, nil
}

func (r *routineRepository) list(match func(domain.WorkoutRoutine) bool) []domain.WorkoutRoutine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.WorkoutRoutine
	for _, routine := range r.routines {
		if match(routine) {
			out = append(out, cloneRoutine(routine))
		}
	}
	slices.SortFunc(out, newestFirst)
	return out
}

func (r *routineRepository) ListByMember(_ context.Context, memberID primitive.ObjectID) ([]domain.WorkoutRoutine, error) {
	return r.list(func(w domain.WorkoutRoutine) bool { return w.MemberID == memberID }), nil
}

func (r *routineRepository) ListByTrainer(_ context.Context, trainerID primitive.ObjectID) ([]domain.WorkoutRoutine, error) {
	return r.list(func(w domain.WorkoutRoutine) bool { return w.TrainerID == trainerID }), nil
}

func (r *routineRepository) GetActiveByMember(_ context.Context, memberID primitive.ObjectID) (*domain.WorkoutRoutine, error) {
	active := r.list(func(w domain.WorkoutRoutine) bool { return w.MemberID == memberID && w.IsActive })
	if len(active) == 0 {
		return nil, repository.ErrNotFound
	}
	return &active[0], nil
}

func (r *routineRepository) Update(_ context.Context, routine *domain.WorkoutRoutine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.routines[routine.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if existing.Version != routine.Version {
		return repository.ErrVersionConflict
	}
	existing.Name = routine.Name
	existing.Description = routine.Description
	existing.Goal = routine.Goal
	existing.DurationWeeks = routine.DurationWeeks
	existing.Exercises = slices.Clone(routine.Exercises)
	existing.Version++
	existing.UpdatedAt = time.Now().UTC()
	r.routines[routine.ID] = existing
	*routine = cloneRoutine(existing)
	return nil
}

func (r *routineRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.routines[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.routines, id)
	return nil
}

func (r *routineRepository) Activate(_ context.Context, id, memberID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.routines[id]
	if !ok || target.MemberID != memberID {
		return repository.ErrNotFound
	}
	if target.IsActive {
		return repository.ErrAlreadyActive
	}
	now := time.Now().UTC()
	for otherID, other := range r.routines {
		if other.MemberID == memberID && other.IsActive {
			other.IsActive = false
			other.UpdatedAt = now
			r.routines[otherID] = other
		}
	}
	target.IsActive = true
	target.UpdatedAt = now
	r.routines[id] = target
	return nil
}

func (r *routineRepository) MarkNotified(_ context.Context, id primitive.ObjectID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	routine, ok := r.routines[id]
	if !ok {
		return repository.ErrNotFound
	}
	if routine.NotifiedAt != nil {
		return repository.ErrAlreadyNotified
	}
	stamp := at.UTC()
	routine.NotifiedAt = &stamp
	routine.UpdatedAt = stamp
	r.routines[id] = routine
	return nil
}
