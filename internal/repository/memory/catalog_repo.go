// Package memory provides map-backed repositories. They are used by the
// test suites and by the server when database.driver is "memory".
package memory

import (
	"alcyxob/gym-routines/internal/domain"
	"alcyxob/gym-routines/internal/repository"
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func compareIDs(a, b primitive.ObjectID) int { return bytes.Compare(a[:], b[:]) }

type muscleGroupRepository struct {
	mu     sync.RWMutex
	groups map[primitive.ObjectID]domain.MuscleGroup
}

// NewMuscleGroupRepository creates an empty in-memory muscle group repository.
func NewMuscleGroupRepository() repository.MuscleGroupRepository {
	return &muscleGroupRepository{groups: make(map[primitive.ObjectID]domain.MuscleGroup)}
}

func (r *muscleGroupRepository) Create(_ context.Context, group *domain.MuscleGroup) (primitive.ObjectID, error) {
	if strings.TrimSpace(group.Name) == "" {
		return primitive.NilObjectID, errors.New("muscle group name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.groups {
		if strings.EqualFold(g.Name, group.Name) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	group.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	group.CreatedAt, group.UpdatedAt = now, now
	r.groups[group.ID] = *group
	return group.ID, nil
}

func (r *muscleGroupRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.MuscleGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &g, nil
}

func (r *muscleGroupRepository) GetByName(_ context.Context, name string) (*domain.MuscleGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, g := range r.groups {
		if strings.EqualFold(g.Name, name) {
			return &g, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *muscleGroupRepository) List(_ context.Context) ([]domain.MuscleGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.MuscleGroup, 0, len(r.groups))
	for _, g := range r.groups {
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, b domain.MuscleGroup) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *muscleGroupRepository) Update(_ context.Context, group *domain.MuscleGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.groups[group.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, g := range r.groups {
		if id != group.ID && strings.EqualFold(g.Name, group.Name) {
			return repository.ErrDuplicate
		}
	}
	existing.Name = group.Name
	existing.Description = group.Description
	existing.UpdatedAt = time.Now().UTC()
	r.groups[group.ID] = existing
	*group = existing
	return nil
}

func (r *muscleGroupRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.groups, id)
	return nil
}

type exerciseRepository struct {
	mu        sync.RWMutex
	exercises map[primitive.ObjectID]domain.Exercise
}

// NewExerciseRepository creates an empty in-memory exercise catalog.
func NewExerciseRepository() repository.ExerciseRepository {
	return &exerciseRepository{exercises: make(map[primitive.ObjectID]domain.Exercise)}
}

func cloneExercise(ex domain.Exercise) domain.Exercise {
	ex.Media.MediaKeys = slices.Clone(ex.Media.MediaKeys)
	return ex
}

func (r *exerciseRepository) Create(_ context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.Name == "" || exercise.MuscleGroupID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("exercise name and muscle group are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt, exercise.UpdatedAt = now, now
	r.exercises[exercise.ID] = cloneExercise(*exercise)
	return exercise.ID, nil
}

func (r *exerciseRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ex, ok := r.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	ex = cloneExercise(ex)
	return &ex, nil
}

func (r *exerciseRepository) GetByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[primitive.ObjectID]domain.Exercise, len(ids))
	for _, id := range ids {
		if ex, ok := r.exercises[id]; ok {
			out[id] = cloneExercise(ex)
		}
	}
	return out, nil
}

func (r *exerciseRepository) List(_ context.Context, filter domain.ExerciseFilter) ([]domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Exercise
	for _, ex := range r.exercises {
		if filter.Matches(&ex) {
			out = append(out, cloneExercise(ex))
		}
	}
	slices.SortFunc(out, func(a, b domain.Exercise) int { return compareIDs(a.ID, b.ID) })
	return out, nil
}

func (r *exerciseRepository) FindByName(_ context.Context, muscleGroupID primitive.ObjectID, name string) (*domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ex := range r.exercises {
		if ex.MuscleGroupID == muscleGroupID && strings.EqualFold(ex.Name, name) {
			ex = cloneExercise(ex)
			return &ex, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *exerciseRepository) CountByMuscleGroup(_ context.Context, muscleGroupID primitive.ObjectID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, ex := range r.exercises {
		if ex.MuscleGroupID == muscleGroupID {
			n++
		}
	}
	return n, nil
}

func (r *exerciseRepository) Update(_ context.Context, exercise *domain.Exercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.exercises[exercise.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = exercise.Name
	existing.Description = exercise.Description
	existing.Instructions = exercise.Instructions
	existing.MuscleGroupID = exercise.MuscleGroupID
	existing.Difficulty = exercise.Difficulty
	existing.EquipmentNeeded = exercise.EquipmentNeeded
	existing.Media.VideoURL = exercise.Media.VideoURL
	existing.Media.ImageURL = exercise.Media.ImageURL
	existing.UpdatedAt = time.Now().UTC()
	r.exercises[exercise.ID] = existing
	*exercise = cloneExercise(existing)
	return nil
}

func (r *exerciseRepository) SetActive(_ context.Context, id primitive.ObjectID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.exercises[id]
	if !ok {
		return repository.ErrNotFound
	}
	ex.IsActive = active
	ex.UpdatedAt = time.Now().UTC()
	r.exercises[id] = ex
	return nil
}

func (r *exerciseRepository) AddMediaKey(_ context.Context, id primitive.ObjectID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.exercises[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !slices.Contains(ex.Media.MediaKeys, key) {
		ex.Media.MediaKeys = append(slices.Clone(ex.Media.MediaKeys), key)
	}
	ex.UpdatedAt = time.Now().UTC()
	r.exercises[id] = ex
	return nil
}
