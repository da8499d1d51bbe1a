package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"alcyxob/gym-routines/internal/domain"
	"alcyxob/gym-routines/internal/platform/logger"
	"alcyxob/gym-routines/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Validation message used whenever an entry lacks a usable exercise.
const msgMissingExerciseRef = "missing exercise reference"

// RoutineExerciseInput is one requested slot of a routine schedule.
// Order is optional; see domain.BuildSchedule for how it is applied.
type RoutineExerciseInput struct {
	ExerciseID  primitive.ObjectID
	DayOfWeek   domain.Weekday
	Order       *int
	Sets        int
	Reps        int
	RestSeconds int
	WeightKg    *float64
	Notes       string
}

type CreateRoutineInput struct {
	MemberID      primitive.ObjectID
	TrainerID     primitive.ObjectID
	Name          string
	Description   string
	Goal          string
	DurationWeeks int
	Exercises     []RoutineExerciseInput
}

// RoutinePatch updates only the non-nil fields. A non-nil Exercises replaces
// the whole schedule. ExpectedVersion, when set, must match the stored version.
type RoutinePatch struct {
	Name            *string
	Description     *string
	Goal            *string
	DurationWeeks   *int
	Exercises       *[]RoutineExerciseInput
	ExpectedVersion *int64
}

// EntryProblem lists what is wrong with the entry at Index of a submitted schedule.
type EntryProblem struct {
	Index    int      `json:"index"`
	Problems []string `json:"problems"`
}

// RoutineService builds and edits routines and their weekly schedules.
type RoutineService interface {
	CreateRoutine(ctx context.Context, in CreateRoutineInput) (*domain.WorkoutRoutine, error)
	UpdateRoutine(ctx context.Context, id primitive.ObjectID, patch RoutinePatch) (*domain.WorkoutRoutine, error)
	AddExercise(ctx context.Context, routineID primitive.ObjectID, day domain.Weekday, in RoutineExerciseInput, position *int) (*domain.WorkoutRoutine, error)
	RemoveExercise(ctx context.Context, routineID primitive.ObjectID, day domain.Weekday, index int) (*domain.WorkoutRoutine, error)
	DeleteRoutine(ctx context.Context, id primitive.ObjectID) error

	GetRoutine(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutRoutine, error)
	ListRoutinesForMember(ctx context.Context, memberID primitive.ObjectID) ([]domain.WorkoutRoutine, error)
	ListRoutinesByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.WorkoutRoutine, error)
	GetActiveRoutine(ctx context.Context, memberID primitive.ObjectID) (*domain.WorkoutRoutine, error)
	RoutineDay(ctx context.Context, id primitive.ObjectID, day domain.Weekday) ([]domain.RoutineExercise, error)
}

type routineService struct {
	routineRepo repository.RoutineRepository
	sessionRepo repository.SessionRepository
	catalog     CatalogService
	log         *logger.Logger
}

// NewRoutineService creates a new instance of routineService.
func NewRoutineService(routineRepo repository.RoutineRepository, sessionRepo repository.SessionRepository, catalog CatalogService, log *logger.Logger) RoutineService {
	return &routineService{
		routineRepo: routineRepo,
		sessionRepo: sessionRepo,
		catalog:     catalog,
		log:         log.With("service", "RoutineService"),
	}
}

// buildEntries validates every submitted entry and turns the batch into a
// densely ordered schedule. All problems are reported together. Exercises in
// allowInactive may be deactivated (they are already part of the routine).
func (s *routineService) buildEntries(ctx context.Context, op string, inputs []RoutineExerciseInput, allowInactive map[primitive.ObjectID]bool) ([]domain.RoutineExercise, error) {
	ids := make([]primitive.ObjectID, 0, len(inputs))
	for _, in := range inputs {
		if in.ExerciseID != primitive.NilObjectID {
			ids = append(ids, in.ExerciseID)
		}
	}
	known, err := s.catalog.ResolveExercises(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var missing, invalid []EntryProblem
	planned := make([]domain.PlannedEntry, 0, len(inputs))
	for i, in := range inputs {
		entry := domain.RoutineExercise{
			ID:          primitive.NewObjectID(),
			ExerciseID:  in.ExerciseID,
			DayOfWeek:   in.DayOfWeek,
			Sets:        in.Sets,
			Reps:        in.Reps,
			RestSeconds: in.RestSeconds,
			WeightKg:    in.WeightKg,
			Notes:       in.Notes,
		}
		problems := entry.Problems()
		missingRef := in.ExerciseID == primitive.NilObjectID
		if !missingRef {
			ex, ok := known[in.ExerciseID]
			switch {
			case !ok:
				missingRef = true
				problems = append(problems, fmt.Sprintf("%s: exercise %s does not exist", msgMissingExerciseRef, in.ExerciseID.Hex()))
			case !ex.IsActive && !allowInactive[in.ExerciseID]:
				problems = append(problems, fmt.Sprintf("exercise %s is deactivated", in.ExerciseID.Hex()))
			}
		}
		if len(problems) > 0 {
			p := EntryProblem{Index: i, Problems: problems}
			if missingRef {
				missing = append(missing, p)
			} else {
				invalid = append(invalid, p)
			}
			continue
		}
		planned = append(planned, domain.PlannedEntry{Entry: entry, Order: in.Order})
	}

	if len(missing) > 0 {
		return nil, domain.Validation(op, msgMissingExerciseRef).
			WithDetail("entries", append(missing, invalid...))
	}
	if len(invalid) > 0 {
		return nil, domain.Validation(op, "invalid routine exercises").WithDetail("entries", invalid)
	}
	return domain.BuildSchedule(planned), nil
}

func validateRoutineFields(op, name string, durationWeeks int) error {
	if strings.TrimSpace(name) == "" {
		return domain.Validation(op, "routine name is required")
	}
	if durationWeeks <= 0 {
		return domain.Validation(op, "durationWeeks must be positive")
	}
	return nil
}

// CreateRoutine validates the whole routine before anything is stored.
// New routines are never active.
func (s *routineService) CreateRoutine(ctx context.Context, in CreateRoutineInput) (_ *domain.WorkoutRoutine, err error) {
	const op = "CreateRoutine"
	ctx, span := startSpan(ctx, "RoutineService.CreateRoutine")
	defer func() { endSpan(span, err) }()

	if err := requireID(op, "memberId", in.MemberID); err != nil {
		return nil, err
	}
	if err := requireID(op, "trainerId", in.TrainerID); err != nil {
		return nil, err
	}
	if err := validateRoutineFields(op, in.Name, in.DurationWeeks); err != nil {
		return nil, err
	}
	entries, err := s.buildEntries(ctx, op, in.Exercises, nil)
	if err != nil {
		return nil, err
	}

	routine := &domain.WorkoutRoutine{
		MemberID:      in.MemberID,
		TrainerID:     in.TrainerID,
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		Goal:          in.Goal,
		DurationWeeks: in.DurationWeeks,
		IsActive:      false,
		Exercises:     entries,
	}
	if _, err := s.routineRepo.Create(ctx, routine); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("routine created", "routine_id", routine.ID.Hex(), "member_id", routine.MemberID.Hex(), "exercises", len(entries))
	return routine, nil
}

// UpdateRoutine applies patch. Replacing the schedule re-validates and
// re-packs it; field-only patches leave the schedule as is.
func (s *routineService) UpdateRoutine(ctx context.Context, id primitive.ObjectID, patch RoutinePatch) (_ *domain.WorkoutRoutine, err error) {
	const op = "UpdateRoutine"
	ctx, span := startSpan(ctx, "RoutineService.UpdateRoutine")
	defer func() { endSpan(span, err) }()

	routine, err := s.routineRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(op, "routine", id, err)
	}
	if patch.ExpectedVersion != nil && *patch.ExpectedVersion != routine.Version {
		return nil, versionConflict(op, routine)
	}

	if patch.Name != nil {
		routine.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		routine.Description = *patch.Description
	}
	if patch.Goal != nil {
		routine.Goal = *patch.Goal
	}
	if patch.DurationWeeks != nil {
		routine.DurationWeeks = *patch.DurationWeeks
	}
	if err := validateRoutineFields(op, routine.Name, routine.DurationWeeks); err != nil {
		return nil, err
	}
	if patch.Exercises != nil {
		current := make(map[primitive.ObjectID]bool, len(routine.Exercises))
		for _, e := range routine.Exercises {
			current[e.ExerciseID] = true
		}
		entries, err := s.buildEntries(ctx, op, *patch.Exercises, current)
		if err != nil {
			return nil, err
		}
		routine.Exercises = entries
	}

	if err := s.save(ctx, op, routine); err != nil {
		return nil, err
	}
	return routine, nil
}

// AddExercise inserts one entry into day at position (clamped), or appends.
func (s *routineService) AddExercise(ctx context.Context, routineID primitive.ObjectID, day domain.Weekday, in RoutineExerciseInput, position *int) (_ *domain.WorkoutRoutine, err error) {
	const op = "AddExercise"
	ctx, span := startSpan(ctx, "RoutineService.AddExercise")
	defer func() { endSpan(span, err) }()

	if !day.Valid() {
		return nil, domain.Validation(op, "day_of_week must be between 1 and 7").WithDetail("day_of_week", int(day))
	}
	routine, err := s.routineRepo.GetByID(ctx, routineID)
	if err != nil {
		return nil, notFoundOr(op, "routine", routineID, err)
	}

	in.DayOfWeek = day
	in.Order = nil
	entries, err := s.buildEntries(ctx, op, []RoutineExerciseInput{in}, nil)
	if err != nil {
		return nil, err
	}
	routine.InsertExercise(entries[0], position)

	if err := s.save(ctx, op, routine); err != nil {
		return nil, err
	}
	return routine, nil
}

// RemoveExercise drops the entry at index within day; the day is re-packed.
func (s *routineService) RemoveExercise(ctx context.Context, routineID primitive.ObjectID, day domain.Weekday, index int) (_ *domain.WorkoutRoutine, err error) {
	const op = "RemoveExercise"
	ctx, span := startSpan(ctx, "RoutineService.RemoveExercise")
	defer func() { endSpan(span, err) }()

	if !day.Valid() {
		return nil, domain.Validation(op, "day_of_week must be between 1 and 7").WithDetail("day_of_week", int(day))
	}
	routine, err := s.routineRepo.GetByID(ctx, routineID)
	if err != nil {
		return nil, notFoundOr(op, "routine", routineID, err)
	}
	if _, ok := routine.RemoveExercise(day, index); !ok {
		return nil, domain.NotFound(op, "no exercise at index %d on %s", index, day).
			WithDetail("day_count", routine.CountForDay(day))
	}

	if err := s.save(ctx, op, routine); err != nil {
		return nil, err
	}
	return routine, nil
}

// save writes routine with the version it was read at.
func (s *routineService) save(ctx context.Context, op string, routine *domain.WorkoutRoutine) error {
	err := s.routineRepo.Update(ctx, routine)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrVersionConflict):
		current, getErr := s.routineRepo.GetByID(ctx, routine.ID)
		if getErr != nil {
			return notFoundOr(op, "routine", routine.ID, getErr)
		}
		return versionConflict(op, current)
	default:
		return notFoundOr(op, "routine", routine.ID, err)
	}
}

func versionConflict(op string, current *domain.WorkoutRoutine) error {
	return domain.Conflict(op, "routine was modified concurrently").
		WithDetail("version", current.Version)
}

// DeleteRoutine removes the routine and its schedule. Sessions that are not
// completed block the deletion.
func (s *routineService) DeleteRoutine(ctx context.Context, id primitive.ObjectID) (err error) {
	const op = "DeleteRoutine"
	ctx, span := startSpan(ctx, "RoutineService.DeleteRoutine")
	defer func() { endSpan(span, err) }()

	if _, err := s.routineRepo.GetByID(ctx, id); err != nil {
		return notFoundOr(op, "routine", id, err)
	}
	open, err := s.sessionRepo.CountOpenByRoutine(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if open > 0 {
		return domain.FailedPrecondition(op, "routine has %d sessions that are not completed", open).
			WithDetail("open_sessions", open)
	}
	if err := s.routineRepo.Delete(ctx, id); err != nil {
		return notFoundOr(op, "routine", id, err)
	}
	s.log.Info("routine deleted", "routine_id", id.Hex())
	return nil
}

func (s *routineService) GetRoutine(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutRoutine, error) {
	routine, err := s.routineRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr("GetRoutine", "routine", id, err)
	}
	return routine, nil
}

func (s *routineService) ListRoutinesForMember(ctx context.Context, memberID primitive.ObjectID) ([]domain.WorkoutRoutine, error) {
	routines, err := s.routineRepo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("ListRoutinesForMember: %w", err)
	}
	if routines == nil {
		routines = []domain.WorkoutRoutine{}
	}
	return routines, nil
}

func (s *routineService) ListRoutinesByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.WorkoutRoutine, error) {
	routines, err := s.routineRepo.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("ListRoutinesByTrainer: %w", err)
	}
	if routines == nil {
		routines = []domain.WorkoutRoutine{}
	}
	return routines, nil
}

// GetActiveRoutine returns the member's current plan.
func (s *routineService) GetActiveRoutine(ctx context.Context, memberID primitive.ObjectID) (*domain.WorkoutRoutine, error) {
	routine, err := s.routineRepo.GetActiveByMember(ctx, memberID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("GetActiveRoutine", "member %s has no active routine", memberID.Hex())
		}
		return nil, fmt.Errorf("GetActiveRoutine: %w", err)
	}
	return routine, nil
}

func (s *routineService) RoutineDay(ctx context.Context, id primitive.ObjectID, day domain.Weekday) ([]domain.RoutineExercise, error) {
	const op = "RoutineDay"
	if !day.Valid() {
		return nil, domain.Validation(op, "day_of_week must be between 1 and 7").WithDetail("day_of_week", int(day))
	}
	routine, err := s.routineRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(op, "routine", id, err)
	}
	entries := routine.Day(day)
	if entries == nil {
		entries = []domain.RoutineExercise{}
	}
	return entries, nil
}
