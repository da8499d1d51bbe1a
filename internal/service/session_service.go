package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alcyxob/gym-routines/internal/domain"
	"alcyxob/gym-routines/internal/platform/logger"
	"alcyxob/gym-routines/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type StartSessionInput struct {
	MemberID  primitive.ObjectID
	RoutineID primitive.ObjectID
	DayOfWeek domain.Weekday
	Notes     string
}

// LogExerciseInput records one performed exercise. ExerciseID may be left
// empty when RoutineExerciseID still resolves in the routine; zero planned
// values are then taken from the plan entry.
type LogExerciseInput struct {
	SessionID         primitive.ObjectID
	RoutineExerciseID primitive.ObjectID
	ExerciseID        primitive.ObjectID
	PlannedSets       int
	PlannedReps       int
	ActualSets        int
	ActualReps        int
	WeightUsed        *float64
	DifficultyRating  int
	Notes             string
}

// SessionProgress is the "logs so far / exercises planned" view of a session.
// Percent can exceed 100 when exercises are logged more than once.
type SessionProgress struct {
	Logged  int     `json:"logged"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// Progress computes the progress of a session.
func Progress(session *domain.WorkoutSession) SessionProgress {
	logged, total, percent := session.Progress()
	return SessionProgress{Logged: logged, Total: total, Percent: percent}
}

// SessionService runs workout sessions: planned -> in_progress -> completed.
type SessionService interface {
	StartSession(ctx context.Context, in StartSessionInput) (*domain.WorkoutSession, error)
	LogExercise(ctx context.Context, in LogExerciseInput) (*domain.WorkoutSession, error)
	CompleteSession(ctx context.Context, id primitive.ObjectID, durationMinutes int) (*domain.WorkoutSession, error)
	GetSession(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error)
	ListSessionsForMember(ctx context.Context, memberID primitive.ObjectID) ([]domain.WorkoutSession, error)
	DeleteSession(ctx context.Context, id primitive.ObjectID) error
}

type sessionService struct {
	sessionRepo repository.SessionRepository
	routineRepo repository.RoutineRepository
	catalog     CatalogService
	log         *logger.Logger
	now         func() time.Time
}

// NewSessionService creates a new instance of sessionService.
func NewSessionService(sessionRepo repository.SessionRepository, routineRepo repository.RoutineRepository, catalog CatalogService, log *logger.Logger) SessionService {
	return &sessionService{
		sessionRepo: sessionRepo,
		routineRepo: routineRepo,
		catalog:     catalog,
		log:         log.With("service", "SessionService"),
		now:         time.Now,
	}
}

func sessionCompleted(op string, session *domain.WorkoutSession) error {
	e := domain.Conflict(op, "session %s is already completed", session.ID.Hex()).
		WithDetail("completed", true).
		WithDetail("status", session.Status)
	if session.CompletedAt != nil {
		e = e.WithDetail("completed_at", session.CompletedAt.UTC())
	}
	return e
}

// StartSession opens a planned session for one day of the member's active routine.
func (s *sessionService) StartSession(ctx context.Context, in StartSessionInput) (_ *domain.WorkoutSession, err error) {
	const op = "StartSession"
	ctx, span := startSpan(ctx, "SessionService.StartSession")
	defer func() { endSpan(span, err) }()

	if err := requireID(op, "memberId", in.MemberID); err != nil {
		return nil, err
	}
	if !in.DayOfWeek.Valid() {
		return nil, domain.Validation(op, "day_of_week must be between 1 and 7").WithDetail("day_of_week", int(in.DayOfWeek))
	}
	routine, err := s.routineRepo.GetByID(ctx, in.RoutineID)
	if err != nil {
		return nil, notFoundOr(op, "routine", in.RoutineID, err)
	}
	total := routine.CountForDay(in.DayOfWeek)
	if total == 0 {
		return nil, domain.Validation(op, "routine has no exercises scheduled on %s", in.DayOfWeek).
			WithDetail("day_of_week", int(in.DayOfWeek))
	}
	if routine.MemberID != in.MemberID {
		return nil, domain.Conflict(op, "routine %s does not belong to member %s", routine.ID.Hex(), in.MemberID.Hex())
	}
	if !routine.IsActive {
		return nil, domain.Conflict(op, "routine %s is not the member's active routine", routine.ID.Hex()).
			WithDetail("is_active", false)
	}

	now := s.now().UTC()
	session := &domain.WorkoutSession{
		MemberID:                in.MemberID,
		RoutineID:               routine.ID,
		RoutineName:             routine.Name,
		DayOfWeek:               in.DayOfWeek,
		Date:                    now,
		Notes:                   in.Notes,
		Status:                  domain.SessionPlanned,
		TotalExercisesCount:     total,
		CompletedExercisesCount: 0,
		Logs:                    []domain.ExerciseLog{},
	}
	if _, err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("session started", "session_id", session.ID.Hex(), "routine_id", routine.ID.Hex(), "day", in.DayOfWeek.String(), "total", total)
	return session, nil
}

func validateLog(op string, in LogExerciseInput) error {
	var problems []string
	if in.DifficultyRating < 1 || in.DifficultyRating > 5 {
		problems = append(problems, "difficulty_rating must be between 1 and 5")
	}
	if in.ActualSets < 0 || in.ActualReps < 0 {
		problems = append(problems, "actual sets and reps must not be negative")
	}
	if in.PlannedSets < 0 || in.PlannedReps < 0 {
		problems = append(problems, "planned sets and reps must not be negative")
	}
	if in.WeightUsed != nil && *in.WeightUsed < 0 {
		problems = append(problems, "weight_used must not be negative")
	}
	if len(problems) > 0 {
		return domain.Validation(op, "invalid exercise log").WithDetail("problems", problems)
	}
	return nil
}

// LogExercise appends one performance entry to an open session.
func (s *sessionService) LogExercise(ctx context.Context, in LogExerciseInput) (_ *domain.WorkoutSession, err error) {
	const op = "LogExercise"
	ctx, span := startSpan(ctx, "SessionService.LogExercise")
	defer func() { endSpan(span, err) }()

	if err := validateLog(op, in); err != nil {
		return nil, err
	}
	session, err := s.sessionRepo.GetByID(ctx, in.SessionID)
	if err != nil {
		return nil, notFoundOr(op, "session", in.SessionID, err)
	}
	if session.Completed {
		return nil, sessionCompleted(op, session)
	}

	// The plan entry is a weak reference: it may have been edited away since
	// the session started.
	if in.RoutineExerciseID != primitive.NilObjectID {
		if routine, err := s.routineRepo.GetByID(ctx, session.RoutineID); err == nil {
			if entry, ok := routine.FindExercise(in.RoutineExerciseID); ok {
				if in.ExerciseID == primitive.NilObjectID {
					in.ExerciseID = entry.ExerciseID
				}
				if in.PlannedSets == 0 {
					in.PlannedSets = entry.Sets
				}
				if in.PlannedReps == 0 {
					in.PlannedReps = entry.Reps
				}
			}
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if in.ExerciseID == primitive.NilObjectID {
		return nil, domain.Validation(op, msgMissingExerciseRef)
	}

	exercise, err := s.catalog.ResolveExercise(ctx, in.ExerciseID)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, domain.Validation(op, "%s: exercise %s does not exist", msgMissingExerciseRef, in.ExerciseID.Hex())
		}
		return nil, err
	}
	snapshot := domain.ExerciseSnapshot{ID: exercise.ID, Name: exercise.Name}
	if group, err := s.catalog.GetMuscleGroup(ctx, exercise.MuscleGroupID); err == nil {
		snapshot.MuscleGroup = group.Name
	}

	log := domain.ExerciseLog{
		ID:                primitive.NewObjectID(),
		RoutineExerciseID: in.RoutineExerciseID,
		Exercise:          snapshot,
		PlannedSets:       in.PlannedSets,
		PlannedReps:       in.PlannedReps,
		ActualSets:        in.ActualSets,
		ActualReps:        in.ActualReps,
		WeightUsed:        in.WeightUsed,
		DifficultyRating:  in.DifficultyRating,
		Notes:             in.Notes,
		CompletedAt:       s.now().UTC(),
	}
	updated, err := s.sessionRepo.AppendLog(ctx, in.SessionID, log)
	if err != nil {
		if errors.Is(err, repository.ErrSessionCompleted) {
			// Completed between our read and the append.
			if current, getErr := s.sessionRepo.GetByID(ctx, in.SessionID); getErr == nil {
				return nil, sessionCompleted(op, current)
			}
			return nil, domain.Conflict(op, "session %s is already completed", in.SessionID.Hex()).WithDetail("completed", true)
		}
		return nil, notFoundOr(op, "session", in.SessionID, err)
	}
	return updated, nil
}

// CompleteSession closes the session. It can happen only once.
func (s *sessionService) CompleteSession(ctx context.Context, id primitive.ObjectID, durationMinutes int) (_ *domain.WorkoutSession, err error) {
	const op = "CompleteSession"
	ctx, span := startSpan(ctx, "SessionService.CompleteSession")
	defer func() { endSpan(span, err) }()

	if durationMinutes < 0 {
		return nil, domain.Validation(op, "duration_minutes must not be negative")
	}
	session, err := s.sessionRepo.Complete(ctx, id, durationMinutes, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrSessionCompleted) {
			current, getErr := s.sessionRepo.GetByID(ctx, id)
			if getErr != nil {
				return nil, notFoundOr(op, "session", id, getErr)
			}
			return nil, sessionCompleted(op, current)
		}
		return nil, notFoundOr(op, "session", id, err)
	}
	p := Progress(session)
	s.log.Info("session completed", "session_id", id.Hex(), "duration_minutes", durationMinutes, "logged", p.Logged, "total", p.Total)
	return session, nil
}

func (s *sessionService) GetSession(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr("GetSession", "session", id, err)
	}
	return session, nil
}

func (s *sessionService) ListSessionsForMember(ctx context.Context, memberID primitive.ObjectID) ([]domain.WorkoutSession, error) {
	sessions, err := s.sessionRepo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("ListSessionsForMember: %w", err)
	}
	if sessions == nil {
		sessions = []domain.WorkoutSession{}
	}
	return sessions, nil
}

// DeleteSession discards a session that was never completed. Completed
// sessions are history and cannot be removed.
func (s *sessionService) DeleteSession(ctx context.Context, id primitive.ObjectID) error {
	const op = "DeleteSession"
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(op, "session", id, err)
	}
	if session.Completed {
		return sessionCompleted(op, session)
	}
	if err := s.sessionRepo.Delete(ctx, id); err != nil {
		return notFoundOr(op, "session", id, err)
	}
	s.log.Info("session discarded", "session_id", id.Hex(), "logged", session.CompletedExercisesCount)
	return nil
}
