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

type sessionRepository struct {
	mu       sync.RWMutex
	sessions map[primitive.ObjectID]domain.WorkoutSession
}

// NewSessionRepository creates an empty in-memory session repository.
func NewSessionRepository() repository.SessionRepository {
	return &sessionRepository{sessions: make(map[primitive.ObjectID]domain.WorkoutSession)}
}

func cloneSession(s domain.WorkoutSession) domain.WorkoutSession {
	s.Logs = slices.Clone(s.Logs)
	if s.DurationMinutes != nil {
		d := *s.DurationMinutes
		s.DurationMinutes = &d
	}
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		s.CompletedAt = &at
	}
	return s
}

func (r *sessionRepository) Create(_ context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error) {
	if session.MemberID == primitive.NilObjectID || session.RoutineID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("session requires memberId and routineId")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	session.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	session.CreatedAt, session.UpdatedAt = now, now
	if session.Logs == nil {
		session.Logs = []domain.ExerciseLog{}
	}
	r.sessions[session.ID] = cloneSession(*session)
	return session.ID, nil
}

func (r *sessionRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	s = cloneSession(s)
	return &s, nil
}

func (r *sessionRepository) ListByMember(_ context.Context, memberID primitive.ObjectID) ([]domain.WorkoutSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.WorkoutSession
	for _, s := range r.sessions {
		if s.MemberID == memberID {
			out = append(out, cloneSession(s))
		}
	}
	slices.SortFunc(out, func(a, b domain.WorkoutSession) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return compareIDs(b.ID, a.ID)
	})
	return out, nil
}

func (r *sessionRepository) CountOpenByRoutine(_ context.Context, routineID primitive.ObjectID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, s := range r.sessions {
		if s.RoutineID == routineID && !s.Completed {
			n++
		}
	}
	return n, nil
}

func (r *sessionRepository) AppendLog(_ context.Context, sessionID primitive.ObjectID, log domain.ExerciseLog) (*domain.WorkoutSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if s.Completed {
		return nil, repository.ErrSessionCompleted
	}
	s.Logs = append(slices.Clone(s.Logs), log)
	s.CompletedExercisesCount++
	s.Status = domain.SessionInProgress
	s.UpdatedAt = time.Now().UTC()
	r.sessions[sessionID] = s
	out := cloneSession(s)
	return &out, nil
}

func (r *sessionRepository) Complete(_ context.Context, sessionID primitive.ObjectID, durationMinutes int, at time.Time) (*domain.WorkoutSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if s.Completed {
		return nil, repository.ErrSessionCompleted
	}
	stamp := at.UTC()
	s.Completed = true
	s.Status = domain.SessionCompleted
	s.DurationMinutes = &durationMinutes
	s.CompletedAt = &stamp
	s.UpdatedAt = stamp
	r.sessions[sessionID] = s
	out := cloneSession(s)
	return &out, nil
}

func (r *sessionRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}
