package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"alcyxob/gym-routines/internal/domain"
	"alcyxob/gym-routines/internal/platform/logger"
	"alcyxob/gym-routines/internal/repository"
	"alcyxob/gym-routines/internal/repository/memory"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var fixedNow = time.Date(2024, 3, 5, 18, 30, 0, 0, time.UTC)

type sentNotification struct {
	MemberID  primitive.ObjectID
	RoutineID primitive.ObjectID
	Message   string
}

// recordingNotifier captures notifications and optionally fails them.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, memberID, routineID primitive.ObjectID, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{memberID, routineID, message})
	return n.err
}

// fakeStorage presigns deterministic URLs.
type fakeStorage struct {
	err error
}

func (f *fakeStorage) GeneratePresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://media.test/put/" + key, f.err
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://media.test/get/" + key, f.err
}

func (f *fakeStorage) DeleteObject(context.Context, string) error { return f.err }

type fixture struct {
	groups     repository.MuscleGroupRepository
	exercises  repository.ExerciseRepository
	routines   repository.RoutineRepository
	sessions   repository.SessionRepository
	notifier   *recordingNotifier
	catalog    CatalogService
	routine    RoutineService
	activation *activationService
	session    *sessionService

	member  primitive.ObjectID
	trainer primitive.ObjectID
	chest   *domain.MuscleGroup
	bench   *domain.Exercise
	fly     *domain.Exercise
	squat   *domain.Exercise
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Nop()
	f := &fixture{
		groups:    memory.NewMuscleGroupRepository(),
		exercises: memory.NewExerciseRepository(),
		routines:  memory.NewRoutineRepository(),
		sessions:  memory.NewSessionRepository(),
		notifier:  &recordingNotifier{},
		member:    primitive.NewObjectID(),
		trainer:   primitive.NewObjectID(),
	}
	f.catalog = NewCatalogService(f.groups, f.exercises, &fakeStorage{}, log)
	f.routine = NewRoutineService(f.routines, f.sessions, f.catalog, log)
	f.activation = NewActivationService(f.routines, f.notifier, log).(*activationService)
	f.activation.now = func() time.Time { return fixedNow }
	f.session = NewSessionService(f.sessions, f.routines, f.catalog, log).(*sessionService)
	f.session.now = func() time.Time { return fixedNow }

	ctx := context.Background()
	var err error
	f.chest, err = f.catalog.CreateMuscleGroup(ctx, "Pecho", "Pectorales")
	require.NoError(t, err)
	legs, err := f.catalog.CreateMuscleGroup(ctx, "Piernas", "")
	require.NoError(t, err)

	f.bench = f.mustExercise(t, "Press de banca plano", f.chest.ID, domain.DifficultyIntermediate)
	f.fly = f.mustExercise(t, "Aperturas con mancuernas", f.chest.ID, domain.DifficultyBeginner)
	f.squat = f.mustExercise(t, "Sentadilla con barra", legs.ID, domain.DifficultyIntermediate)
	return f
}

func (f *fixture) mustExercise(t *testing.T, name string, group primitive.ObjectID, d domain.Difficulty) *domain.Exercise {
	t.Helper()
	ex, err := f.catalog.CreateExercise(context.Background(), f.trainer, ExerciseInput{
		Name:          name,
		MuscleGroupID: group,
		Difficulty:    d,
	})
	require.NoError(t, err)
	return ex
}

func entry(ex primitive.ObjectID, day domain.Weekday) RoutineExerciseInput {
	return RoutineExerciseInput{ExerciseID: ex, DayOfWeek: day, Sets: 4, Reps: 10, RestSeconds: 90}
}

// mustRoutine creates a routine for the fixture member with the given entries.
func (f *fixture) mustRoutine(t *testing.T, name string, entries ...RoutineExerciseInput) *domain.WorkoutRoutine {
	t.Helper()
	r, err := f.routine.CreateRoutine(context.Background(), CreateRoutineInput{
		MemberID:      f.member,
		TrainerID:     f.trainer,
		Name:          name,
		Goal:          "hypertrophy",
		DurationWeeks: 8,
		Exercises:     entries,
	})
	require.NoError(t, err)
	return r
}

// mustActiveRoutine creates and activates a routine.
func (f *fixture) mustActiveRoutine(t *testing.T, name string, entries ...RoutineExerciseInput) *domain.WorkoutRoutine {
	t.Helper()
	r := f.mustRoutine(t, name, entries...)
	r, err := f.activation.ActivateRoutine(context.Background(), r.ID)
	require.NoError(t, err)
	return r
}

func requireKind(t *testing.T, err error, kind domain.ErrorKind) *domain.Error {
	t.Helper()
	require.Error(t, err)
	var de *domain.Error
	require.True(t, errors.As(err, &de), "expected *domain.Error, got %T: %v", err, err)
	require.Equal(t, kind, de.Kind, "error: %v", err)
	return de
}

func ptr[T any](v T) *T { return &v }
