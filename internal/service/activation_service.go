package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alcyxob/gym-routines/internal/domain"
	"alcyxob/gym-routines/internal/notify"
	"alcyxob/gym-routines/internal/platform/logger"
	"alcyxob/gym-routines/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotifyResult reports the outcome of NotifyMember. The stamp is final even
// when delivery failed; DeliveryErr is advisory.
type NotifyResult struct {
	Routine     *domain.WorkoutRoutine
	NotifiedAt  time.Time
	DeliveryErr error
}

// Delivered reports whether the notifier accepted the message.
func (r *NotifyResult) Delivered() bool { return r.DeliveryErr == nil }

// ActivationService switches a member's active routine and hands the new
// routine over to the member.
type ActivationService interface {
	ActivateRoutine(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutRoutine, error)
	NotifyMember(ctx context.Context, id primitive.ObjectID) (*NotifyResult, error)
}

type activationService struct {
	routineRepo repository.RoutineRepository
	notifier    notify.Notifier
	log         *logger.Logger
	now         func() time.Time
}

// NewActivationService creates a new instance of activationService.
func NewActivationService(routineRepo repository.RoutineRepository, notifier notify.Notifier, log *logger.Logger) ActivationService {
	return &activationService{
		routineRepo: routineRepo,
		notifier:    notifier,
		log:         log.With("service", "ActivationService"),
		now:         time.Now,
	}
}

func alreadyActive(op string, routine *domain.WorkoutRoutine) error {
	return domain.Conflict(op, "routine %s is already active", routine.ID.Hex()).
		WithDetail("is_active", true)
}

// ActivateRoutine makes id the member's only active routine in one atomic step.
func (s *activationService) ActivateRoutine(ctx context.Context, id primitive.ObjectID) (_ *domain.WorkoutRoutine, err error) {
	const op = "ActivateRoutine"
	ctx, span := startSpan(ctx, "ActivationService.ActivateRoutine")
	defer func() { endSpan(span, err) }()

	routine, err := s.routineRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(op, "routine", id, err)
	}
	if routine.IsActive {
		return nil, alreadyActive(op, routine)
	}

	previous, err := s.routineRepo.GetActiveByMember(ctx, routine.MemberID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.routineRepo.Activate(ctx, id, routine.MemberID); err != nil {
		if errors.Is(err, repository.ErrAlreadyActive) {
			return nil, alreadyActive(op, routine)
		}
		return nil, notFoundOr(op, "routine", id, err)
	}

	activated, err := s.routineRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(op, "routine", id, err)
	}
	kv := []interface{}{"routine_id", id.Hex(), "member_id", routine.MemberID.Hex()}
	if previous != nil {
		kv = append(kv, "deactivated_routine_id", previous.ID.Hex())
	}
	s.log.Info("routine activated", kv...)
	return activated, nil
}

// NotifyMember tells the member about their active routine, at most once.
func (s *activationService) NotifyMember(ctx context.Context, id primitive.ObjectID) (_ *NotifyResult, err error) {
	const op = "NotifyMember"
	ctx, span := startSpan(ctx, "ActivationService.NotifyMember")
	defer func() { endSpan(span, err) }()

	routine, err := s.routineRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(op, "routine", id, err)
	}
	if !routine.IsActive {
		return nil, domain.Conflict(op, "routine %s is not active", id.Hex()).WithDetail("is_active", false)
	}
	if routine.NotifiedAt != nil {
		return nil, alreadyNotified(op, routine)
	}

	at := s.now().UTC()
	if err := s.routineRepo.MarkNotified(ctx, id, at); err != nil {
		if errors.Is(err, repository.ErrAlreadyNotified) {
			// Lost the race to a concurrent call; report the winner's stamp.
			current, getErr := s.routineRepo.GetByID(ctx, id)
			if getErr != nil {
				return nil, notFoundOr(op, "routine", id, getErr)
			}
			return nil, alreadyNotified(op, current)
		}
		return nil, notFoundOr(op, "routine", id, err)
	}
	routine.NotifiedAt = &at

	result := &NotifyResult{Routine: routine, NotifiedAt: at}
	message := fmt.Sprintf("Your trainer has assigned you a new routine: **%s**. Open the app to see this week's plan.", routine.Name)
	if err := s.notifier.Notify(ctx, routine.MemberID, routine.ID, message); err != nil {
		result.DeliveryErr = err
		s.log.Warn("notification delivery failed", "routine_id", id.Hex(), "member_id", routine.MemberID.Hex(), "error", err)
		return result, nil
	}
	s.log.Info("member notified", "routine_id", id.Hex(), "member_id", routine.MemberID.Hex())
	return result, nil
}

func alreadyNotified(op string, routine *domain.WorkoutRoutine) error {
	e := domain.Conflict(op, "member was already notified about routine %s", routine.ID.Hex())
	if routine.NotifiedAt != nil {
		e = e.WithDetail("notified_at", routine.NotifiedAt.UTC())
	}
	return e
}
