package service

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/gym-routines/internal/domain"
	"alcyxob/gym-routines/internal/observability"
	"alcyxob/gym-routines/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// startSpan opens a span named after the service operation.
func startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return observability.Tracer().Start(ctx, op)
}

// endSpan records err on span and ends it. Use with a named error return.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domain.KindOf(err)))
	}
	span.End()
}

// notFoundOr maps repository.ErrNotFound to a NotFound error naming the
// entity, and wraps anything else with op.
func notFoundOr(op, what string, id primitive.ObjectID, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NotFound(op, "%s %s not found", what, id.Hex())
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireID(op, field string, id primitive.ObjectID) error {
	if id == primitive.NilObjectID {
		return domain.Validation(op, "%s is required", field)
	}
	return nil
}
