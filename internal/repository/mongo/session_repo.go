package mongo

import (
	"alcyxob/gym-routines/internal/domain"
	"alcyxob/gym-routines/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionCollectionName = "workout_sessions"

type mongoSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRepository creates a new Session repository.
func NewMongoSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &mongoSessionRepository{
		collection: db.Collection(sessionCollectionName),
	}
}

func (r *mongoSessionRepository) Create(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error) {
	if session.MemberID == primitive.NilObjectID || session.RoutineID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("session requires memberId and routineId")
	}
	session.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	if session.Logs == nil {
		session.Logs = []domain.ExerciseLog{}
	}

	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		return primitive.NilObjectID, err
	}
	return session.ID, nil
}

func (r *mongoSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error) {
	var session domain.WorkoutSession
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// ListByMember retrieves a member's sessions ordered by date, newest first.
func (r *mongoSessionRepository) ListByMember(ctx context.Context, memberID primitive.ObjectID) ([]domain.WorkoutSession, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"memberId": memberID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []domain.WorkoutSession
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *mongoSessionRepository) CountOpenByRoutine(ctx context.Context, routineID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"routineId": routineID, "completed": false})
}

// AppendLog pushes the entry and bumps the counter in one document update,
// so concurrent logs against the same session never lose a write.
func (r *mongoSessionRepository) AppendLog(ctx context.Context, sessionID primitive.ObjectID, log domain.ExerciseLog) (*domain.WorkoutSession, error) {
	filter := bson.M{"_id": sessionID, "completed": false}
	update := bson.M{
		"$push": bson.M{"logs": log},
		"$inc":  bson.M{"completedExercisesCount": 1},
		"$set": bson.M{
			"status":    domain.SessionInProgress,
			"updatedAt": time.Now().UTC(),
		},
	}
	return r.updateOpen(ctx, sessionID, filter, update)
}

func (r *mongoSessionRepository) Complete(ctx context.Context, sessionID primitive.ObjectID, durationMinutes int, at time.Time) (*domain.WorkoutSession, error) {
	stamp := at.UTC()
	filter := bson.M{"_id": sessionID, "completed": false}
	update := bson.M{"$set": bson.M{
		"completed":       true,
		"status":          domain.SessionCompleted,
		"durationMinutes": durationMinutes,
		"completedAt":     stamp,
		"updatedAt":       stamp,
	}}
	return r.updateOpen(ctx, sessionID, filter, update)
}

// updateOpen applies update to a session that is still open. When nothing
// matches it tells a missing session apart from a completed one.
func (r *mongoSessionRepository) updateOpen(ctx context.Context, id primitive.ObjectID, filter, update bson.M) (*domain.WorkoutSession, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var session domain.WorkoutSession
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&session)
	if err == nil {
		return &session, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, repository.ErrSessionCompleted
}

func (r *mongoSessionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureSessionIndexes creates necessary indexes for the sessions collection.
func EnsureSessionIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "memberId", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "routineId", Value: 1}, {Key: "completed", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
