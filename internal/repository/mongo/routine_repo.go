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

const routineCollectionName = "workout_routines"

// mongoRoutineRepository implements repository.RoutineRepository.
// Exercise entries are embedded in the routine document, so deleting a
// routine takes its schedule with it.
type mongoRoutineRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoRoutineRepository creates a new Routine repository.
func NewMongoRoutineRepository(db *mongo.Database) repository.RoutineRepository {
	return &mongoRoutineRepository{
		client:     db.Client(),
		collection: db.Collection(routineCollectionName),
	}
}

func (r *mongoRoutineRepository) Create(ctx context.Context, routine *domain.WorkoutRoutine) (primitive.ObjectID, error) {
	if routine.MemberID == primitive.NilObjectID || routine.TrainerID == primitive.NilObjectID || routine.Name == "" {
		return primitive.NilObjectID, errors.New("routine requires memberId, trainerId, and name")
	}

	routine.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	routine.CreatedAt = now
	routine.UpdatedAt = now
	routine.Version = 1
	if routine.Exercises == nil {
		routine.Exercises = []domain.RoutineExercise{}
	}

	if _, err := r.collection.InsertOne(ctx, routine); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Only the partial index on {memberId, isActive:true} is unique.
			return primitive.NilObjectID, repository.ErrAlreadyActive
		}
		return primitive.NilObjectID, err
	}
	return routine.ID, nil
}

func (r *mongoRoutineRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutRoutine, error) {
	return r.findOne(ctx, bson.M{"_id": id}, nil)
}

func (r *mongoRoutineRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*domain.WorkoutRoutine, error) {
	var routine domain.WorkoutRoutine
	if opts == nil {
		opts = options.FindOne()
	}
	if err := r.collection.FindOne(ctx, filter, opts).Decode(&routine); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &routine, nil
}

func (r *mongoRoutineRepository) list(ctx context.Context, filter bson.M) ([]domain.WorkoutRoutine, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var routines []domain.WorkoutRoutine
	if err = cursor.All(ctx, &routines); err != nil {
		return nil, err
	}
	return routines, nil
}

// ListByMember retrieves a member's routines, newest first.
func (r *mongoRoutineRepository) ListByMember(ctx context.Context, memberID primitive.ObjectID) ([]domain.WorkoutRoutine, error) {
	return r.list(ctx, bson.M{"memberId": memberID})
}

// ListByTrainer retrieves routines authored by a trainer, newest first.
func (r *mongoRoutineRepository) ListByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.WorkoutRoutine, error) {
	return r.list(ctx, bson.M{"trainerId": trainerID})
}

func (r *mongoRoutineRepository) GetActiveByMember(ctx context.Context, memberID primitive.ObjectID) (*domain.WorkoutRoutine, error) {
	return r.findOne(ctx, bson.M{"memberId": memberID, "isActive": true}, nil)
}

// Update is a compare-and-set on the version field.
func (r *mongoRoutineRepository) Update(ctx context.Context, routine *domain.WorkoutRoutine) error {
	if routine.ID == primitive.NilObjectID {
		return errors.New("routine ID is required for update")
	}
	exercises := routine.Exercises
	if exercises == nil {
		exercises = []domain.RoutineExercise{}
	}

	filter := bson.M{"_id": routine.ID, "version": routine.Version}
	update := bson.M{
		"$set": bson.M{
			"name":          routine.Name,
			"description":   routine.Description,
			"goal":          routine.Goal,
			"durationWeeks": routine.DurationWeeks,
			"exercises":     exercises,
			"updatedAt":     time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated domain.WorkoutRoutine
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		*routine = updated
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}
	// Nothing matched: either the routine is gone or the version moved on.
	if _, getErr := r.GetByID(ctx, routine.ID); getErr != nil {
		return getErr
	}
	return repository.ErrVersionConflict
}

func (r *mongoRoutineRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Activate swaps the member's active routine inside a transaction. The
// unique partial index rejects a second concurrent activation at commit, and
// WithTransaction retries it against the new state.
func (r *mongoRoutineRepository) Activate(ctx context.Context, id, memberID primitive.ObjectID) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		target, err := r.findOne(sc, bson.M{"_id": id, "memberId": memberID}, nil)
		if err != nil {
			return nil, err
		}
		if target.IsActive {
			return nil, repository.ErrAlreadyActive
		}

		now := time.Now().UTC()
		_, err = r.collection.UpdateMany(sc,
			bson.M{"memberId": memberID, "isActive": true, "_id": bson.M{"$ne": id}},
			bson.M{"$set": bson.M{"isActive": false, "updatedAt": now}},
		)
		if err != nil {
			return nil, err
		}

		result, err := r.collection.UpdateOne(sc,
			bson.M{"_id": id, "isActive": false},
			bson.M{"$set": bson.M{"isActive": true, "updatedAt": now}},
		)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, repository.ErrAlreadyActive
			}
			return nil, err
		}
		if result.ModifiedCount == 0 {
			return nil, repository.ErrAlreadyActive
		}
		return nil, nil
	})
	return err
}

// MarkNotified stamps notifiedAt only when it is still unset.
func (r *mongoRoutineRepository) MarkNotified(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	stamp := at.UTC()
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "notifiedAt": nil},
		bson.M{"$set": bson.M{"notifiedAt": stamp, "updatedAt": stamp}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return repository.ErrAlreadyNotified
}

// EnsureRoutineIndexes creates necessary indexes for the routines collection.
func EnsureRoutineIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// At most one active routine per member
			Keys: bson.D{{Key: "memberId", Value: 1}},
			Options: options.Index().
				SetName("one_active_per_member").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"isActive": true}),
		},
		{
			Keys:    bson.D{{Key: "memberId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
