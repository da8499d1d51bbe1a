package mongo

import (
	"alcyxob/gym-routines/internal/domain"
	"alcyxob/gym-routines/internal/repository"
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const exerciseCollectionName = "exercises"

// mongoExerciseRepository implements repository.ExerciseRepository
type mongoExerciseRepository struct {
	collection *mongo.Collection
}

// NewMongoExerciseRepository creates a new Exercise repository backed by MongoDB.
func NewMongoExerciseRepository(db *mongo.Database) repository.ExerciseRepository {
	return &mongoExerciseRepository{
		collection: db.Collection(exerciseCollectionName),
	}
}

// Create inserts a new exercise into the catalog.
func (r *mongoExerciseRepository) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.Name == "" || exercise.MuscleGroupID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("exercise name and muscle group are required")
	}

	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, exercise)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves an exercise by its ID, active or not.
func (r *mongoExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	var exercise domain.Exercise
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&exercise)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &exercise, nil
}

// GetByIDs resolves a batch of ids; ids that do not exist are absent from the map.
func (r *mongoExerciseRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.Exercise, error) {
	out := make(map[primitive.ObjectID]domain.Exercise, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var exercises []domain.Exercise
	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	for _, ex := range exercises {
		out[ex.ID] = ex
	}
	return out, nil
}

// List retrieves active exercises matching every supplied filter, in id order.
func (r *mongoExerciseRepository) List(ctx context.Context, f domain.ExerciseFilter) ([]domain.Exercise, error) {
	filter := bson.M{"isActive": true}
	if f.MuscleGroupID != nil {
		filter["muscleGroupId"] = *f.MuscleGroupID
	}
	if f.Difficulty != nil {
		filter["difficulty"] = *f.Difficulty
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
			bson.M{"equipmentNeeded": pattern},
		}
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var exercises []domain.Exercise
	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return exercises, nil
}

// FindByName looks an exercise up by its name within a muscle group (case-insensitive).
func (r *mongoExerciseRepository) FindByName(ctx context.Context, muscleGroupID primitive.ObjectID, name string) (*domain.Exercise, error) {
	var exercise domain.Exercise
	filter := bson.M{
		"muscleGroupId": muscleGroupID,
		"name":          primitive.Regex{Pattern: "^" + regexp.QuoteMeta(name) + "$", Options: "i"},
	}
	err := r.collection.FindOne(ctx, filter).Decode(&exercise)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &exercise, nil
}

// CountByMuscleGroup counts exercises (active or not) referencing a muscle group.
func (r *mongoExerciseRepository) CountByMuscleGroup(ctx context.Context, muscleGroupID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"muscleGroupId": muscleGroupID})
}

// Update modifies the descriptive fields of an exercise.
// isActive, createdBy and media keys have their own write paths.
func (r *mongoExerciseRepository) Update(ctx context.Context, exercise *domain.Exercise) error {
	if exercise.ID == primitive.NilObjectID {
		return errors.New("exercise ID is required for update")
	}
	exercise.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":            exercise.Name,
			"description":     exercise.Description,
			"instructions":    exercise.Instructions,
			"muscleGroupId":   exercise.MuscleGroupID,
			"difficulty":      exercise.Difficulty,
			"equipmentNeeded": exercise.EquipmentNeeded,
			"media.videoUrl":  exercise.Media.VideoURL,
			"media.imageUrl":  exercise.Media.ImageURL,
			"updatedAt":       exercise.UpdatedAt,
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": exercise.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetActive flips the soft-delete flag. Nothing is ever purged.
func (r *mongoExerciseRepository) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	update := bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddMediaKey records an uploaded media object against the exercise.
func (r *mongoExerciseRepository) AddMediaKey(ctx context.Context, id primitive.ObjectID, key string) error {
	update := bson.M{
		"$addToSet": bson.M{"media.mediaKeys": key},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureExerciseIndexes creates necessary indexes for the exercises collection.
func EnsureExerciseIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// Catalog listing: active exercises filtered by muscle group / difficulty
			Keys:    bson.D{{Key: "isActive", Value: 1}, {Key: "muscleGroupId", Value: 1}, {Key: "difficulty", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "muscleGroupId", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
