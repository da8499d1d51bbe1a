package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"alcyxob/gym-routines/internal/domain"
	"alcyxob/gym-routines/internal/platform/logger"
	"alcyxob/gym-routines/internal/repository"
	"alcyxob/gym-routines/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseInput carries the editable fields of a catalog exercise.
type ExerciseInput struct {
	Name            string
	Description     string
	Instructions    string
	MuscleGroupID   primitive.ObjectID
	Difficulty      domain.Difficulty
	EquipmentNeeded string
	VideoURL        string
	ImageURL        string
}

// MediaUpload is a presigned upload target for one exercise media file.
type MediaUpload struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// MediaURL is a presigned download link for a stored media file.
type MediaURL struct {
	ObjectKey   string `json:"objectKey"`
	DownloadURL string `json:"downloadUrl"`
}

// CatalogService manages muscle groups and exercises.
type CatalogService interface {
	ListExercises(ctx context.Context, filter domain.ExerciseFilter) ([]domain.Exercise, error)
	// GetExercise fails with NotFound for deactivated exercises.
	GetExercise(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	// ResolveExercise returns the exercise even when deactivated, so routine
	// entries and logs keep resolving.
	ResolveExercise(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	ResolveExercises(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.Exercise, error)
	CreateExercise(ctx context.Context, creatorID primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error)
	UpdateExercise(ctx context.Context, id primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error)
	DeactivateExercise(ctx context.Context, id primitive.ObjectID) error

	CreateMuscleGroup(ctx context.Context, name, description string) (*domain.MuscleGroup, error)
	ListMuscleGroups(ctx context.Context) ([]domain.MuscleGroup, error)
	GetMuscleGroup(ctx context.Context, id primitive.ObjectID) (*domain.MuscleGroup, error)
	UpdateMuscleGroup(ctx context.Context, id primitive.ObjectID, name, description string) (*domain.MuscleGroup, error)
	DeleteMuscleGroup(ctx context.Context, id primitive.ObjectID) error

	RequestMediaUploadURL(ctx context.Context, exerciseID primitive.ObjectID, contentType string) (*MediaUpload, error)
	MediaDownloadURLs(ctx context.Context, exerciseID primitive.ObjectID) ([]MediaURL, error)

	SeedCatalog(ctx context.Context, seed CatalogSeed) (*SeedReport, error)
}

type catalogService struct {
	groupRepo    repository.MuscleGroupRepository
	exerciseRepo repository.ExerciseRepository
	fileStorage  storage.FileStorage // nil when media storage is not configured
	log          *logger.Logger
}

// NewCatalogService creates a new instance of catalogService. fileStorage may be nil.
func NewCatalogService(groupRepo repository.MuscleGroupRepository, exerciseRepo repository.ExerciseRepository, fileStorage storage.FileStorage, log *logger.Logger) CatalogService {
	return &catalogService{
		groupRepo:    groupRepo,
		exerciseRepo: exerciseRepo,
		fileStorage:  fileStorage,
		log:          log.With("service", "CatalogService"),
	}
}

func (s *catalogService) ListExercises(ctx context.Context, filter domain.ExerciseFilter) ([]domain.Exercise, error) {
	if filter.Difficulty != nil && !filter.Difficulty.Valid() {
		return nil, domain.Validation("ListExercises", "unknown difficulty %q", *filter.Difficulty)
	}
	exercises, err := s.exerciseRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ListExercises: %w", err)
	}
	if exercises == nil {
		exercises = []domain.Exercise{}
	}
	return exercises, nil
}

func (s *catalogService) GetExercise(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	const op = "GetExercise"
	exercise, err := s.exerciseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(op, "exercise", id, err)
	}
	if !exercise.IsActive {
		return nil, domain.NotFound(op, "exercise %s not found", id.Hex()).WithDetail("is_active", false)
	}
	return exercise, nil
}

func (s *catalogService) ResolveExercise(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr("ResolveExercise", "exercise", id, err)
	}
	return exercise, nil
}

func (s *catalogService) ResolveExercises(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.Exercise, error) {
	found, err := s.exerciseRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("ResolveExercises: %w", err)
	}
	return found, nil
}

func (s *catalogService) validateExercise(ctx context.Context, op string, in *ExerciseInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return domain.Validation(op, "exercise name is required")
	}
	if in.Difficulty == "" {
		in.Difficulty = domain.DifficultyBeginner
	}
	if !in.Difficulty.Valid() {
		return domain.Validation(op, "unknown difficulty %q", in.Difficulty)
	}
	if err := requireID(op, "muscleGroupId", in.MuscleGroupID); err != nil {
		return err
	}
	if _, err := s.groupRepo.GetByID(ctx, in.MuscleGroupID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Validation(op, "muscle group %s does not exist", in.MuscleGroupID.Hex())
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreateExercise adds an active exercise to the catalog.
func (s *catalogService) CreateExercise(ctx context.Context, creatorID primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error) {
	const op = "CreateExercise"
	if err := s.validateExercise(ctx, op, &in); err != nil {
		return nil, err
	}

	exercise := &domain.Exercise{
		Name:            in.Name,
		Description:     in.Description,
		Instructions:    in.Instructions,
		MuscleGroupID:   in.MuscleGroupID,
		Difficulty:      in.Difficulty,
		EquipmentNeeded: in.EquipmentNeeded,
		Media:           domain.ExerciseMedia{VideoURL: in.VideoURL, ImageURL: in.ImageURL},
		IsActive:        true,
	}
	if creatorID != primitive.NilObjectID {
		exercise.CreatedBy = &creatorID
	}

	id, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("exercise created", "exercise_id", id.Hex(), "name", exercise.Name)
	return s.exerciseRepo.GetByID(ctx, id)
}

func (s *catalogService) UpdateExercise(ctx context.Context, id primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error) {
	const op = "UpdateExercise"
	if err := s.validateExercise(ctx, op, &in); err != nil {
		return nil, err
	}
	existing, err := s.exerciseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(op, "exercise", id, err)
	}

	existing.Name = in.Name
	existing.Description = in.Description
	existing.Instructions = in.Instructions
	existing.MuscleGroupID = in.MuscleGroupID
	existing.Difficulty = in.Difficulty
	existing.EquipmentNeeded = in.EquipmentNeeded
	existing.Media.VideoURL = in.VideoURL
	existing.Media.ImageURL = in.ImageURL

	if err := s.exerciseRepo.Update(ctx, existing); err != nil {
		return nil, notFoundOr(op, "exercise", id, err)
	}
	return existing, nil
}

// DeactivateExercise hides the exercise from listings. It stays resolvable.
func (s *catalogService) DeactivateExercise(ctx context.Context, id primitive.ObjectID) error {
	if err := s.exerciseRepo.SetActive(ctx, id, false); err != nil {
		return notFoundOr("DeactivateExercise", "exercise", id, err)
	}
	s.log.Info("exercise deactivated", "exercise_id", id.Hex())
	return nil
}

func (s *catalogService) CreateMuscleGroup(ctx context.Context, name, description string) (*domain.MuscleGroup, error) {
	const op = "CreateMuscleGroup"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validation(op, "muscle group name is required")
	}
	group := &domain.MuscleGroup{Name: name, Description: description}
	if _, err := s.groupRepo.Create(ctx, group); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.Conflict(op, "muscle group %q already exists", name)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return group, nil
}

func (s *catalogService) ListMuscleGroups(ctx context.Context) ([]domain.MuscleGroup, error) {
	groups, err := s.groupRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListMuscleGroups: %w", err)
	}
	if groups == nil {
		groups = []domain.MuscleGroup{}
	}
	return groups, nil
}

func (s *catalogService) GetMuscleGroup(ctx context.Context, id primitive.ObjectID) (*domain.MuscleGroup, error) {
	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr("GetMuscleGroup", "muscle group", id, err)
	}
	return group, nil
}

func (s *catalogService) UpdateMuscleGroup(ctx context.Context, id primitive.ObjectID, name, description string) (*domain.MuscleGroup, error) {
	const op = "UpdateMuscleGroup"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validation(op, "muscle group name is required")
	}
	group, err := s.groupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(op, "muscle group", id, err)
	}
	group.Name = name
	group.Description = description
	if err := s.groupRepo.Update(ctx, group); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.Conflict(op, "muscle group %q already exists", name)
		}
		return nil, notFoundOr(op, "muscle group", id, err)
	}
	return group, nil
}

// DeleteMuscleGroup refuses while any exercise, active or not, references the group.
func (s *catalogService) DeleteMuscleGroup(ctx context.Context, id primitive.ObjectID) error {
	const op = "DeleteMuscleGroup"
	if _, err := s.groupRepo.GetByID(ctx, id); err != nil {
		return notFoundOr(op, "muscle group", id, err)
	}
	n, err := s.exerciseRepo.CountByMuscleGroup(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		return domain.FailedPrecondition(op, "muscle group is referenced by %d exercises", n).
			WithDetail("exercise_count", n)
	}
	if err := s.groupRepo.Delete(ctx, id); err != nil {
		return notFoundOr(op, "muscle group", id, err)
	}
	return nil
}

// RequestMediaUploadURL presigns a PUT for a new image or video of the
// exercise and records the object key against it.
func (s *catalogService) RequestMediaUploadURL(ctx context.Context, exerciseID primitive.ObjectID, contentType string) (*MediaUpload, error) {
	const op = "RequestMediaUploadURL"
	if s.fileStorage == nil {
		return nil, domain.FailedPrecondition(op, "media storage is not configured")
	}
	if !storage.IsMediaContentType(contentType) {
		return nil, domain.Validation(op, "content type %q is not an image or video", contentType)
	}
	if _, err := s.exerciseRepo.GetByID(ctx, exerciseID); err != nil {
		return nil, notFoundOr(op, "exercise", exerciseID, err)
	}

	key := storage.ExerciseMediaKey(exerciseID.Hex(), contentType)
	url, err := s.fileStorage.GeneratePresignedUploadURL(ctx, key, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.exerciseRepo.AddMediaKey(ctx, exerciseID, key); err != nil {
		return nil, notFoundOr(op, "exercise", exerciseID, err)
	}
	return &MediaUpload{UploadURL: url, ObjectKey: key}, nil
}

func (s *catalogService) MediaDownloadURLs(ctx context.Context, exerciseID primitive.ObjectID) ([]MediaURL, error) {
	const op = "MediaDownloadURLs"
	if s.fileStorage == nil {
		return nil, domain.FailedPrecondition(op, "media storage is not configured")
	}
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		return nil, notFoundOr(op, "exercise", exerciseID, err)
	}
	urls := make([]MediaURL, 0, len(exercise.Media.MediaKeys))
	for _, key := range exercise.Media.MediaKeys {
		url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, key, storage.DefaultPresignedURLExpiry)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		urls = append(urls, MediaURL{ObjectKey: key, DownloadURL: url})
	}
	return urls, nil
}
