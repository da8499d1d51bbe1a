package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"alcyxob/gym-routines/internal/domain"
	"alcyxob/gym-routines/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"gopkg.in/yaml.v3"
)

// CatalogSeed is the YAML document loaded by `catalogctl seed`.
type CatalogSeed struct {
	MuscleGroups []MuscleGroupSeed `yaml:"muscle_groups"`
}

type MuscleGroupSeed struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Exercises   []ExerciseSeed `yaml:"exercises"`
}

type ExerciseSeed struct {
	Name         string            `yaml:"name"`
	Description  string            `yaml:"description"`
	Instructions string            `yaml:"instructions"`
	Difficulty   domain.Difficulty `yaml:"difficulty"`
	Equipment    string            `yaml:"equipment"`
	VideoURL     string            `yaml:"video_url"`
	ImageURL     string            `yaml:"image_url"`
}

// SeedReport counts what a seed run created versus found already present.
type SeedReport struct {
	GroupsCreated     int `json:"groupsCreated"`
	GroupsExisting    int `json:"groupsExisting"`
	ExercisesCreated  int `json:"exercisesCreated"`
	ExercisesExisting int `json:"exercisesExisting"`
}

// DecodeCatalogSeed parses a seed document, rejecting unknown keys.
func DecodeCatalogSeed(r io.Reader) (CatalogSeed, error) {
	var seed CatalogSeed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return CatalogSeed{}, fmt.Errorf("decode catalog seed: %w", err)
	}
	return seed, nil
}

// SeedCatalog creates the muscle groups and exercises in seed that do not
// exist yet. Groups match by name, exercises by name within their group;
// existing records are left untouched, so running it twice is harmless.
func (s *catalogService) SeedCatalog(ctx context.Context, seed CatalogSeed) (*SeedReport, error) {
	const op = "SeedCatalog"
	report := &SeedReport{}

	for gi, gs := range seed.MuscleGroups {
		name := strings.TrimSpace(gs.Name)
		if name == "" {
			return report, domain.Validation(op, "muscle group #%d has no name", gi)
		}

		group, err := s.groupRepo.GetByName(ctx, name)
		switch {
		case err == nil:
			report.GroupsExisting++
		case errors.Is(err, repository.ErrNotFound):
			group, err = s.CreateMuscleGroup(ctx, name, gs.Description)
			if err != nil {
				return report, err
			}
			report.GroupsCreated++
		default:
			return report, fmt.Errorf("%s: %w", op, err)
		}

		for _, es := range gs.Exercises {
			_, err := s.exerciseRepo.FindByName(ctx, group.ID, strings.TrimSpace(es.Name))
			if err == nil {
				report.ExercisesExisting++
				continue
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return report, fmt.Errorf("%s: %w", op, err)
			}
			description := es.Description
			if description == "" {
				description = es.Instructions
			}
			_, err = s.CreateExercise(ctx, primitive.NilObjectID, ExerciseInput{
				Name:            es.Name,
				Description:     description,
				Instructions:    es.Instructions,
				MuscleGroupID:   group.ID,
				Difficulty:      es.Difficulty,
				EquipmentNeeded: es.Equipment,
				VideoURL:        es.VideoURL,
				ImageURL:        es.ImageURL,
			})
			if err != nil {
				return report, fmt.Errorf("seed exercise %q: %w", es.Name, err)
			}
			report.ExercisesCreated++
		}
	}

	s.log.Info("catalog seeded",
		"groups_created", report.GroupsCreated,
		"exercises_created", report.ExercisesCreated,
		"exercises_existing", report.ExercisesExisting)
	return report, nil
}
