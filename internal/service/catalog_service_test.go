package service

import (
	"context"
	"strings"
	"testing"

	"alcyxob/gym-routines/internal/domain"
	"alcyxob/gym-routines/internal/platform/logger"
	"alcyxob/gym-routines/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestListExercisesFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	beginner := domain.DifficultyBeginner

	tests := []struct {
		name   string
		filter domain.ExerciseFilter
		want   []string
	}{
		{"no filter", domain.ExerciseFilter{}, []string{f.bench.Name, f.fly.Name, f.squat.Name}},
		{"muscle group", domain.ExerciseFilter{MuscleGroupID: &f.chest.ID}, []string{f.bench.Name, f.fly.Name}},
		{"group and difficulty", domain.ExerciseFilter{MuscleGroupID: &f.chest.ID, Difficulty: &beginner}, []string{f.fly.Name}},
		{"search is case insensitive", domain.ExerciseFilter{Search: "BANCA"}, []string{f.bench.Name}},
		{"no match", domain.ExerciseFilter{Search: "remo"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.catalog.ListExercises(ctx, tt.filter)
			require.NoError(t, err)
			names := make([]string, 0, len(got))
			for _, ex := range got {
				names = append(names, ex.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestListExercisesRejectsUnknownDifficulty(t *testing.T) {
	f := newFixture(t)
	_, err := f.catalog.ListExercises(context.Background(), domain.ExerciseFilter{Difficulty: ptr(domain.Difficulty("elite"))})
	requireKind(t, err, domain.KindValidation)
}

func TestDeactivatedExerciseStillResolves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustRoutine(t, "Push", entry(f.bench.ID, domain.Monday))

	require.NoError(t, f.catalog.DeactivateExercise(ctx, f.bench.ID))

	_, err := f.catalog.GetExercise(ctx, f.bench.ID)
	requireKind(t, err, domain.KindNotFound)

	resolved, err := f.catalog.ResolveExercise(ctx, f.bench.ID)
	require.NoError(t, err)
	assert.Equal(t, f.bench.Name, resolved.Name)
	assert.False(t, resolved.IsActive)

	listed, err := f.catalog.ListExercises(ctx, domain.ExerciseFilter{})
	require.NoError(t, err)
	for _, ex := range listed {
		assert.NotEqual(t, f.bench.ID, ex.ID)
	}
}

func TestCreateExerciseValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   ExerciseInput
	}{
		{"empty name", ExerciseInput{Name: "  ", MuscleGroupID: f.chest.ID}},
		{"unknown difficulty", ExerciseInput{Name: "x", MuscleGroupID: f.chest.ID, Difficulty: "elite"}},
		{"missing group", ExerciseInput{Name: "x"}},
		{"unknown group", ExerciseInput{Name: "x", MuscleGroupID: primitive.NewObjectID()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.catalog.CreateExercise(ctx, f.trainer, tt.in)
			requireKind(t, err, domain.KindValidation)
		})
	}
}

func TestCreateExerciseDefaults(t *testing.T) {
	f := newFixture(t)
	ex, err := f.catalog.CreateExercise(context.Background(), f.trainer, ExerciseInput{Name: "Plancha", MuscleGroupID: f.chest.ID})
	require.NoError(t, err)
	assert.True(t, ex.IsActive)
	assert.Equal(t, domain.DifficultyBeginner, ex.Difficulty)
	require.NotNil(t, ex.CreatedBy)
	assert.Equal(t, f.trainer, *ex.CreatedBy)
}

func TestUpdateExercise(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	updated, err := f.catalog.UpdateExercise(ctx, f.fly.ID, ExerciseInput{
		Name:            "Aperturas en polea",
		MuscleGroupID:   f.chest.ID,
		Difficulty:      domain.DifficultyIntermediate,
		EquipmentNeeded: "Polea",
	})
	require.NoError(t, err)
	assert.Equal(t, "Aperturas en polea", updated.Name)

	_, err = f.catalog.UpdateExercise(ctx, primitive.NewObjectID(), ExerciseInput{Name: "x", MuscleGroupID: f.chest.ID})
	requireKind(t, err, domain.KindNotFound)
}

func TestMuscleGroups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.CreateMuscleGroup(ctx, "pecho", "")
	requireKind(t, err, domain.KindConflict)

	core, err := f.catalog.CreateMuscleGroup(ctx, "Core", "Abdominales")
	require.NoError(t, err)

	groups, err := f.catalog.ListMuscleGroups(ctx)
	require.NoError(t, err)
	var names []string
	for _, g := range groups {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"Core", "Pecho", "Piernas"}, names)

	renamed, err := f.catalog.UpdateMuscleGroup(ctx, core.ID, "Abdomen", "")
	require.NoError(t, err)
	assert.Equal(t, "Abdomen", renamed.Name)

	err = f.catalog.DeleteMuscleGroup(ctx, f.chest.ID)
	de := requireKind(t, err, domain.KindFailedPrecondition)
	assert.Equal(t, int64(2), de.Details["exercise_count"])

	require.NoError(t, f.catalog.DeleteMuscleGroup(ctx, core.ID))
	_, err = f.catalog.GetMuscleGroup(ctx, core.ID)
	requireKind(t, err, domain.KindNotFound)
}

func TestRequestMediaUploadURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	up, err := f.catalog.RequestMediaUploadURL(ctx, f.bench.ID, "video/mp4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(up.ObjectKey, "exercises/"+f.bench.ID.Hex()+"/video/"), up.ObjectKey)
	assert.Equal(t, "https://media.test/put/"+up.ObjectKey, up.UploadURL)

	urls, err := f.catalog.MediaDownloadURLs(ctx, f.bench.ID)
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.Equal(t, up.ObjectKey, urls[0].ObjectKey)

	_, err = f.catalog.RequestMediaUploadURL(ctx, f.bench.ID, "application/pdf")
	requireKind(t, err, domain.KindValidation)

	_, err = f.catalog.RequestMediaUploadURL(ctx, primitive.NewObjectID(), "image/png")
	requireKind(t, err, domain.KindNotFound)
}

func TestMediaWithoutStorage(t *testing.T) {
	catalog := NewCatalogService(memory.NewMuscleGroupRepository(), memory.NewExerciseRepository(), nil, logger.Nop())
	_, err := catalog.RequestMediaUploadURL(context.Background(), primitive.NewObjectID(), "image/png")
	requireKind(t, err, domain.KindFailedPrecondition)
}

const seedYAML = `
muscle_groups:
  - name: Pecho
    description: Músculos pectorales mayor y menor
    exercises:
      - name: Press de banca plano
        difficulty: intermediate
        equipment: Barra, banco plano
        instructions: Acostado en banco plano, bajar barra al pecho y empujar hacia arriba.
      - name: Press inclinado con mancuernas
        difficulty: intermediate
        equipment: Mancuernas, banco inclinado
  - name: Core
    description: Abdominales y oblicuos
    exercises:
      - name: Plancha abdominal
        difficulty: beginner
        equipment: Ninguno
`

func TestSeedCatalogIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seed, err := DecodeCatalogSeed(strings.NewReader(seedYAML))
	require.NoError(t, err)
	require.Len(t, seed.MuscleGroups, 2)

	first, err := f.catalog.SeedCatalog(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, &SeedReport{GroupsCreated: 1, GroupsExisting: 1, ExercisesCreated: 2, ExercisesExisting: 1}, first)

	second, err := f.catalog.SeedCatalog(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, &SeedReport{GroupsExisting: 2, ExercisesExisting: 3}, second)

	core, err := f.groups.GetByName(ctx, "core")
	require.NoError(t, err)
	plank, err := f.exercises.FindByName(ctx, core.ID, "Plancha abdominal")
	require.NoError(t, err)
	assert.Equal(t, "Ninguno", plank.EquipmentNeeded)
}

func TestDecodeCatalogSeedRejectsUnknownFields(t *testing.T) {
	_, err := DecodeCatalogSeed(strings.NewReader("muscle_groups:\n  - name: X\n    colour: red\n"))
	assert.Error(t, err)
}

func TestSeedCatalogRejectsBadDifficulty(t *testing.T) {
	f := newFixture(t)
	seed := CatalogSeed{MuscleGroups: []MuscleGroupSeed{{
		Name:      "Cardio",
		Exercises: []ExerciseSeed{{Name: "Caminadora", Difficulty: "extreme"}},
	}}}
	_, err := f.catalog.SeedCatalog(context.Background(), seed)
	requireKind(t, err, domain.KindValidation)
}
