// internal/domain/exercise.go
package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Difficulty grades an exercise in the catalog.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Valid reports whether d is one of the known difficulty levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// MuscleGroup is static reference data used to classify exercises.
type MuscleGroup struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"` // Unique, e.g. "Chest", "Legs"
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ExerciseMedia holds instructional media references for an exercise.
// URLs point at external hosts; MediaKeys are object keys in our own bucket.
type ExerciseMedia struct {
	VideoURL  string   `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	ImageURL  string   `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	MediaKeys []string `bson:"mediaKeys,omitempty" json:"mediaKeys,omitempty"`
}

// Exercise represents a single exercise definition in the catalog.
// Exercises are never removed; deactivation hides them from listings while
// routine entries and logs that reference them keep resolving.
type Exercise struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name            string              `bson:"name" json:"name"`
	Description     string              `bson:"description,omitempty" json:"description,omitempty"`
	Instructions    string              `bson:"instructions,omitempty" json:"instructions,omitempty"` // Step by step execution
	MuscleGroupID   primitive.ObjectID  `bson:"muscleGroupId" json:"muscleGroupId"`
	Difficulty      Difficulty          `bson:"difficulty" json:"difficulty"`
	EquipmentNeeded string              `bson:"equipmentNeeded,omitempty" json:"equipmentNeeded,omitempty"` // e.g. "Barbell, bench"
	Media           ExerciseMedia       `bson:"media" json:"media"`
	IsActive        bool                `bson:"isActive" json:"isActive"`
	CreatedBy       *primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ExerciseFilter narrows a catalog listing. Zero-valued fields impose no
// constraint; all set fields must match.
type ExerciseFilter struct {
	MuscleGroupID *primitive.ObjectID
	Difficulty    *Difficulty
	Search        string
}

// Matches applies the filter to an exercise. Inactive exercises never match.
func (f ExerciseFilter) Matches(ex *Exercise) bool {
	if ex == nil || !ex.IsActive {
		return false
	}
	if f.MuscleGroupID != nil && ex.MuscleGroupID != *f.MuscleGroupID {
		return false
	}
	if f.Difficulty != nil && ex.Difficulty != *f.Difficulty {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		hay := strings.ToLower(ex.Name + "\n" + ex.Description + "\n" + ex.EquipmentNeeded)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}
