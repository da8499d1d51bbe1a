// internal/domain/routine.go
package domain

import (
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Weekday numbers a training day, 1 (Monday) through 7 (Sunday).
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func (d Weekday) Valid() bool { return d >= Monday && d <= Sunday }

func (d Weekday) String() string {
	if !d.Valid() {
		return "Invalid"
	}
	return weekdayNames[d]
}

// RoutineExercise is one scheduled exercise slot within a routine, pinned to a
// weekday and an ordinal position within that day.
type RoutineExercise struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	ExerciseID  primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	DayOfWeek   Weekday            `bson:"dayOfWeek" json:"dayOfWeek"`
	Order       int                `bson:"order" json:"order"` // Zero-based, dense within (routine, day)
	Sets        int                `bson:"sets" json:"sets"`
	Reps        int                `bson:"reps" json:"reps"`
	RestSeconds int                `bson:"restSeconds" json:"restSeconds"`
	WeightKg    *float64           `bson:"weightKg,omitempty" json:"weightKg,omitempty"` // Suggested load, if any
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Problems lists every rule the entry breaks. An empty result means valid.
func (e RoutineExercise) Problems() []string {
	var out []string
	if e.ExerciseID == primitive.NilObjectID {
		out = append(out, "missing exercise reference")
	}
	if !e.DayOfWeek.Valid() {
		out = append(out, "day_of_week must be between 1 and 7")
	}
	if e.Sets <= 0 {
		out = append(out, "sets must be positive")
	}
	if e.Reps <= 0 {
		out = append(out, "reps must be positive")
	}
	if e.RestSeconds < 0 {
		out = append(out, "rest_seconds must not be negative")
	}
	if e.WeightKg != nil && *e.WeightKg < 0 {
		out = append(out, "weight_kg must not be negative")
	}
	return out
}

// WorkoutRoutine is a trainer-authored, multi-week weekly plan assigned to one
// member. The routine document owns its exercise entries.
type WorkoutRoutine struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MemberID      primitive.ObjectID `bson:"memberId" json:"memberId"`   // Owner
	TrainerID     primitive.ObjectID `bson:"trainerId" json:"trainerId"` // Author
	Name          string             `bson:"name" json:"name"`           // e.g. "Phase 1: Hypertrophy"
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Goal          string             `bson:"goal,omitempty" json:"goal,omitempty"`
	DurationWeeks int                `bson:"durationWeeks" json:"durationWeeks"`
	IsActive      bool               `bson:"isActive" json:"isActive"` // At most one per member
	NotifiedAt    *time.Time         `bson:"notifiedAt,omitempty" json:"notifiedAt,omitempty"`
	Exercises     []RoutineExercise  `bson:"exercises" json:"exercises"`
	Version       int64              `bson:"version" json:"version"` // Bumped on every exercise-list write
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Day returns a copy of the entries scheduled on day, in execution order.
func (r *WorkoutRoutine) Day(day Weekday) []RoutineExercise {
	var out []RoutineExercise
	for _, e := range r.Exercises {
		if e.DayOfWeek == day {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b RoutineExercise) int { return a.Order - b.Order })
	return out
}

// CountForDay is the number of entries planned for day.
func (r *WorkoutRoutine) CountForDay(day Weekday) int {
	n := 0
	for _, e := range r.Exercises {
		if e.DayOfWeek == day {
			n++
		}
	}
	return n
}

// FindExercise looks up an entry by its id.
func (r *WorkoutRoutine) FindExercise(id primitive.ObjectID) (RoutineExercise, bool) {
	for _, e := range r.Exercises {
		if e.ID == id {
			return e, true
		}
	}
	return RoutineExercise{}, false
}

// InsertExercise places entry into its day at position, or appends when
// position is nil. Out-of-range positions are clamped. The day is repacked.
func (r *WorkoutRoutine) InsertExercise(entry RoutineExercise, position *int) {
	day := r.Day(entry.DayOfWeek)
	pos := len(day)
	if position != nil {
		pos = min(max(*position, 0), len(day))
	}
	day = slices.Insert(day, pos, entry)
	r.replaceDay(entry.DayOfWeek, day)
}

// RemoveExercise drops the entry at index within day and repacks the rest.
func (r *WorkoutRoutine) RemoveExercise(day Weekday, index int) (RoutineExercise, bool) {
	entries := r.Day(day)
	if index < 0 || index >= len(entries) {
		return RoutineExercise{}, false
	}
	removed := entries[index]
	entries = slices.Delete(entries, index, index+1)
	r.replaceDay(day, entries)
	return removed, true
}

// Repack renumbers every day to a dense 0..n-1 sequence, keeping the
// current relative order.
func (r *WorkoutRoutine) Repack() {
	for d := Monday; d <= Sunday; d++ {
		if r.CountForDay(d) > 0 {
			r.replaceDay(d, r.Day(d))
		}
	}
}

// DenseOrders reports whether every day's orders are exactly 0..n-1.
func (r *WorkoutRoutine) DenseOrders() bool {
	for d := Monday; d <= Sunday; d++ {
		for i, e := range r.Day(d) {
			if e.Order != i {
				return false
			}
		}
	}
	return true
}

func (r *WorkoutRoutine) replaceDay(day Weekday, entries []RoutineExercise) {
	kept := r.Exercises[:0:0]
	for _, e := range r.Exercises {
		if e.DayOfWeek != day {
			kept = append(kept, e)
		}
	}
	for i := range entries {
		entries[i].DayOfWeek = day
		entries[i].Order = i
		kept = append(kept, entries[i])
	}
	sortSchedule(kept)
	r.Exercises = kept
}

// PlannedEntry pairs a new entry with the order the caller asked for, if any.
type PlannedEntry struct {
	Entry RoutineExercise
	Order *int
}

// BuildSchedule assigns dense per-day orders to freshly submitted entries.
// A day whose entries carry no explicit order keeps arrival order. When any
// entry of a day carries one, that day is stably sorted by the supplied
// values (entries without one go last, in arrival order) and renumbered.
func BuildSchedule(planned []PlannedEntry) []RoutineExercise {
	byDay := make(map[Weekday][]PlannedEntry)
	var days []Weekday
	for _, p := range planned {
		d := p.Entry.DayOfWeek
		if _, seen := byDay[d]; !seen {
			days = append(days, d)
		}
		byDay[d] = append(byDay[d], p)
	}

	out := make([]RoutineExercise, 0, len(planned))
	for _, d := range days {
		group := byDay[d]
		slices.SortStableFunc(group, func(a, b PlannedEntry) int {
			switch {
			case a.Order == nil && b.Order == nil:
				return 0
			case a.Order == nil:
				return 1
			case b.Order == nil:
				return -1
			}
			return *a.Order - *b.Order
		})
		for i, p := range group {
			e := p.Entry
			e.Order = i
			out = append(out, e)
		}
	}
	sortSchedule(out)
	return out
}

func sortSchedule(entries []RoutineExercise) {
	slices.SortStableFunc(entries, func(a, b RoutineExercise) int {
		if a.DayOfWeek != b.DayOfWeek {
			return int(a.DayOfWeek) - int(b.DayOfWeek)
		}
		return a.Order - b.Order
	})
}
