// internal/domain/plan.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DayStatus type for a training day's lifecycle within the week.
type DayStatus string

const (
	DayUpcoming DayStatus = "upcoming"
	DayToday    DayStatus = "today"
	DayDone     DayStatus = "done" // terminal for the week
)

// Plan shape limits enforced by the generator's repair pass.
const (
	MinPlanDays      = 3
	MaxPlanDays      = 7
	MinExerciseSteps = 3
)

// Exercise is a single prescribed movement inside a training day.
type Exercise struct {
	ID             string        `bson:"id" json:"id"`
	Name           string        `bson:"name" json:"name"`
	SetScheme      string        `bson:"setScheme" json:"setScheme"` // e.g., "4x8-10"
	Steps          []string      `bson:"steps" json:"steps"`         // always >= MinExerciseSteps once stored
	TargetsWeak    bool          `bson:"targetsWeak" json:"targetsWeak"`
	Compound       bool          `bson:"compound" json:"compound"`
	PrimaryMuscles []MuscleGroup `bson:"primaryMuscles,omitempty" json:"primaryMuscles,omitempty"`
	Completed      bool          `bson:"completed" json:"completed"`
}

// Day is one training day of the current week.
type Day struct {
	Index         int           `bson:"index" json:"index"`
	Status        DayStatus     `bson:"status" json:"status"`
	Focus         string        `bson:"focus,omitempty" json:"focus,omitempty"` // e.g., "Legs & Core"
	TargetMuscles []MuscleGroup `bson:"targetMuscles,omitempty" json:"targetMuscles,omitempty"`
	Exercises     []Exercise    `bson:"exercises" json:"exercises"`
}

// HistoryEntry preserves a completed day's work for progressive overload.
// Exercises are copied verbatim at completion time.
type HistoryEntry struct {
	WeekNumber    int           `bson:"weekNumber" json:"weekNumber"`
	DayIndex      int           `bson:"dayIndex" json:"dayIndex"`
	TargetMuscles []MuscleGroup `bson:"targetMuscles,omitempty" json:"targetMuscles,omitempty"`
	Exercises     []Exercise    `bson:"exercises" json:"exercises"`
	CompletedAt   time.Time     `bson:"completedAt" json:"completedAt"`
}

// TrainingPlan is a user's single active plan document. The current
// week's days are replaced wholesale on rollover; prior weeks survive in
// CompletedHistory. Exactly one plan document exists per user; it is
// superseded in place, never duplicated.
//
// Invariants (maintained by the plan service, never by callers):
//   - len(Days) in [MinPlanDays, MaxPlanDays]
//   - at most one day has status "today"; a freshly created or rolled
//     week forces day 0 to "today"
//   - WeekNumber >= 1 and only increments on full-week completion
type TrainingPlan struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID `bson:"userId" json:"userId"`
	WeekID           string             `bson:"weekId" json:"weekId"`
	WeekNumber       int                `bson:"weekNumber" json:"weekNumber"`
	Mission          string             `bson:"mission,omitempty" json:"mission,omitempty"`
	AIPowered        bool               `bson:"aiPowered" json:"aiPowered"`
	Days             []Day              `bson:"days" json:"days"`
	CompletedHistory []HistoryEntry     `bson:"completedHistory,omitempty" json:"completedHistory,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// TodayIndex returns the index of the day currently marked "today", or
// -1 if no day is (all done, or mid-transition).
func (p *TrainingPlan) TodayIndex() int {
	for i := range p.Days {
		if p.Days[i].Status == DayToday {
			return i
		}
	}
	return -1
}

// AllDone reports whether every day of the current week is completed.
func (p *TrainingPlan) AllDone() bool {
	for i := range p.Days {
		if p.Days[i].Status != DayDone {
			return false
		}
	}
	return len(p.Days) > 0
}
