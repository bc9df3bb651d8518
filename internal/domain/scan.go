// internal/domain/scan.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MuscleGroup identifies a scored body region.
type MuscleGroup string

const (
	MuscleChest     MuscleGroup = "chest"
	MuscleBack      MuscleGroup = "back"
	MuscleShoulders MuscleGroup = "shoulders"
	MuscleArms      MuscleGroup = "arms"
	MuscleAbs       MuscleGroup = "abs"
	MuscleLegs      MuscleGroup = "legs"
)

// AllMuscleGroups lists every scorable region, used when iterating a
// provider payload so unknown keys are ignored.
var AllMuscleGroups = []MuscleGroup{
	MuscleChest, MuscleBack, MuscleShoulders, MuscleArms, MuscleAbs, MuscleLegs,
}

// ScoreNotVisible marks a muscle group the vision provider could not
// observe in the submitted photos. Never replaced with a guessed number.
const ScoreNotVisible = -1

// ScanAnalysis is the normalized, bounded result of a physique analysis.
// All numeric fields are clamped into [0,100] by the normalizer before a
// value of this type exists; Tier is always derived locally from Score.
// Immutable once stored.
type ScanAnalysis struct {
	Valid           bool                `bson:"valid" json:"valid"`
	RejectionReason string              `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	Score           int                 `bson:"score" json:"score"`
	Tier            TierLabel           `bson:"tier" json:"tier"`
	MuscleScores    map[MuscleGroup]int `bson:"muscleScores,omitempty" json:"muscleScores,omitempty"`
	WeakPoints      []MuscleGroup       `bson:"weakPoints,omitempty" json:"weakPoints,omitempty"`
	StrongPoints    []MuscleGroup       `bson:"strongPoints,omitempty" json:"strongPoints,omitempty"`
	Symmetry        int                 `bson:"symmetry" json:"symmetry"`
	Notes           string              `bson:"notes,omitempty" json:"notes,omitempty"`
	AIPowered       bool                `bson:"aiPowered" json:"aiPowered"`
}

// ScanStatus tracks whether a submission was accepted into the user's
// scan history.
type ScanStatus string

const (
	ScanAccepted ScanStatus = "accepted"
	ScanRejected ScanStatus = "rejected"
)

// Scan records a single physique submission. The photo files live in S3;
// only their object keys are stored here. The most recent accepted scan's
// front image is the reference for the next submission's identity check.
type Scan struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	FrontImageKey   string             `bson:"frontImageKey" json:"-"`
	BackImageKey    string             `bson:"backImageKey" json:"-"`
	Status          ScanStatus         `bson:"status" json:"status"`
	Analysis        *ScanAnalysis      `bson:"analysis,omitempty" json:"analysis,omitempty"`
	RejectionReason string             `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}
