// internal/domain/asset.go
package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssetPhase names one frame of an exercise demonstration set.
type AssetPhase string

const (
	PhaseStart  AssetPhase = "start"
	PhaseMiddle AssetPhase = "middle"
	PhaseEnd    AssetPhase = "end"
)

// AssetPhases is the fixed generation order. A cache entry is only
// written once all three phases succeeded.
var AssetPhases = []AssetPhase{PhaseStart, PhaseMiddle, PhaseEnd}

// AssetImage is one generated frame, stored in S3 under ObjectKey.
type AssetImage struct {
	Phase     AssetPhase `bson:"phase" json:"phase"`
	ObjectKey string     `bson:"objectKey" json:"-"`
	URL       string     `bson:"url,omitempty" json:"url,omitempty"`
}

// ExerciseAsset is the write-once cache entry for one exercise's
// demonstration images, keyed by the normalized exercise name. The first
// successful full generation wins; later writes for the same name are
// dropped by a unique index.
type ExerciseAsset struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	NormalizedName string             `bson:"normalizedName" json:"normalizedName"`
	ExerciseName   string             `bson:"exerciseName" json:"exerciseName"`
	Images         []AssetImage       `bson:"images" json:"images"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

// NormalizeExerciseName canonicalizes an exercise name for cache keying:
// lowercased, trimmed, inner whitespace collapsed to single hyphens.
func NormalizeExerciseName(name string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	return strings.Join(fields, "-")
}

// placeholder categories, checked in order against the normalized name.
// Shoulder terms come ahead of "press" so "Shoulder Press" and
// "Overhead Press" don't match chest.
var placeholderCategories = []struct {
	keyword  string
	category string
}{
	{"squat", "leg"},
	{"lunge", "leg"},
	{"leg", "leg"},
	{"calf", "leg"},
	{"deadlift", "back"},
	{"row", "back"},
	{"pull", "back"},
	{"shoulder", "shoulder"},
	{"overhead", "shoulder"},
	{"delt", "shoulder"},
	{"raise", "shoulder"},
	{"shrug", "shoulder"},
	{"bench", "chest"},
	{"press", "chest"},
	{"push", "chest"},
	{"fly", "chest"},
	{"curl", "arm"},
	{"extension", "arm"},
	{"dip", "arm"},
	{"crunch", "core"},
	{"plank", "core"},
	{"ab", "core"},
}

// PlaceholderCategory maps an exercise name to the coarse category used
// to pick a deterministic placeholder image while generation is pending.
func PlaceholderCategory(name string) string {
	normalized := NormalizeExerciseName(name)
	for _, pc := range placeholderCategories {
		if strings.Contains(normalized, pc.keyword) {
			return pc.category
		}
	}
	return "general"
}
