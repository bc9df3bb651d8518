package service

import (
	"encoding/json"
	"testing"

	"physiq/physiq-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAnalysisClampsScores(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"score": 250,
		"symmetry": -40,
		"muscleScores": {"chest": 180, "legs": 55}
	}`)

	analysis := NormalizeAnalysis(raw)

	assert.True(t, analysis.Valid)
	assert.Equal(t, 100, analysis.Score)
	assert.Equal(t, 0, analysis.Symmetry)
	assert.Equal(t, 100, analysis.MuscleScores[domain.MuscleChest])
	assert.Equal(t, 55, analysis.MuscleScores[domain.MuscleLegs])
}

func TestNormalizeAnalysisTierAlwaysRecomputed(t *testing.T) {
	t.Parallel()

	// Provider claims a tier that does not match its own score.
	raw := []byte(`{"score": 82, "tier": "Final Boss Mogger"}`)

	analysis := NormalizeAnalysis(raw)

	assert.Equal(t, domain.TierChad, analysis.Tier)
}

func TestNormalizeAnalysisUnseenMusclesStayNotVisible(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"score": 60,
		"muscleScores": {"chest": 70, "back": -1, "abs": "not_visible", "traps": 90}
	}`)

	analysis := NormalizeAnalysis(raw)

	assert.Equal(t, 70, analysis.MuscleScores[domain.MuscleChest])
	assert.Equal(t, domain.ScoreNotVisible, analysis.MuscleScores[domain.MuscleBack])
	assert.Equal(t, domain.ScoreNotVisible, analysis.MuscleScores[domain.MuscleAbs])
	assert.Equal(t, domain.ScoreNotVisible, analysis.MuscleScores[domain.MuscleLegs])

	// Unknown regions never enter the map.
	_, exists := analysis.MuscleScores[domain.MuscleGroup("traps")]
	assert.False(t, exists)
}

func TestNormalizeAnalysisMissingListsBecomeEmpty(t *testing.T) {
	t.Parallel()

	analysis := NormalizeAnalysis([]byte(`{"score": 50}`))

	require.NotNil(t, analysis.WeakPoints)
	require.NotNil(t, analysis.StrongPoints)
	assert.Empty(t, analysis.WeakPoints)
	assert.Empty(t, analysis.StrongPoints)
}

func TestNormalizeAnalysisFiltersMuscleLists(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"score": 50,
		"weakPoints": ["Legs", "forearms", "legs", "back"],
		"strongPoints": ["CHEST"]
	}`)

	analysis := NormalizeAnalysis(raw)

	assert.Equal(t, []domain.MuscleGroup{domain.MuscleLegs, domain.MuscleBack}, analysis.WeakPoints)
	assert.Equal(t, []domain.MuscleGroup{domain.MuscleChest}, analysis.StrongPoints)
}

func TestNormalizeAnalysisRejectionFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		raw        string
		wantReason string
	}{
		{name: "different person", raw: `{"differentPerson": true, "score": 80}`, wantReason: reasonDifferent},
		{name: "swapped photos", raw: `{"swapped": true}`, wantReason: reasonSwapped},
		{name: "inappropriate", raw: `{"inappropriate": true}`, wantReason: reasonInappropriate},
		{name: "generic invalid", raw: `{"invalid": true}`, wantReason: reasonInvalid},
		{name: "invalid with provider reason", raw: `{"invalid": true, "reason": "photo too dark"}`, wantReason: "photo too dark"},
		{name: "not json at all", raw: `scores: high`, wantReason: reasonUnparseable},
		{name: "json but not an object", raw: `[1, 2, 3]`, wantReason: reasonUnparseable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			analysis := NormalizeAnalysis([]byte(tt.raw))
			assert.False(t, analysis.Valid)
			assert.Equal(t, tt.wantReason, analysis.RejectionReason)
			assert.Zero(t, analysis.Score)
		})
	}
}

// Normalizing an already-normalized payload must not change it.
func TestNormalizeAnalysisIdempotent(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"score": 82,
		"symmetry": 74,
		"muscleScores": {"chest": 85, "back": 80, "legs": 60, "arms": 78, "abs": 70},
		"weakPoints": ["legs"],
		"strongPoints": ["chest", "back"],
		"notes": "solid upper body"
	}`)

	first := NormalizeAnalysis(raw)
	encoded, err := json.Marshal(first)
	require.NoError(t, err)
	second := NormalizeAnalysis(encoded)

	assert.Equal(t, first, second)
}

func TestNormalizeAnalysisIdempotentForRejections(t *testing.T) {
	t.Parallel()

	first := NormalizeAnalysis([]byte(`{"invalid": true, "reason": "blurry"}`))
	encoded, err := json.Marshal(first)
	require.NoError(t, err)
	second := NormalizeAnalysis(encoded)

	assert.False(t, second.Valid)
	assert.Equal(t, first.RejectionReason, second.RejectionReason)
}

func TestNormalizeAnalysisAIPoweredDefaultsTrue(t *testing.T) {
	t.Parallel()

	assert.True(t, NormalizeAnalysis([]byte(`{"score": 40}`)).AIPowered)
	assert.False(t, NormalizeAnalysis([]byte(`{"score": 40, "aiPowered": false}`)).AIPowered)
}
