// internal/service/normalizer.go
package service

import (
	"strings"

	"physiq/physiq-app/internal/domain"

	"github.com/tidwall/gjson"
)

// Rejection reasons surfaced when the provider flags a submission. The
// provider may also supply its own reason string, which takes precedence
// for the generic invalid flag.
const (
	reasonUnparseable   = "analysis could not be read, please resubmit your photos"
	reasonInvalid       = "photos could not be analyzed"
	reasonDifferent     = "the photos appear to show a different person"
	reasonSwapped       = "the front and back photos appear to be swapped"
	reasonInappropriate = "the submitted photos are not appropriate for analysis"
)

// NormalizeAnalysis converts the vision provider's raw, schema-free JSON
// into a bounded ScanAnalysis. Nothing from the payload is trusted:
// every numeric is clamped into [0,100], unseen muscles stay NotVisible,
// missing weak/strong points become empty lists, and the tier is always
// recomputed locally from the clamped score regardless of what the
// provider suggested. Idempotent: normalizing an already-normalized
// payload yields the same analysis.
func NormalizeAnalysis(raw []byte) domain.ScanAnalysis {
	if !gjson.ValidBytes(raw) {
		return rejectedAnalysis(reasonUnparseable)
	}
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsObject() {
		return rejectedAnalysis(reasonUnparseable)
	}

	// Explicit provider rejection flags, checked before any field work.
	switch {
	case parsed.Get("differentPerson").Bool():
		return rejectedAnalysis(reasonDifferent)
	case parsed.Get("swapped").Bool():
		return rejectedAnalysis(reasonSwapped)
	case parsed.Get("inappropriate").Bool():
		return rejectedAnalysis(reasonInappropriate)
	case parsed.Get("invalid").Bool():
		reason := strings.TrimSpace(parsed.Get("reason").String())
		if reason == "" {
			reason = reasonInvalid
		}
		return rejectedAnalysis(reason)
	}
	// A payload normalized by us earlier carries valid=false the same way.
	if v := parsed.Get("valid"); v.Exists() && !v.Bool() {
		reason := strings.TrimSpace(parsed.Get("rejectionReason").String())
		if reason == "" {
			reason = reasonInvalid
		}
		return rejectedAnalysis(reason)
	}

	score := clampScore(parsed.Get("score"))

	analysis := domain.ScanAnalysis{
		Valid:        true,
		Score:        score,
		Tier:         domain.TierFor(score), // provider tier suggestion is ignored
		MuscleScores: normalizeMuscleScores(parsed.Get("muscleScores")),
		WeakPoints:   normalizeMuscleList(parsed.Get("weakPoints")),
		StrongPoints: normalizeMuscleList(parsed.Get("strongPoints")),
		Symmetry:     clampScore(parsed.Get("symmetry")),
		Notes:        parsed.Get("notes").String(),
		AIPowered:    true,
	}
	if v := parsed.Get("aiPowered"); v.Exists() {
		analysis.AIPowered = v.Bool()
	}
	return analysis
}

func rejectedAnalysis(reason string) domain.ScanAnalysis {
	return domain.ScanAnalysis{Valid: false, RejectionReason: reason}
}

// clampScore bounds a numeric field into [0,100]. Missing or non-numeric
// values clamp to 0.
func clampScore(v gjson.Result) int {
	score := int(v.Int())
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// normalizeMuscleScores keeps only known muscle groups. A muscle the
// provider could not observe (missing, null, negative, or the literal
// "not_visible") stays NotVisible; it is never defaulted to a number.
func normalizeMuscleScores(v gjson.Result) map[domain.MuscleGroup]int {
	scores := make(map[domain.MuscleGroup]int, len(domain.AllMuscleGroups))
	for _, muscle := range domain.AllMuscleGroups {
		scores[muscle] = domain.ScoreNotVisible
	}
	if !v.IsObject() {
		return scores
	}
	v.ForEach(func(key, value gjson.Result) bool {
		muscle := domain.MuscleGroup(strings.ToLower(strings.TrimSpace(key.String())))
		if _, known := scores[muscle]; !known {
			return true // ignore unknown regions
		}
		switch value.Type {
		case gjson.Number:
			if value.Num < 0 {
				scores[muscle] = domain.ScoreNotVisible
			} else {
				scores[muscle] = clampScore(value)
			}
		case gjson.String:
			// "not_visible" (or anything non-numeric) stays unseen.
		}
		return true
	})
	return scores
}

// normalizeMuscleList parses a provider muscle-group array, dropping
// anything unrecognized. Missing lists are empty, never guessed.
func normalizeMuscleList(v gjson.Result) []domain.MuscleGroup {
	result := []domain.MuscleGroup{}
	if !v.IsArray() {
		return result
	}
	seen := make(map[domain.MuscleGroup]bool)
	v.ForEach(func(_, value gjson.Result) bool {
		muscle := domain.MuscleGroup(strings.ToLower(strings.TrimSpace(value.String())))
		if !isKnownMuscle(muscle) || seen[muscle] {
			return true
		}
		seen[muscle] = true
		result = append(result, muscle)
		return true
	})
	return result
}

func isKnownMuscle(m domain.MuscleGroup) bool {
	for _, known := range domain.AllMuscleGroups {
		if m == known {
			return true
		}
	}
	return false
}
