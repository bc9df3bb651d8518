// Package ai defines the narrow contracts for the external AI providers
// (vision analysis, identity check, plan generation, image generation)
// and an HTTP-backed implementation. Provider output is untrusted: the
// vision and plan responses are returned as raw JSON and only cross into
// the domain model through the service-layer normalizer/repair pass.
package ai

import "context"

// VisionRequest carries one scan submission to the vision provider.
// Images are passed as presigned URLs so the provider never needs bucket
// credentials.
type VisionRequest struct {
	FrontImageURL string `json:"frontImageUrl"`
	BackImageURL  string `json:"backImageUrl"`
	UserContext   string `json:"userContext,omitempty"`
}

// VisionProvider analyzes physique photos. The response is the raw,
// schema-free JSON payload; callers must normalize it before use.
type VisionProvider interface {
	AnalyzePhysique(ctx context.Context, req VisionRequest) ([]byte, error)
}

// IdentityVerdict is the identity provider's answer for two images.
type IdentityVerdict struct {
	SameSubject bool   `json:"sameSubject"`
	Confidence  int    `json:"confidence"`
	Reason      string `json:"reason,omitempty"`
}

// IdentityProvider compares two front-view images.
type IdentityProvider interface {
	CompareSubjects(ctx context.Context, newImageURL, priorImageURL string) (*IdentityVerdict, error)
}

// PlanHistorySummary condenses one completed day for the plan provider's
// progressive-overload input.
type PlanHistorySummary struct {
	WeekNumber int      `json:"weekNumber"`
	DayIndex   int      `json:"dayIndex"`
	Muscles    []string `json:"muscles,omitempty"`
	Exercises  []string `json:"exercises,omitempty"`
}

// PlanRequest asks the plan provider for a week of training.
type PlanRequest struct {
	Score        int                  `json:"score"`
	Tier         string               `json:"tier"`
	WeakPoints   []string             `json:"weakPoints,omitempty"`
	StrongPoints []string             `json:"strongPoints,omitempty"`
	History      []PlanHistorySummary `json:"history,omitempty"`
}

// PlanProvider generates a day/exercise structure. The response is raw
// JSON; the planner repairs it before anything is persisted.
type PlanProvider interface {
	GeneratePlan(ctx context.Context, req PlanRequest) ([]byte, error)
}

// GeneratedImage is one exercise demonstration frame.
type GeneratedImage struct {
	ContentType string
	Data        []byte
}

// ImageProvider renders one phase of an exercise demonstration. Subject
// to a hard per-minute quota on the provider side; the asset queue is
// the only caller and enforces inter-call spacing.
type ImageProvider interface {
	GenerateExerciseImage(ctx context.Context, exerciseName string, phase string) (*GeneratedImage, error)
}
