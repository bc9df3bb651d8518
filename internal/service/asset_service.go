// internal/service/asset_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"sync"
	"time"

	"physiq/physiq-app/internal/ai"
	"physiq/physiq-app/internal/domain"
	"physiq/physiq-app/internal/repository"
	"physiq/physiq-app/internal/storage"
)

// DefaultImageCallSpacing is the minimum gap between two image provider
// calls, measured from the end of the previous call. The provider
// enforces a small per-minute quota.
const DefaultImageCallSpacing = 16 * time.Second

const defaultAssetQueueSize = 64

// AssetResponse is what callers get for an exercise asset request:
// either the cached three-phase set or a deterministic placeholder
// while generation is pending. Requests never block on generation.
type AssetResponse struct {
	Ready          bool                `json:"ready"`
	ExerciseName   string              `json:"exerciseName"`
	Images         []domain.AssetImage `json:"images,omitempty"`
	Category       string              `json:"category,omitempty"`
	PlaceholderURL string              `json:"placeholderUrl,omitempty"`
}

type assetJob struct {
	Name       string
	ExerciseID string
	Normalized string
}

// --- Service Interface ---

type AssetService interface {
	// RequestExerciseAsset serves the cached asset set or enqueues
	// generation and returns a placeholder immediately.
	RequestExerciseAsset(ctx context.Context, exerciseName, exerciseID string) (*AssetResponse, error)

	// Run drains the queue until ctx is cancelled. Exactly one Run loop
	// must be active; it is the single consumer the rate limiting
	// discipline relies on.
	Run(ctx context.Context)
}

// --- Service Implementation ---

type assetService struct {
	assetRepo   repository.AssetRepository
	images      ai.ImageProvider
	fileStorage storage.FileStorage
	spacing     time.Duration

	queue chan assetJob

	inflightMu sync.Mutex
	inflight   map[string]bool

	// lastCallEnd is touched only by the Run goroutine.
	lastCallEnd time.Time
	now         func() time.Time
}

// NewAssetService creates the asset queue service. spacing <= 0 falls
// back to DefaultImageCallSpacing; queueSize <= 0 to a sane default.
func NewAssetService(
	assetRepo repository.AssetRepository,
	images ai.ImageProvider,
	fileStorage storage.FileStorage,
	spacing time.Duration,
	queueSize int,
) AssetService {
	if spacing <= 0 {
		spacing = DefaultImageCallSpacing
	}
	if queueSize <= 0 {
		queueSize = defaultAssetQueueSize
	}
	return &assetService{
		assetRepo:   assetRepo,
		images:      images,
		fileStorage: fileStorage,
		spacing:     spacing,
		queue:       make(chan assetJob, queueSize),
		inflight:    make(map[string]bool),
		now:         time.Now,
	}
}

func (s *assetService) RequestExerciseAsset(ctx context.Context, exerciseName, exerciseID string) (*AssetResponse, error) {
	normalized := domain.NormalizeExerciseName(exerciseName)
	if normalized == "" {
		return nil, errors.New("exercise name is required")
	}

	// Cache hit short-circuits everything; nothing is enqueued.
	if asset, err := s.assetRepo.GetByNormalizedName(ctx, normalized); err == nil {
		return s.cachedResponse(ctx, asset), nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	s.maybeEnqueue(assetJob{Name: exerciseName, ExerciseID: exerciseID, Normalized: normalized})

	category := domain.PlaceholderCategory(exerciseName)
	return &AssetResponse{
		Ready:          false,
		ExerciseName:   exerciseName,
		Category:       category,
		PlaceholderURL: placeholderURL(category),
	}, nil
}

// maybeEnqueue adds a job unless the same exercise is already pending.
// A full queue drops the job (and its in-flight mark) so a later
// request can retry instead of blocking the caller.
func (s *assetService) maybeEnqueue(job assetJob) {
	s.inflightMu.Lock()
	if s.inflight[job.Normalized] {
		s.inflightMu.Unlock()
		return
	}
	s.inflight[job.Normalized] = true
	s.inflightMu.Unlock()

	select {
	case s.queue <- job:
	default:
		s.clearInflight(job.Normalized)
		log.Printf("WARN: asset queue full, dropping job for %q", job.Name)
	}
}

func (s *assetService) clearInflight(normalized string) {
	s.inflightMu.Lock()
	delete(s.inflight, normalized)
	s.inflightMu.Unlock()
}

func (s *assetService) Run(ctx context.Context) {
	log.Printf("INFO: asset queue consumer started (spacing %s)", s.spacing)
	for {
		select {
		case <-ctx.Done():
			log.Println("INFO: asset queue consumer stopping")
			return
		case job := <-s.queue:
			if err := s.generate(ctx, job); err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("WARN: asset generation failed for %q: %v", job.Name, err)
			}
			s.clearInflight(job.Normalized)
		}
	}
}

// generate produces the full three-phase set for one exercise. Any
// phase failure discards the partial result; nothing is cached, so a
// later retry regenerates all phases rather than serving a half-set.
func (s *assetService) generate(ctx context.Context, job assetJob) error {
	images := make([]domain.AssetImage, 0, len(domain.AssetPhases))

	for _, phase := range domain.AssetPhases {
		if err := s.waitSpacing(ctx); err != nil {
			return err
		}
		generated, err := s.images.GenerateExerciseImage(ctx, job.Name, string(phase))
		s.lastCallEnd = s.now()
		if err != nil {
			return err
		}

		objectKey := path.Join("assets", "exercises", job.Normalized, string(phase))
		if err := s.fileStorage.UploadObject(ctx, objectKey, generated.ContentType, generated.Data); err != nil {
			return err
		}
		images = append(images, domain.AssetImage{Phase: phase, ObjectKey: objectKey})
	}

	asset := &domain.ExerciseAsset{
		NormalizedName: job.Normalized,
		ExerciseName:   job.Name,
		Images:         images,
	}
	if _, err := s.assetRepo.Insert(ctx, asset); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			// Another instance finished first; the cache is write-once
			// and their entry wins.
			return nil
		}
		return err
	}
	log.Printf("INFO: cached asset set for %q", job.Name)
	return nil
}

// waitSpacing blocks until the minimum inter-call gap has elapsed since
// the end of the previous provider call.
func (s *assetService) waitSpacing(ctx context.Context) error {
	if s.lastCallEnd.IsZero() {
		return nil
	}
	wait := s.spacing - s.now().Sub(s.lastCallEnd)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// cachedResponse presigns the stored object keys for the caller.
func (s *assetService) cachedResponse(ctx context.Context, asset *domain.ExerciseAsset) *AssetResponse {
	images := make([]domain.AssetImage, len(asset.Images))
	copy(images, asset.Images)
	for i := range images {
		url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, images[i].ObjectKey, storage.DefaultPresignedURLExpiry)
		if err != nil {
			log.Printf("WARN: failed to presign asset image %q: %v", images[i].ObjectKey, err)
			continue
		}
		images[i].URL = url
	}
	return &AssetResponse{
		Ready:        true,
		ExerciseName: asset.ExerciseName,
		Images:       images,
	}
}

func placeholderURL(category string) string {
	return fmt.Sprintf("/static/exercise-placeholders/%s.png", category)
}
