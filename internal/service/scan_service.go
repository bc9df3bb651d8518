// internal/service/scan_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"

	"physiq/physiq-app/internal/ai"
	"physiq/physiq-app/internal/domain"
	"physiq/physiq-app/internal/repository"
	"physiq/physiq-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrScanNotFound        = errors.New("scan not found")
	ErrAnalysisRejected    = errors.New("analysis rejected")
	ErrIdentityMismatch    = errors.New("submitted photos do not match the previous scan")
	ErrAnalysisUnavailable = errors.New("physique analysis is temporarily unavailable, try again shortly")
	ErrUploadURLError      = errors.New("failed to generate upload URL")
	ErrInvalidImageKind    = errors.New("image kind must be front or back")
)

// identityRejectConfidence is the minimum provider confidence required
// to reject a submission as a different subject. Anything weaker is
// accepted.
const identityRejectConfidence = 70

// UploadURLResponse carries a presigned PUT URL and the object key the
// client reports back on submission.
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// --- Service Interface ---

type ScanService interface {
	// RequestUploadURL generates a presigned URL for one scan photo.
	// kind is "front" or "back".
	RequestUploadURL(ctx context.Context, userID primitive.ObjectID, kind, contentType string) (*UploadURLResponse, error)

	// SubmitScan runs the full pipeline for already-uploaded photos:
	// identity check, vision analysis, normalization, plan generation.
	SubmitScan(ctx context.Context, userID primitive.ObjectID, frontKey, backKey string) (*domain.Scan, error)

	GetLatestScan(ctx context.Context, userID primitive.ObjectID) (*domain.Scan, error)
	GetScanHistory(ctx context.Context, userID primitive.ObjectID) ([]domain.Scan, error)
}

// --- Service Implementation ---

type scanService struct {
	scanRepo    repository.ScanRepository
	userRepo    repository.UserRepository
	planService PlanService
	vision      ai.VisionProvider
	identity    ai.IdentityProvider
	fileStorage storage.FileStorage
}

// NewScanService creates a new instance of scanService.
func NewScanService(
	scanRepo repository.ScanRepository,
	userRepo repository.UserRepository,
	planService PlanService,
	vision ai.VisionProvider,
	identity ai.IdentityProvider,
	fileStorage storage.FileStorage,
) ScanService {
	return &scanService{
		scanRepo:    scanRepo,
		userRepo:    userRepo,
		planService: planService,
		vision:      vision,
		identity:    identity,
		fileStorage: fileStorage,
	}
}

func (s *scanService) RequestUploadURL(ctx context.Context, userID primitive.ObjectID, kind, contentType string) (*UploadURLResponse, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("user ID is required")
	}
	if kind != "front" && kind != "back" {
		return nil, ErrInvalidImageKind
	}
	if contentType == "" || !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, errors.New("invalid or missing image content type")
	}

	fileExtension := "jpg"
	if parts := strings.Split(contentType, "/"); len(parts) == 2 && parts[1] != "" {
		fileExtension = parts[1]
	}
	objectKey := path.Join("scans", userID.Hex(), fmt.Sprintf("%s-%s.%s", kind, uuid.NewString(), fileExtension))

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}
	return &UploadURLResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

func (s *scanService) SubmitScan(ctx context.Context, userID primitive.ObjectID, frontKey, backKey string) (*domain.Scan, error) {
	if userID == primitive.NilObjectID || frontKey == "" || backKey == "" {
		return nil, errors.New("user ID and both image keys are required")
	}

	frontURL, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, frontKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}
	backURL, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, backKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}

	// Identity gate against the previous accepted scan. Rejection
	// persists nothing; the submission simply never happened.
	if err := s.checkIdentity(ctx, userID, frontURL); err != nil {
		return nil, err
	}

	raw, err := s.vision.AnalyzePhysique(ctx, ai.VisionRequest{
		FrontImageURL: frontURL,
		BackImageURL:  backURL,
	})
	if err != nil {
		// No analysis, no fallback score to invent. Surface a retryable
		// failure; the user resubmits when the provider recovers.
		log.Printf("WARN: vision provider unavailable for user %s: %v", userID.Hex(), err)
		return nil, ErrAnalysisUnavailable
	}

	analysis := NormalizeAnalysis(raw)
	scan := &domain.Scan{
		UserID:        userID,
		FrontImageKey: frontKey,
		BackImageKey:  backKey,
	}

	if !analysis.Valid {
		scan.Status = domain.ScanRejected
		scan.RejectionReason = analysis.RejectionReason
		if _, err := s.scanRepo.Create(ctx, scan); err != nil {
			return nil, err
		}
		return scan, fmt.Errorf("%w: %s", ErrAnalysisRejected, analysis.RejectionReason)
	}

	scan.Status = domain.ScanAccepted
	scan.Analysis = &analysis
	scanID, err := s.scanRepo.Create(ctx, scan)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetLatestAcceptedScan(ctx, userID, scanID); err != nil {
		log.Printf("WARN: failed to record latest scan for user %s: %v", userID.Hex(), err)
	}

	// The accepted analysis immediately drives a fresh training week.
	if _, err := s.planService.CreateFromAnalysis(ctx, userID, &analysis); err != nil {
		log.Printf("ERROR: plan creation after scan failed for user %s: %v", userID.Hex(), err)
	}
	return scan, nil
}

// checkIdentity compares the new front image to the last accepted one.
// Fail-open: no prior image, provider error, or timeout all accept.
// Only an explicit, confident mismatch verdict rejects.
func (s *scanService) checkIdentity(ctx context.Context, userID primitive.ObjectID, newFrontURL string) error {
	prior, err := s.scanRepo.GetLatestAccepted(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("WARN: identity check skipped, prior scan lookup failed: %v", err)
		}
		return nil // first scan, or lookup failure: accept
	}

	priorURL, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, prior.FrontImageKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		log.Printf("WARN: identity check skipped, prior image unavailable: %v", err)
		return nil
	}

	verdict, err := s.identity.CompareSubjects(ctx, newFrontURL, priorURL)
	if err != nil {
		log.Printf("WARN: identity provider unavailable, accepting submission: %v", err)
		return nil
	}
	if !verdict.SameSubject && verdict.Confidence >= identityRejectConfidence {
		return fmt.Errorf("%w: %s", ErrIdentityMismatch, verdict.Reason)
	}
	return nil
}

func (s *scanService) GetLatestScan(ctx context.Context, userID primitive.ObjectID) (*domain.Scan, error) {
	scan, err := s.scanRepo.GetLatestAccepted(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScanNotFound
		}
		return nil, err
	}
	return scan, nil
}

func (s *scanService) GetScanHistory(ctx context.Context, userID primitive.ObjectID) ([]domain.Scan, error) {
	return s.scanRepo.GetByUserID(ctx, userID)
}
