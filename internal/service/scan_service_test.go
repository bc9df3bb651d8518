package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"physiq/physiq-app/internal/ai"
	"physiq/physiq-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type scanServiceFixture struct {
	service  ScanService
	plans    PlanService
	scanRepo *memScanRepo
	userRepo *memUserRepo
	planRepo *memPlanRepo
	vision   *stubVisionProvider
	identity *stubIdentityProvider
	storage  *stubFileStorage
}

func newScanServiceFixture() *scanServiceFixture {
	scanRepo := newMemScanRepo()
	userRepo := newMemUserRepo()
	planRepo := newMemPlanRepo()
	vision := &stubVisionProvider{payload: []byte(`{"score": 72, "weakPoints": ["legs"]}`)}
	identity := &stubIdentityProvider{verdict: &ai.IdentityVerdict{SameSubject: true, Confidence: 95}}
	store := newStubFileStorage()

	generator := NewPlanGenerator(&stubPlanProvider{err: errors.New("provider down")})
	plans := NewPlanService(planRepo, scanRepo, generator, NewRegenerationGuard(time.Minute))

	return &scanServiceFixture{
		service:  NewScanService(scanRepo, userRepo, plans, vision, identity, store),
		plans:    plans,
		scanRepo: scanRepo,
		userRepo: userRepo,
		planRepo: planRepo,
		vision:   vision,
		identity: identity,
		storage:  store,
	}
}

func TestRequestUploadURL(t *testing.T) {
	t.Parallel()

	f := newScanServiceFixture()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	resp, err := f.service.RequestUploadURL(ctx, userID, "front", "image/jpeg")
	require.NoError(t, err)
	assert.Contains(t, resp.UploadURL, "https://storage.test/upload/")
	assert.True(t, strings.HasPrefix(resp.ObjectKey, "scans/"+userID.Hex()+"/front-"))
	assert.True(t, strings.HasSuffix(resp.ObjectKey, ".jpeg"))

	_, err = f.service.RequestUploadURL(ctx, userID, "side", "image/jpeg")
	assert.ErrorIs(t, err, ErrInvalidImageKind)

	_, err = f.service.RequestUploadURL(ctx, userID, "front", "application/pdf")
	assert.Error(t, err)

	_, err = f.service.RequestUploadURL(ctx, primitive.NilObjectID, "front", "image/jpeg")
	assert.Error(t, err)
}

func TestSubmitScanAcceptedDrivesPlanCreation(t *testing.T) {
	t.Parallel()

	f := newScanServiceFixture()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	scan, err := f.service.SubmitScan(ctx, userID, "scans/front.jpg", "scans/back.jpg")
	require.NoError(t, err)

	assert.Equal(t, domain.ScanAccepted, scan.Status)
	require.NotNil(t, scan.Analysis)
	assert.Equal(t, 72, scan.Analysis.Score)
	assert.Equal(t, domain.TierChadlite, scan.Analysis.Tier)

	// The user's latest-scan pointer was updated.
	assert.Equal(t, scan.ID, f.userRepo.latestScan[userID.Hex()])

	// A fresh training week exists, built from this analysis.
	plan, err := f.plans.GetCurrentPlan(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.WeekNumber)
	assert.Equal(t, []domain.MuscleGroup{domain.MuscleLegs}, plan.Days[0].TargetMuscles)
}

func TestSubmitScanRejectedAnalysisIsPersisted(t *testing.T) {
	t.Parallel()

	f := newScanServiceFixture()
	f.vision.payload = []byte(`{"invalid": true, "reason": "photo too dark"}`)
	userID := primitive.NewObjectID()
	ctx := context.Background()

	scan, err := f.service.SubmitScan(ctx, userID, "scans/front.jpg", "scans/back.jpg")
	require.ErrorIs(t, err, ErrAnalysisRejected)
	assert.Contains(t, err.Error(), "photo too dark")

	// The rejected submission is kept for audit, but never becomes the
	// user's latest accepted scan and never creates a plan.
	require.NotNil(t, scan)
	assert.Equal(t, domain.ScanRejected, scan.Status)
	assert.Equal(t, 1, f.scanRepo.count())

	_, err = f.service.GetLatestScan(ctx, userID)
	assert.ErrorIs(t, err, ErrScanNotFound)
	_, err = f.plans.GetCurrentPlan(ctx, userID)
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestSubmitScanVisionUnavailablePersistsNothing(t *testing.T) {
	t.Parallel()

	f := newScanServiceFixture()
	f.vision.err = errors.New("timeout")
	userID := primitive.NewObjectID()

	_, err := f.service.SubmitScan(context.Background(), userID, "scans/front.jpg", "scans/back.jpg")
	assert.ErrorIs(t, err, ErrAnalysisUnavailable)
	assert.Zero(t, f.scanRepo.count())
}

func TestSubmitScanIdentityMismatchPersistsNothing(t *testing.T) {
	t.Parallel()

	f := newScanServiceFixture()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	// First scan establishes the reference image.
	_, err := f.service.SubmitScan(ctx, userID, "scans/front1.jpg", "scans/back1.jpg")
	require.NoError(t, err)
	require.Equal(t, 1, f.scanRepo.count())

	f.identity.verdict = &ai.IdentityVerdict{SameSubject: false, Confidence: 90, Reason: "different build"}

	_, err = f.service.SubmitScan(ctx, userID, "scans/front2.jpg", "scans/back2.jpg")
	assert.ErrorIs(t, err, ErrIdentityMismatch)

	// The rejected submission never happened: no new scan record.
	assert.Equal(t, 1, f.scanRepo.count())
}

func TestSubmitScanIdentityFailOpen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(f *scanServiceFixture)
	}{
		{
			name:  "provider error accepts",
			setup: func(f *scanServiceFixture) { f.identity.err = errors.New("identity service down") },
		},
		{
			name: "low-confidence mismatch accepts",
			setup: func(f *scanServiceFixture) {
				f.identity.verdict = &ai.IdentityVerdict{SameSubject: false, Confidence: 40}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newScanServiceFixture()
			userID := primitive.NewObjectID()
			ctx := context.Background()

			_, err := f.service.SubmitScan(ctx, userID, "scans/front1.jpg", "scans/back1.jpg")
			require.NoError(t, err)

			tt.setup(f)

			scan, err := f.service.SubmitScan(ctx, userID, "scans/front2.jpg", "scans/back2.jpg")
			require.NoError(t, err)
			assert.Equal(t, domain.ScanAccepted, scan.Status)
		})
	}
}

func TestSubmitScanFirstScanSkipsIdentityCheck(t *testing.T) {
	t.Parallel()

	f := newScanServiceFixture()

	_, err := f.service.SubmitScan(context.Background(), primitive.NewObjectID(), "scans/front.jpg", "scans/back.jpg")
	require.NoError(t, err)
	assert.Zero(t, f.identity.calls)
}

func TestGetScanHistoryIncludesRejected(t *testing.T) {
	t.Parallel()

	f := newScanServiceFixture()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	_, err := f.service.SubmitScan(ctx, userID, "scans/front1.jpg", "scans/back1.jpg")
	require.NoError(t, err)

	f.vision.payload = []byte(`{"inappropriate": true}`)
	_, err = f.service.SubmitScan(ctx, userID, "scans/front2.jpg", "scans/back2.jpg")
	require.ErrorIs(t, err, ErrAnalysisRejected)

	history, err := f.service.GetScanHistory(ctx, userID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	latest, err := f.service.GetLatestScan(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.ScanAccepted, latest.Status)
}
