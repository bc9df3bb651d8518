package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"physiq/physiq-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssetFixture(spacing time.Duration) (*assetService, *memAssetRepo, *stubImageProvider, *stubFileStorage) {
	repo := newMemAssetRepo()
	images := &stubImageProvider{}
	store := newStubFileStorage()
	svc := NewAssetService(repo, images, store, spacing, 8).(*assetService)
	return svc, repo, images, store
}

func TestRequestExerciseAssetCacheHit(t *testing.T) {
	t.Parallel()

	svc, repo, images, _ := newAssetFixture(time.Millisecond)
	ctx := context.Background()

	_, err := repo.Insert(ctx, &domain.ExerciseAsset{
		NormalizedName: "barbell-back-squat",
		ExerciseName:   "Barbell Back Squat",
		Images: []domain.AssetImage{
			{Phase: domain.PhaseStart, ObjectKey: "assets/exercises/barbell-back-squat/start"},
			{Phase: domain.PhaseMiddle, ObjectKey: "assets/exercises/barbell-back-squat/middle"},
			{Phase: domain.PhaseEnd, ObjectKey: "assets/exercises/barbell-back-squat/end"},
		},
	})
	require.NoError(t, err)

	resp, err := svc.RequestExerciseAsset(ctx, "Barbell Back Squat", "ex-1")
	require.NoError(t, err)

	assert.True(t, resp.Ready)
	require.Len(t, resp.Images, 3)
	for _, img := range resp.Images {
		assert.Contains(t, img.URL, "https://storage.test/download/")
	}

	// A hit never reaches the generation pipeline.
	assert.Empty(t, images.calls())
	assert.Empty(t, svc.queue)
}

func TestRequestExerciseAssetMissReturnsPlaceholder(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newAssetFixture(time.Millisecond)

	resp, err := svc.RequestExerciseAsset(context.Background(), "Walking Lunge", "")
	require.NoError(t, err)

	assert.False(t, resp.Ready)
	assert.Empty(t, resp.Images)
	assert.Equal(t, "leg", resp.Category)
	assert.Equal(t, "/static/exercise-placeholders/leg.png", resp.PlaceholderURL)
	assert.Len(t, svc.queue, 1)
}

func TestRequestExerciseAssetDedupesInflight(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newAssetFixture(time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.RequestExerciseAsset(ctx, "Lat  PULLDOWN", "")
		require.NoError(t, err)
	}

	// Variant spellings of one exercise collapse to a single job.
	assert.Len(t, svc.queue, 1)
}

func TestRequestExerciseAssetEmptyName(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newAssetFixture(time.Millisecond)

	_, err := svc.RequestExerciseAsset(context.Background(), "   ", "")
	assert.Error(t, err)
}

func TestRunGeneratesAndCachesThreePhaseSet(t *testing.T) {
	t.Parallel()

	svc, repo, images, store := newAssetFixture(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	_, err := svc.RequestExerciseAsset(ctx, "Overhead Press", "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return repo.has("overhead-press")
	}, 5*time.Second, 10*time.Millisecond)

	assert.Len(t, images.calls(), 3)
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, phase := range domain.AssetPhases {
		assert.Contains(t, store.uploaded, "assets/exercises/overhead-press/"+string(phase))
	}

	// The next request serves from cache.
	resp, err := svc.RequestExerciseAsset(context.Background(), "Overhead Press", "")
	require.NoError(t, err)
	assert.True(t, resp.Ready)
	require.Len(t, resp.Images, 3)
}

func TestGenerateDiscardsPartialSetOnPhaseFailure(t *testing.T) {
	t.Parallel()

	svc, repo, images, _ := newAssetFixture(time.Millisecond)
	images.err = errors.New("quota exceeded")
	images.errOnCall = 2

	job := assetJob{Name: "Cable Fly", Normalized: "cable-fly"}
	err := svc.generate(context.Background(), job)
	require.Error(t, err)

	// Nothing cached: a later retry regenerates all phases.
	assert.False(t, repo.has("cable-fly"))
	assert.Len(t, images.calls(), 2)
}

func TestGenerateSpacesProviderCalls(t *testing.T) {
	t.Parallel()

	const spacing = 40 * time.Millisecond
	svc, repo, images, _ := newAssetFixture(spacing)

	err := svc.generate(context.Background(), assetJob{Name: "Plank", Normalized: "plank"})
	require.NoError(t, err)
	require.True(t, repo.has("plank"))

	calls := images.calls()
	require.Len(t, calls, 3)
	for i := 1; i < len(calls); i++ {
		gap := calls[i].Sub(calls[i-1])
		assert.GreaterOrEqual(t, gap, spacing,
			"provider calls %d and %d were only %s apart", i-1, i, gap)
	}
}

func TestGenerateStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	svc, repo, _, _ := newAssetFixture(time.Hour)
	svc.lastCallEnd = time.Now() // force a long spacing wait

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.generate(ctx, assetJob{Name: "Plank", Normalized: "plank"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, repo.has("plank"))
}
