package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"physiq/physiq-app/internal/ai"
	"physiq/physiq-app/internal/domain"
	"physiq/physiq-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory test doubles for the repository, provider, and storage
// interfaces. Repositories return deep copies so tests can assert that
// failed operations left the stored state untouched.

func clonePlan(plan *domain.TrainingPlan) *domain.TrainingPlan {
	data, err := json.Marshal(plan)
	if err != nil {
		panic(err)
	}
	var out domain.TrainingPlan
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return &out
}

type memPlanRepo struct {
	mu    sync.Mutex
	plans map[string]*domain.TrainingPlan

	upsertErr  error
	replaceErr error
}

func newMemPlanRepo() *memPlanRepo {
	return &memPlanRepo{plans: make(map[string]*domain.TrainingPlan)}
}

func (r *memPlanRepo) Upsert(ctx context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return primitive.NilObjectID, r.upsertErr
	}
	if plan.ID.IsZero() {
		plan.ID = primitive.NewObjectID()
	}
	r.plans[plan.UserID.Hex()] = clonePlan(plan)
	return plan.ID, nil
}

func (r *memPlanRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, ok := r.plans[userID.Hex()]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clonePlan(plan), nil
}

func (r *memPlanRepo) ReplaceWeek(ctx context.Context, plan *domain.TrainingPlan, expectWeek int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.replaceErr != nil {
		return r.replaceErr
	}
	stored, ok := r.plans[plan.UserID.Hex()]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.WeekNumber != expectWeek {
		return repository.ErrStaleWeek
	}
	r.plans[plan.UserID.Hex()] = clonePlan(plan)
	return nil
}

type memScanRepo struct {
	mu    sync.Mutex
	scans []*domain.Scan
}

func newMemScanRepo() *memScanRepo {
	return &memScanRepo{}
}

func (r *memScanRepo) Create(ctx context.Context, scan *domain.Scan) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	scan.ID = primitive.NewObjectID()
	scan.CreatedAt = time.Now().UTC()
	stored := *scan
	r.scans = append(r.scans, &stored)
	return scan.ID, nil
}

func (r *memScanRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Scan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, scan := range r.scans {
		if scan.ID == id {
			copied := *scan
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memScanRepo) GetLatestAccepted(ctx context.Context, userID primitive.ObjectID) (*domain.Scan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.scans) - 1; i >= 0; i-- {
		scan := r.scans[i]
		if scan.UserID == userID && scan.Status == domain.ScanAccepted {
			copied := *scan
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memScanRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Scan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Scan
	for _, scan := range r.scans {
		if scan.UserID == userID {
			out = append(out, *scan)
		}
	}
	return out, nil
}

func (r *memScanRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scans)
}

type memUserRepo struct {
	mu         sync.Mutex
	users      map[string]*domain.User
	latestScan map[string]primitive.ObjectID
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users:      make(map[string]*domain.User),
		latestScan: make(map[string]primitive.ObjectID),
	}
}

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return primitive.NilObjectID, repository.ErrAlreadyExists
		}
	}
	user.ID = primitive.NewObjectID()
	copied := *user
	r.users[user.ID.Hex()] = &copied
	return user.ID, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id.Hex()]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memUserRepo) SetLatestAcceptedScan(ctx context.Context, userID, scanID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latestScan[userID.Hex()] = scanID
	return nil
}

type memAssetRepo struct {
	mu     sync.Mutex
	assets map[string]*domain.ExerciseAsset
}

func newMemAssetRepo() *memAssetRepo {
	return &memAssetRepo{assets: make(map[string]*domain.ExerciseAsset)}
}

func (r *memAssetRepo) Insert(ctx context.Context, asset *domain.ExerciseAsset) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.assets[asset.NormalizedName]; exists {
		return primitive.NilObjectID, repository.ErrAlreadyExists
	}
	asset.ID = primitive.NewObjectID()
	copied := *asset
	r.assets[asset.NormalizedName] = &copied
	return asset.ID, nil
}

func (r *memAssetRepo) GetByNormalizedName(ctx context.Context, normalizedName string) (*domain.ExerciseAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	asset, ok := r.assets[normalizedName]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *asset
	return &copied, nil
}

func (r *memAssetRepo) has(normalizedName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.assets[normalizedName]
	return ok
}

// --- Provider stubs ---

type stubPlanProvider struct {
	mu      sync.Mutex
	calls   int
	payload []byte
	err     error
}

func (p *stubPlanProvider) GeneratePlan(ctx context.Context, req ai.PlanRequest) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.payload, nil
}

type stubVisionProvider struct {
	payload []byte
	err     error
}

func (p *stubVisionProvider) AnalyzePhysique(ctx context.Context, req ai.VisionRequest) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.payload, nil
}

type stubIdentityProvider struct {
	verdict *ai.IdentityVerdict
	err     error
	calls   int
}

func (p *stubIdentityProvider) CompareSubjects(ctx context.Context, newImageURL, priorImageURL string) (*ai.IdentityVerdict, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.verdict, nil
}

type stubImageProvider struct {
	mu        sync.Mutex
	callTimes []time.Time
	err       error
	errOnCall int // 1-based; 0 means never fail
}

func (p *stubImageProvider) GenerateExerciseImage(ctx context.Context, exerciseName string, phase string) (*ai.GeneratedImage, error) {
	p.mu.Lock()
	p.callTimes = append(p.callTimes, time.Now())
	call := len(p.callTimes)
	p.mu.Unlock()
	if p.err != nil && (p.errOnCall == 0 || call == p.errOnCall) {
		return nil, p.err
	}
	return &ai.GeneratedImage{ContentType: "image/png", Data: []byte(phase)}, nil
}

func (p *stubImageProvider) calls() []time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]time.Time, len(p.callTimes))
	copy(out, p.callTimes)
	return out
}

// --- Storage stub ---

type stubFileStorage struct {
	mu         sync.Mutex
	uploaded   map[string][]byte
	presignErr error
	uploadErr  error
}

func newStubFileStorage() *stubFileStorage {
	return &stubFileStorage{uploaded: make(map[string][]byte)}
}

func (s *stubFileStorage) GeneratePresignedUploadURL(ctx context.Context, objectKey, contentType string, expires time.Duration) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	return "https://storage.test/upload/" + objectKey, nil
}

func (s *stubFileStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	return "https://storage.test/download/" + objectKey, nil
}

func (s *stubFileStorage) UploadObject(ctx context.Context, objectKey, contentType string, data []byte) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded[objectKey] = data
	return nil
}

func (s *stubFileStorage) DeleteObject(ctx context.Context, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.uploaded, objectKey)
	return nil
}
