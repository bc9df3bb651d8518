package repository

import (
	"context"

	"physiq/physiq-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound      = RepositoryError("not found")
	ErrUpdateFailed  = RepositoryError("update failed")
	ErrAlreadyExists = RepositoryError("already exists")

	// ErrStaleWeek means a plan update carried a weekNumber precondition
	// that no longer matches the stored document: a concurrent rollover
	// already committed. Callers treat this as "lost the race", not as
	// data loss.
	ErrStaleWeek = RepositoryError("stale week number")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	SetLatestAcceptedScan(ctx context.Context, userID, scanID primitive.ObjectID) error
}

// ScanRepository defines the interface for interacting with scan records.
// A stored scan and its embedded analysis are immutable.
type ScanRepository interface {
	Create(ctx context.Context, scan *domain.Scan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Scan, error)
	GetLatestAccepted(ctx context.Context, userID primitive.ObjectID) (*domain.Scan, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Scan, error)
}

// PlanRepository defines the interface for interacting with training
// plan documents. One plan document per user, superseded in place.
type PlanRepository interface {
	Upsert(ctx context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPlan, error)

	// ReplaceWeek atomically swaps the plan's current-week state (days,
	// weekNumber, weekId, mission, history) but only while the stored
	// document still carries expectWeek. Returns ErrStaleWeek otherwise,
	// which is how a double rollover is prevented at the store level.
	ReplaceWeek(ctx context.Context, plan *domain.TrainingPlan, expectWeek int) error
}

// AssetRepository defines the interface for the write-once exercise
// asset cache.
type AssetRepository interface {
	// Insert stores a completed asset set. A duplicate normalized name
	// returns ErrAlreadyExists; the existing entry wins.
	Insert(ctx context.Context, asset *domain.ExerciseAsset) (primitive.ObjectID, error)
	GetByNormalizedName(ctx context.Context, normalizedName string) (*domain.ExerciseAsset, error)
}
