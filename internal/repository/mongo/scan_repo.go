// internal/repository/mongo/scan_repo.go
package mongo

import (
	"context"
	"errors"
	"time"

	"physiq/physiq-app/internal/domain"
	"physiq/physiq-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const scanCollectionName = "scans"

// mongoScanRepository implements repository.ScanRepository.
type mongoScanRepository struct {
	collection *mongo.Collection
}

// NewMongoScanRepository creates a new Scan repository.
func NewMongoScanRepository(db *mongo.Database) repository.ScanRepository {
	return &mongoScanRepository{
		collection: db.Collection(scanCollectionName),
	}
}

// Create inserts a new scan record. Scans are immutable once written;
// there is intentionally no Update method on this repository.
func (r *mongoScanRepository) Create(ctx context.Context, scan *domain.Scan) (primitive.ObjectID, error) {
	if scan.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("scan requires userId")
	}
	scan.ID = primitive.NewObjectID()
	scan.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, scan)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted scan ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single scan by its ID.
func (r *mongoScanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Scan, error) {
	var scan domain.Scan
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&scan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &scan, nil
}

// GetLatestAccepted retrieves the user's most recent accepted scan, the
// identity-check anchor for their next submission.
func (r *mongoScanRepository) GetLatestAccepted(ctx context.Context, userID primitive.ObjectID) (*domain.Scan, error) {
	filter := bson.M{"userId": userID, "status": domain.ScanAccepted}
	findOptions := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var scan domain.Scan
	err := r.collection.FindOne(ctx, filter, findOptions).Decode(&scan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &scan, nil
}

// GetByUserID retrieves all scans for a user, newest first.
func (r *mongoScanRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Scan, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var scans []domain.Scan
	if err = cursor.All(ctx, &scans); err != nil {
		return nil, err
	}
	// Empty slice when the user has no scans yet (not an error).
	return scans, nil
}

// EnsureScanIndexes creates necessary indexes. Call during startup.
func EnsureScanIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Main query pattern: latest accepted scan per user.
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
