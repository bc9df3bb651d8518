// internal/repository/mongo/asset_repo.go
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

const assetCollectionName = "exercise_assets"

// mongoAssetRepository implements repository.AssetRepository.
type mongoAssetRepository struct {
	collection *mongo.Collection
}

// NewMongoAssetRepository creates a new ExerciseAsset repository.
func NewMongoAssetRepository(db *mongo.Database) repository.AssetRepository {
	return &mongoAssetRepository{
		collection: db.Collection(assetCollectionName),
	}
}

// Insert stores a completed asset set. The unique index on
// normalizedName makes the cache write-once: a concurrent duplicate
// insert surfaces as ErrAlreadyExists and the first write wins.
func (r *mongoAssetRepository) Insert(ctx context.Context, asset *domain.ExerciseAsset) (primitive.ObjectID, error) {
	if asset.NormalizedName == "" {
		return primitive.NilObjectID, errors.New("asset requires normalizedName")
	}
	if len(asset.Images) != len(domain.AssetPhases) {
		return primitive.NilObjectID, errors.New("asset requires a full phase set")
	}
	asset.ID = primitive.NewObjectID()
	asset.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, asset)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrAlreadyExists
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted asset ID")
	}
	return insertedID, nil
}

// GetByNormalizedName retrieves a cached asset set.
func (r *mongoAssetRepository) GetByNormalizedName(ctx context.Context, normalizedName string) (*domain.ExerciseAsset, error) {
	var asset domain.ExerciseAsset
	err := r.collection.FindOne(ctx, bson.M{"normalizedName": normalizedName}).Decode(&asset)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &asset, nil
}

// EnsureAssetIndexes creates necessary indexes. Call during startup.
func EnsureAssetIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "normalizedName", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
