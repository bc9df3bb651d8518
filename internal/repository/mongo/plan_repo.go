// internal/repository/mongo/plan_repo.go
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

const planCollectionName = "training_plans"

// mongoPlanRepository implements repository.PlanRepository.
type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a new TrainingPlan repository.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// Upsert writes the user's plan document, replacing any existing one.
// A user has exactly one plan document; superseding it in place keeps
// that invariant without a separate deactivation pass.
func (r *mongoPlanRepository) Upsert(ctx context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error) {
	if plan.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("plan requires userId")
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now
	if plan.ID == primitive.NilObjectID {
		plan.ID = primitive.NewObjectID()
	}

	filter := bson.M{"userId": plan.UserID}
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, filter, plan, opts)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return plan.ID, nil
}

// GetByUserID retrieves the user's plan document.
func (r *mongoPlanRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPlan, error) {
	var plan domain.TrainingPlan
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// ReplaceWeek swaps the current-week state in a single conditional
// update. The weekNumber filter is the optimistic guard: if a concurrent
// rollover committed first, MatchedCount is 0 and ErrStaleWeek is
// returned, so at most one rollover per completed week can win.
func (r *mongoPlanRepository) ReplaceWeek(ctx context.Context, plan *domain.TrainingPlan, expectWeek int) error {
	if plan.UserID == primitive.NilObjectID {
		return errors.New("plan requires userId")
	}

	filter := bson.M{"userId": plan.UserID, "weekNumber": expectWeek}
	update := bson.M{"$set": bson.M{
		"weekId":           plan.WeekID,
		"weekNumber":       plan.WeekNumber,
		"mission":          plan.Mission,
		"aiPowered":        plan.AIPowered,
		"days":             plan.Days,
		"completedHistory": plan.CompletedHistory,
		"updatedAt":        time.Now().UTC(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Either the plan vanished or the week moved on under us.
		if _, getErr := r.GetByUserID(ctx, plan.UserID); errors.Is(getErr, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return repository.ErrStaleWeek
	}
	return nil
}

// EnsurePlanIndexes creates necessary indexes. Call during startup.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One plan document per user.
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
