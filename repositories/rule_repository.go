package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/upline-app/upline_backend/models"
	"github.com/upline-app/upline_backend/services"
)

// RuleRepository is the MongoDB implementation of services.RuleStore.
type RuleRepository struct {
	collection *mongo.Collection
}

func NewRuleRepository(db *mongo.Database) *RuleRepository {
	return &RuleRepository{collection: db.Collection("referralRules")}
}

func (r *RuleRepository) Active(ctx context.Context) (*models.ReferralRule, error) {
	var rule models.ReferralRule
	err := r.collection.FindOne(ctx, bson.M{"isActive": true}).Decode(&rule)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNoActiveRule
		}
		return nil, err
	}
	return &rule, nil
}

func (r *RuleRepository) DeactivateAll(ctx context.Context) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"isActive": true},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}},
	)
	return err
}

func (r *RuleRepository) Insert(ctx context.Context, rule *models.ReferralRule) error {
	result, err := r.collection.InsertOne(ctx, rule)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		rule.ID = oid
	}
	return nil
}
