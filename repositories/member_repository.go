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

// MemberRepository is the MongoDB implementation of services.MemberStore.
type MemberRepository struct {
	collection *mongo.Collection
}

func NewMemberRepository(db *mongo.Database) *MemberRepository {
	return &MemberRepository{collection: db.Collection("users")}
}

func (r *MemberRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Member, error) {
	var member models.Member
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&member)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) FindByReferralCode(ctx context.Context, code string) (*models.Member, error) {
	var member models.Member
	err := r.collection.FindOne(ctx, bson.M{"referralCode": code}).Decode(&member)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	var member models.Member
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&member)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) Insert(ctx context.Context, member *models.Member) error {
	result, err := r.collection.InsertOne(ctx, member)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		member.ID = oid
	}
	return nil
}

func (r *MemberRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *MemberRepository) BinaryChildren(ctx context.Context, parentID primitive.ObjectID) (*models.Member, *models.Member, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"parentId": parentID,
		"position": bson.M{"$in": []models.Position{models.PositionLeft, models.PositionRight}},
	})
	if err != nil {
		return nil, nil, err
	}
	defer cursor.Close(ctx)

	var left, right *models.Member
	for cursor.Next(ctx) {
		var member models.Member
		if err := cursor.Decode(&member); err != nil {
			return nil, nil, err
		}
		m := member
		switch member.Position {
		case models.PositionLeft:
			left = &m
		case models.PositionRight:
			right = &m
		}
	}
	return left, right, cursor.Err()
}

func (r *MemberRepository) ChildrenOf(ctx context.Context, parentID primitive.ObjectID) ([]models.Member, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"parentId": parentID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var children []models.Member
	if err := cursor.All(ctx, &children); err != nil {
		return nil, err
	}
	return children, nil
}

// AttachBinary claims a left/right slot for memberID. The filter re-checks
// the member is still unplaced; the partial unique index on
// (parentId, position) rejects a concurrently taken slot with a duplicate-key
// error, surfaced as ErrConcurrencyConflict for the resolver to retry.
func (r *MemberRepository) AttachBinary(ctx context.Context, memberID, parentID primitive.ObjectID, pos models.Position) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": memberID, "parentId": nil},
		bson.M{"$set": bson.M{
			"parentId":  parentID,
			"position":  pos,
			"updatedAt": time.Now(),
		}},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return services.ErrConcurrencyConflict
		}
		return err
	}
	if result.MatchedCount == 0 {
		return services.ErrAlreadyPlaced
	}
	return nil
}

func (r *MemberRepository) AttachUnilevel(ctx context.Context, memberID, parentID primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": memberID, "parentId": nil},
		bson.M{"$set": bson.M{
			"parentId":  parentID,
			"updatedAt": time.Now(),
		}, "$unset": bson.M{"position": ""}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return services.ErrAlreadyPlaced
	}
	return nil
}
