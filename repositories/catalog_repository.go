package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/upline-app/upline_backend/models"
	"github.com/upline-app/upline_backend/services"
)

// CatalogRepository is the MongoDB implementation of services.CatalogStore.
type CatalogRepository struct {
	collection *mongo.Collection
}

func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{collection: db.Collection("services")}
}

func (r *CatalogRepository) FindServiceByID(ctx context.Context, id primitive.ObjectID) (*models.ServiceOffering, error) {
	var offering models.ServiceOffering
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "isActive": true}).Decode(&offering)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &offering, nil
}

func (r *CatalogRepository) Insert(ctx context.Context, offering *models.ServiceOffering) error {
	result, err := r.collection.InsertOne(ctx, offering)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		offering.ID = oid
	}
	return nil
}

func (r *CatalogRepository) ListActive(ctx context.Context) ([]models.ServiceOffering, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"isActive": true},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var offerings []models.ServiceOffering
	if err := cursor.All(ctx, &offerings); err != nil {
		return nil, err
	}
	return offerings, nil
}
