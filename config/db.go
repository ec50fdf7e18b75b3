// config/db.go
package config

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/upline-app/upline_backend/models"
)

// ConnectDB establishes connection to MongoDB
func ConnectDB() *mongo.Client {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = os.Getenv("MONGODB_URI")
	}
	if mongoURI == "" {
		env := os.Getenv("ENV")
		if env == "development" || env == "dev" {
			mongoURI = "mongodb://localhost:27017"
		} else {
			log.Fatal("MONGO_URI or MONGODB_URI environment variable is required for production")
		}
	}

	log.Printf("Connecting to MongoDB at: %s", maskMongoURI(mongoURI))

	clientOptions := options.Client().ApplyURI(mongoURI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatal("MongoDB connection error:", err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		log.Fatal("MongoDB ping error:", err)
	}

	log.Println("Connected to MongoDB")

	setupCollections(client)

	return client
}

// DBName returns the configured database name.
func DBName() string {
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "upline"
	}
	return dbName
}

// GetCollection returns MongoDB collection
func GetCollection(client *mongo.Client, collectionName string) *mongo.Collection {
	return client.Database(DBName()).Collection(collectionName)
}

// setupCollections ensures all necessary collections and indexes exist
func setupCollections(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := client.Database(DBName())

	collections := []string{"users", "services", "orders", "purchases", "incomes", "incomeLogs", "referralRules"}
	for _, collName := range collections {
		db.CreateCollection(ctx, collName)
	}

	userColl := db.Collection("users")

	emailIndexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := userColl.Indexes().CreateOne(ctx, emailIndexModel); err != nil {
		log.Printf("Error creating email index: %v", err)
	}

	referralCodeIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "referralCode", Value: 1}},
		Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{
			"referralCode": bson.M{"$exists": true},
		}),
	}
	if _, err := userColl.Indexes().CreateOne(ctx, referralCodeIndexModel); err != nil {
		log.Printf("Error creating referralCode index: %v", err)
	}

	// Binary slot uniqueness: at most one left and one right child per
	// parent. Scoped to binary placements only; unilevel children carry no
	// position and are unconstrained. This index is what makes concurrent
	// signups under one sponsor safe.
	slotIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "parentId", Value: 1}, {Key: "position", Value: 1}},
		Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{
			"position": bson.M{"$in": []models.Position{models.PositionLeft, models.PositionRight}},
		}),
	}
	if _, err := userColl.Indexes().CreateOne(ctx, slotIndexModel); err != nil {
		log.Printf("Error creating placement slot index: %v", err)
	}

	parentIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "parentId", Value: 1}},
	}
	if _, err := userColl.Indexes().CreateOne(ctx, parentIndexModel); err != nil {
		log.Printf("Error creating parentId index: %v", err)
	}

	incomeIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "purchaseId", Value: 1}}},
		{Keys: bson.D{{Key: "toUserId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	if _, err := db.Collection("incomes").Indexes().CreateMany(ctx, incomeIndexes); err != nil {
		log.Printf("Error creating income indexes: %v", err)
	}

	purchaseOrderIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "orderId", Value: 1}},
	}
	if _, err := db.Collection("purchases").Indexes().CreateOne(ctx, purchaseOrderIndexModel); err != nil {
		log.Printf("Error creating purchase orderId index: %v", err)
	}

	ruleIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "isActive", Value: 1}},
	}
	if _, err := db.Collection("referralRules").Indexes().CreateOne(ctx, ruleIndexModel); err != nil {
		log.Printf("Error creating rule index: %v", err)
	}

	log.Println("Database collections and indexes setup complete")
}

// maskMongoURI masks the password in MongoDB URI for logging
func maskMongoURI(uri string) string {
	if idx := strings.Index(uri, "@"); idx > 0 {
		if colonIdx := strings.LastIndex(uri[:idx], ":"); colonIdx > 0 {
			return uri[:colonIdx+1] + "***" + uri[idx:]
		}
	}
	return uri
}
