package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/upline-app/upline_backend/models"
)

// IncomeRepository is the MongoDB implementation of services.IncomeStore,
// plus the dashboard reads the earnings controller needs.
type IncomeRepository struct {
	incomes *mongo.Collection
	logs    *mongo.Collection
}

func NewIncomeRepository(db *mongo.Database) *IncomeRepository {
	return &IncomeRepository{
		incomes: db.Collection("incomes"),
		logs:    db.Collection("incomeLogs"),
	}
}

func (r *IncomeRepository) InsertIncome(ctx context.Context, income *models.Income) error {
	result, err := r.incomes.InsertOne(ctx, income)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		income.ID = oid
	}
	return nil
}

func (r *IncomeRepository) InsertLog(ctx context.Context, log *models.IncomeLog) error {
	_, err := r.logs.InsertOne(ctx, log)
	return err
}

func (r *IncomeRepository) DeleteByPurchaseIDs(ctx context.Context, purchaseIDs []primitive.ObjectID) (int64, error) {
	result, err := r.incomes.DeleteMany(ctx, bson.M{"purchaseId": bson.M{"$in": purchaseIDs}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *IncomeRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Income, error) {
	cursor, err := r.incomes.Find(ctx, bson.M{"toUserId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var incomes []models.Income
	if err := cursor.All(ctx, &incomes); err != nil {
		return nil, err
	}
	return incomes, nil
}

// SummaryByUser returns live and log-based totals side by side. The log
// total keeps counting reversed purchases; the drift after cancellations is
// intentional (append-only audit ledger).
func (r *IncomeRepository) SummaryByUser(ctx context.Context, userID primitive.ObjectID) (*models.EarningsSummary, error) {
	summary := &models.EarningsSummary{}

	liveTotal, entries, err := r.sumAmounts(ctx, r.incomes, bson.M{"toUserId": userID}, "$amount")
	if err != nil {
		return nil, err
	}
	summary.LiveTotal = liveTotal
	summary.Entries = entries

	// The log carries per-purchase totals keyed by buyer; an ancestor's
	// log-side earnings are reconstructed from the live rows' purchase ids.
	purchaseIDs, err := r.incomes.Distinct(ctx, "purchaseId", bson.M{"toUserId": userID})
	if err != nil {
		return nil, err
	}
	logTotal, _, err := r.sumAmounts(ctx, r.logs, bson.M{"purchaseId": bson.M{"$in": purchaseIDs}}, "$totalAmount")
	if err != nil {
		return nil, err
	}
	summary.LogTotal = logTotal
	return summary, nil
}

func (r *IncomeRepository) sumAmounts(ctx context.Context, coll *mongo.Collection, match bson.M, field string) (float64, int64, error) {
	cursor, err := coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": field},
			"count": bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return 0, 0, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total float64 `bson:"total"`
		Count int64   `bson:"count"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, 0, err
	}
	if len(results) == 0 {
		return 0, 0, nil
	}
	return results[0].Total, results[0].Count, nil
}
