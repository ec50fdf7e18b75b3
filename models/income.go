// models/income.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Income is one commission payout to one ancestor for one purchase.
// Rows are written once at distribution time and deleted en masse when the
// originating order is cancelled; they are never updated in place.
type Income struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	FromUserID primitive.ObjectID `json:"fromUserId" bson:"fromUserId"`
	ToUserID   primitive.ObjectID `json:"toUserId" bson:"toUserId"`
	PurchaseID primitive.ObjectID `json:"purchaseId" bson:"purchaseId"`
	Level      int                `json:"level" bson:"level"` // 1 = direct sponsor
	BV         float64            `json:"bv" bson:"bv"`
	Amount     float64            `json:"amount" bson:"amount"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
}

// IncomeLog is the append-only audit ledger, one row per distributed
// purchase. Cancellations do not touch it, so aggregate reporting built on
// the log diverges from live Income balances after a reversal.
type IncomeLog struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	PurchaseID  primitive.ObjectID `json:"purchaseId" bson:"purchaseId"`
	BuyerID     primitive.ObjectID `json:"buyerId" bson:"buyerId"`
	BV          float64            `json:"bv" bson:"bv"`
	TotalAmount float64            `json:"totalAmount" bson:"totalAmount"`
	LevelsPaid  int                `json:"levelsPaid" bson:"levelsPaid"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

// EarningsSummary exposes both totals side by side. LogTotal keeps counting
// reversed purchases; the difference is the documented reporting drift.
type EarningsSummary struct {
	LiveTotal float64 `json:"liveTotal"`
	LogTotal  float64 `json:"logTotal"`
	Entries   int64   `json:"entries"`
}
