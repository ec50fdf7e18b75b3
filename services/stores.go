package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-app/upline_backend/models"
)

// Store interfaces consumed by the engine. The repositories package provides
// the MongoDB implementations; tests substitute in-memory fakes.

type MemberStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Member, error)
	FindByReferralCode(ctx context.Context, code string) (*models.Member, error)
	// BinaryChildren returns the left and right child of a parent, either of
	// which may be nil.
	BinaryChildren(ctx context.Context, parentID primitive.ObjectID) (left, right *models.Member, err error)
	// ChildrenOf returns every child of a parent, binary and unilevel alike.
	ChildrenOf(ctx context.Context, parentID primitive.ObjectID) ([]models.Member, error)
	// AttachBinary sets parent and slot on an unplaced member. It returns
	// ErrConcurrencyConflict when the slot was taken in the meantime and
	// ErrAlreadyPlaced when the member already has a parent.
	AttachBinary(ctx context.Context, memberID, parentID primitive.ObjectID, pos models.Position) error
	// AttachUnilevel sets parent with no slot on an unplaced member.
	AttachUnilevel(ctx context.Context, memberID, parentID primitive.ObjectID) error
}

type CatalogStore interface {
	FindServiceByID(ctx context.Context, id primitive.ObjectID) (*models.ServiceOffering, error)
}

type RuleStore interface {
	// Active returns the single active rule or ErrNoActiveRule.
	Active(ctx context.Context) (*models.ReferralRule, error)
	DeactivateAll(ctx context.Context) error
	Insert(ctx context.Context, rule *models.ReferralRule) error
}

type PurchaseStore interface {
	Insert(ctx context.Context, purchase *models.Purchase) error
	ByOrderID(ctx context.Context, orderID primitive.ObjectID) ([]models.Purchase, error)
}

type IncomeStore interface {
	InsertIncome(ctx context.Context, income *models.Income) error
	InsertLog(ctx context.Context, log *models.IncomeLog) error
	DeleteByPurchaseIDs(ctx context.Context, purchaseIDs []primitive.ObjectID) (int64, error)
}

type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	MarkCancelled(ctx context.Context, id primitive.ObjectID) error
}
