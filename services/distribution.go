package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-app/upline_backend/models"
)

// LevelPayout is one paid ancestor level of a distribution.
type LevelPayout struct {
	Level    int                `json:"level"`
	ToUserID primitive.ObjectID `json:"toUserId"`
	Amount   float64            `json:"amount"`
}

// DistributionResult summarizes what one purchase paid out.
type DistributionResult struct {
	PurchaseID primitive.ObjectID `json:"purchaseId"`
	BV         float64            `json:"bv"`
	LevelsPaid int                `json:"levelsPaid"`
	Payouts    []LevelPayout      `json:"payouts"`
}

// Distributor creates a purchase and pays commission up the buyer's ancestor
// chain. BV comes from the catalog item (server-side truth; any
// caller-supplied value is ignored), the percentage from the active rule.
//
// When decay is enabled the per-level factor halves each level:
// decayFactor(L) = 1 / 2^(L-1). The rule only exposes an on/off toggle, so
// the curve is fixed here; it is strictly decreasing and leaves level 1 at
// the full base percentage. Zero amounts are skipped, never persisted.
//
// Distribute must only be invoked from inside the purchase-creation atomic
// unit, which makes it effectively run-once per purchase and guarantees no
// partial Income set survives a failure on the transactional path.
type Distributor struct {
	catalog   CatalogStore
	rules     RuleStore
	walker    *AncestorWalker
	purchases PurchaseStore
	incomes   IncomeStore
	log       *logrus.Logger
}

func NewDistributor(catalog CatalogStore, rules RuleStore, walker *AncestorWalker, purchases PurchaseStore, incomes IncomeStore, log *logrus.Logger) *Distributor {
	return &Distributor{
		catalog:   catalog,
		rules:     rules,
		walker:    walker,
		purchases: purchases,
		incomes:   incomes,
		log:       log,
	}
}

func decayFactor(enabled bool, level int) float64 {
	if !enabled {
		return 1
	}
	factor := 1.0
	for i := 1; i < level; i++ {
		factor /= 2
	}
	return factor
}

// Distribute creates the purchase row for buyer/service (orderID nil for
// direct purchases), then writes one Income row per paid ancestor and one
// IncomeLog row for the purchase.
func (d *Distributor) Distribute(ctx context.Context, buyerID, serviceID primitive.ObjectID, orderID *primitive.ObjectID) (*DistributionResult, error) {
	offering, err := d.catalog.FindServiceByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	rule, err := d.rules.Active(ctx)
	if err != nil {
		return nil, err
	}

	purchase := &models.Purchase{
		ID:             primitive.NewObjectID(),
		BuyerID:        buyerID,
		ServiceID:      serviceID,
		OrderID:        orderID,
		BusinessVolume: offering.BusinessVolume,
		CreatedAt:      time.Now(),
	}
	if err := d.purchases.Insert(ctx, purchase); err != nil {
		return nil, err
	}

	chain, err := d.walker.Chain(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	result := &DistributionResult{
		PurchaseID: purchase.ID,
		BV:         offering.BusinessVolume,
	}
	total := 0.0
	now := time.Now()

	for _, ancestor := range chain {
		amount := offering.BusinessVolume * rule.BasePercentage * decayFactor(rule.DecayEnabled, ancestor.Level)
		if amount == 0 {
			continue
		}
		income := &models.Income{
			FromUserID: buyerID,
			ToUserID:   ancestor.Member.ID,
			PurchaseID: purchase.ID,
			Level:      ancestor.Level,
			BV:         offering.BusinessVolume,
			Amount:     amount,
			CreatedAt:  now,
		}
		if err := d.incomes.InsertIncome(ctx, income); err != nil {
			return nil, err
		}
		total += amount
		result.LevelsPaid++
		result.Payouts = append(result.Payouts, LevelPayout{
			Level:    ancestor.Level,
			ToUserID: ancestor.Member.ID,
			Amount:   amount,
		})
	}

	if err := d.incomes.InsertLog(ctx, &models.IncomeLog{
		PurchaseID:  purchase.ID,
		BuyerID:     buyerID,
		BV:          offering.BusinessVolume,
		TotalAmount: total,
		LevelsPaid:  result.LevelsPaid,
		CreatedAt:   now,
	}); err != nil {
		return nil, err
	}

	d.log.WithFields(logrus.Fields{
		"purchase":   purchase.ID.Hex(),
		"buyer":      buyerID.Hex(),
		"bv":         offering.BusinessVolume,
		"levelsPaid": result.LevelsPaid,
		"total":      total,
	}).Info("commission distributed")
	return result, nil
}
