package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-app/upline_backend/models"
)

// ReversalService removes the commission entries attributable to a cancelled
// order. It deletes the live Income rows and marks the order cancelled in one
// atomic unit (or degraded equivalent). IncomeLog rows are an append-only
// ledger and are deliberately left untouched, so log-based aggregate
// reporting diverges from live payable balances after a cancellation.
type ReversalService struct {
	orders    OrderStore
	purchases PurchaseStore
	incomes   IncomeStore
	runner    AtomicRunner
	log       *logrus.Logger
}

func NewReversalService(orders OrderStore, purchases PurchaseStore, incomes IncomeStore, runner AtomicRunner, log *logrus.Logger) *ReversalService {
	return &ReversalService{
		orders:    orders,
		purchases: purchases,
		incomes:   incomes,
		runner:    runner,
		log:       log,
	}
}

// ReverseOrder cancels orderID and returns the number of Income rows removed.
// Cancelling an already-cancelled order is a no-op.
func (s *ReversalService) ReverseOrder(ctx context.Context, orderID primitive.ObjectID) (int64, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if order.Status == models.OrderStatusCancelled {
		return 0, nil
	}

	purchases, err := s.purchases.ByOrderID(ctx, orderID)
	if err != nil {
		return 0, err
	}
	purchaseIDs := make([]primitive.ObjectID, 0, len(purchases))
	for _, p := range purchases {
		purchaseIDs = append(purchaseIDs, p.ID)
	}

	var removed int64
	err = s.runner.Run(ctx, func(ctx context.Context) error {
		if len(purchaseIDs) > 0 {
			removed, err = s.incomes.DeleteByPurchaseIDs(ctx, purchaseIDs)
			if err != nil {
				return err
			}
		}
		return s.orders.MarkCancelled(ctx, orderID)
	})
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{
		"order":   orderID.Hex(),
		"removed": removed,
	}).Info("order cancelled, commission entries reversed")
	return removed, nil
}
