package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-app/upline_backend/models"
)

// OrderService drives the purchase-creation flows. Both flows run inside the
// atomic runner: either the order, every purchase, every Income row and the
// IncomeLog rows commit together, or (degraded path) execute sequentially
// with the known partial-write risk.
type OrderService struct {
	orders      OrderStore
	distributor *Distributor
	runner      AtomicRunner
}

func NewOrderService(orders OrderStore, distributor *Distributor, runner AtomicRunner) *OrderService {
	return &OrderService{orders: orders, distributor: distributor, runner: runner}
}

// CreateOrder creates an order with one purchase per service and distributes
// commission for each. Any failure aborts the whole operation; no order is
// created if distribution cannot run.
func (s *OrderService) CreateOrder(ctx context.Context, buyerID primitive.ObjectID, serviceIDs []primitive.ObjectID) (*models.Order, []*DistributionResult, error) {
	order := &models.Order{
		ID:          primitive.NewObjectID(),
		OrderNumber: uuid.New().String(),
		BuyerID:     buyerID,
		ServiceIDs:  serviceIDs,
		Status:      models.OrderStatusPlaced,
		CreatedAt:   time.Now(),
	}

	var results []*DistributionResult
	err := s.runner.Run(ctx, func(ctx context.Context) error {
		if err := s.orders.Insert(ctx, order); err != nil {
			return err
		}
		for _, serviceID := range serviceIDs {
			result, err := s.distributor.Distribute(ctx, buyerID, serviceID, &order.ID)
			if err != nil {
				return err
			}
			results = append(results, result)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return order, results, nil
}

// CreatePurchase performs a direct purchase with no enclosing order.
func (s *OrderService) CreatePurchase(ctx context.Context, buyerID, serviceID primitive.ObjectID) (*DistributionResult, error) {
	var result *DistributionResult
	err := s.runner.Run(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.distributor.Distribute(ctx, buyerID, serviceID, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
