// models/order.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OrderStatusPlaced    = "placed"
	OrderStatusCancelled = "cancelled"
)

// Order groups one or more purchases made in a single checkout.
type Order struct {
	ID          primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	OrderNumber string               `json:"orderNumber" bson:"orderNumber"`
	BuyerID     primitive.ObjectID   `json:"buyerId" bson:"buyerId"`
	ServiceIDs  []primitive.ObjectID `json:"serviceIds" bson:"serviceIds"`
	Status      string               `json:"status" bson:"status"`
	CreatedAt   time.Time            `json:"createdAt" bson:"createdAt"`
	CancelledAt *time.Time           `json:"cancelledAt,omitempty" bson:"cancelledAt,omitempty"`
}

// Purchase records a single service bought by a member. OrderID is nil for
// direct purchases. BusinessVolume is snapshotted from the catalog at
// distribution time by the commission engine, never taken from the caller.
type Purchase struct {
	ID             primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	BuyerID        primitive.ObjectID  `json:"buyerId" bson:"buyerId"`
	ServiceID      primitive.ObjectID  `json:"serviceId" bson:"serviceId"`
	OrderID        *primitive.ObjectID `json:"orderId,omitempty" bson:"orderId,omitempty"`
	BusinessVolume float64             `json:"businessVolume" bson:"businessVolume"`
	CreatedAt      time.Time           `json:"createdAt" bson:"createdAt"`
}

type CreateOrderRequest struct {
	ServiceIDs []string `json:"serviceIds" validate:"required,min=1,dive,required"`
}

type CreatePurchaseRequest struct {
	ServiceID string `json:"serviceId" validate:"required"`
}
