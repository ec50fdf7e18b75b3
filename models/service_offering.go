// models/service_offering.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServiceOffering is a catalog item a seller lists. BusinessVolume is the
// point value commissions are computed from; it is distinct from Price and
// is always read server-side, never trusted from a purchase request.
type ServiceOffering struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	SellerID       primitive.ObjectID `json:"sellerId" bson:"sellerId"`
	Name           string             `json:"name" bson:"name"`
	Description    string             `json:"description,omitempty" bson:"description,omitempty"`
	Category       string             `json:"category,omitempty" bson:"category,omitempty"`
	Price          float64            `json:"price" bson:"price"`
	BusinessVolume float64            `json:"businessVolume" bson:"businessVolume"`
	IsActive       bool               `json:"isActive" bson:"isActive"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type CreateServiceRequest struct {
	Name           string  `json:"name" validate:"required"`
	Description    string  `json:"description"`
	Category       string  `json:"category"`
	Price          float64 `json:"price" validate:"gte=0"`
	BusinessVolume float64 `json:"businessVolume" validate:"gte=0"`
}
