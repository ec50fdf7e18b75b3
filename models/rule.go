// models/rule.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReferralRule is a commission rule. At most one rule is active at a time;
// activating a rule deactivates every other rule in the same atomic write.
// BasePercentage is stored normalized to [0,1].
type ReferralRule struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	BasePercentage float64            `json:"basePercentage" bson:"basePercentage"`
	DecayEnabled   bool               `json:"decayEnabled" bson:"decayEnabled"`
	IsActive       bool               `json:"isActive" bson:"isActive"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type SetRuleRequest struct {
	// Operators may send either a fraction (0.1) or a percent (10);
	// values above 1 are divided by 100.
	BasePercentage float64 `json:"basePercentage" validate:"gte=0"`
	DecayEnabled   bool    `json:"decayEnabled"`
}
