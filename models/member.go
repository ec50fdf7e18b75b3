// models/member.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Position is the slot a binary-placed member occupies under its parent.
// Unilevel-placed members and the root carry no position.
type Position string

const (
	PositionLeft  Position = "left"
	PositionRight Position = "right"
)

// Member is a user in the referral network. ParentID/Position describe the
// placement: a nil ParentID means root (or not yet placed), a non-empty
// Position means binary placement, an empty Position with a ParentID means
// unilevel placement. The (parentId, position) pair is kept unique by a
// partial index for binary placements only.
type Member struct {
	ID           primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Email        string              `json:"email" bson:"email"`
	Password     string              `json:"password,omitempty" bson:"password"`
	FullName     string              `json:"fullName" bson:"fullName"`
	UserType     string              `json:"userType" bson:"userType"` // "user", "admin"
	IsActive     bool                `json:"isActive" bson:"isActive"`
	ReferralCode string              `json:"referralCode,omitempty" bson:"referralCode,omitempty"`
	ParentID     *primitive.ObjectID `json:"parentId,omitempty" bson:"parentId,omitempty"`
	Position     Position            `json:"position,omitempty" bson:"position,omitempty"`
	CreatedAt    time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// IsBinaryPlaced reports whether the member occupies a left/right slot.
func (m *Member) IsBinaryPlaced() bool {
	return m.ParentID != nil && (m.Position == PositionLeft || m.Position == PositionRight)
}

type SignupRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	FullName     string `json:"fullName" validate:"required"`
	ReferralCode string `json:"referralCode,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AssignParentRequest struct {
	TargetID     string `json:"targetId" validate:"required"`
	ReferralCode string `json:"referralCode" validate:"required"`
}

// PlacementResult is returned to signup and admin-assignment callers.
type PlacementResult struct {
	ParentID primitive.ObjectID `json:"parentId"`
	Position Position           `json:"position,omitempty"`
}

// TreeNode is one node of a materialized downline, depth-annotated from the
// requested root. Binary children come first, left before right.
type TreeNode struct {
	ID           primitive.ObjectID `json:"id"`
	FullName     string             `json:"fullName"`
	ReferralCode string             `json:"referralCode,omitempty"`
	Position     Position           `json:"position,omitempty"`
	Depth        int                `json:"depth"`
	Children     []*TreeNode        `json:"children,omitempty"`
}
