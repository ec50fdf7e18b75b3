package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-app/upline_backend/models"
)

// Ancestor pairs a member with its distance from the starting member.
// Level 1 is the immediate parent.
type Ancestor struct {
	Member models.Member `json:"member"`
	Level  int           `json:"level"`
}

// AncestorWalker produces the ordered ancestor chain of a member, stopping at
// the root or after maxLevels hops, whichever comes first. Placement never
// creates cycles, but the walker still treats a repeated ancestor id as
// ErrCorruptTree instead of looping.
type AncestorWalker struct {
	members   MemberStore
	maxLevels int
}

func NewAncestorWalker(members MemberStore, maxLevels int) *AncestorWalker {
	return &AncestorWalker{members: members, maxLevels: maxLevels}
}

func (w *AncestorWalker) Chain(ctx context.Context, memberID primitive.ObjectID) ([]Ancestor, error) {
	member, err := w.members.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	seen := map[primitive.ObjectID]bool{member.ID: true}
	var chain []Ancestor

	current := member
	for level := 1; level <= w.maxLevels; level++ {
		if current.ParentID == nil {
			break
		}
		if seen[*current.ParentID] {
			return nil, ErrCorruptTree
		}
		parent, err := w.members.FindByID(ctx, *current.ParentID)
		if err != nil {
			return nil, err
		}
		seen[parent.ID] = true
		chain = append(chain, Ancestor{Member: *parent, Level: level})
		current = parent
	}
	return chain, nil
}
