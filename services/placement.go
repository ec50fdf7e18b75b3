package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-app/upline_backend/models"
)

const defaultPlacementRetries = 3

// PlacementService decides where a new member attaches to the referral tree.
//
// Binary mode (self-service signup): breadth-first search from the sponsor,
// left before right at each level, for the first open slot. Slot ownership is
// re-validated at write time by the partial unique index on
// (parentId, position); losing that race retries the whole search.
//
// Unilevel mode (admin reassignment): attach directly under the sponsor with
// no slot and no capacity limit. Only members with no parent can be assigned,
// and the assignment is irreversible.
type PlacementService struct {
	members    MemberStore
	maxRetries int
	log        *logrus.Logger
}

func NewPlacementService(members MemberStore, log *logrus.Logger) *PlacementService {
	return &PlacementService{
		members:    members,
		maxRetries: defaultPlacementRetries,
		log:        log,
	}
}

// PlaceBinary places memberID under the subtree of the sponsor identified by
// referralCode, spilling over top-down, left-before-right.
func (s *PlacementService) PlaceBinary(ctx context.Context, memberID primitive.ObjectID, referralCode string) (*models.PlacementResult, error) {
	sponsor, err := s.members.FindByReferralCode(ctx, referralCode)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidReferral
		}
		return nil, err
	}
	if sponsor.ID == memberID {
		return nil, ErrInvalidOperation
	}

	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.ParentID != nil {
		return nil, ErrAlreadyPlaced
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		parentID, pos, err := s.findOpenSlot(ctx, sponsor.ID)
		if err != nil {
			return nil, err
		}

		err = s.members.AttachBinary(ctx, memberID, parentID, pos)
		if err == nil {
			return &models.PlacementResult{ParentID: parentID, Position: pos}, nil
		}
		if !errors.Is(err, ErrConcurrencyConflict) {
			return nil, err
		}
		lastErr = err
		s.log.WithFields(logrus.Fields{
			"member":  memberID.Hex(),
			"parent":  parentID.Hex(),
			"slot":    pos,
			"attempt": attempt + 1,
		}).Warn("binary slot taken by concurrent signup, retrying search")
	}
	return nil, lastErr
}

// findOpenSlot walks the binary subtree of sponsorID breadth-first and
// returns the first parent with an open left or right slot.
func (s *PlacementService) findOpenSlot(ctx context.Context, sponsorID primitive.ObjectID) (primitive.ObjectID, models.Position, error) {
	queue := []primitive.ObjectID{sponsorID}
	seen := map[primitive.ObjectID]bool{sponsorID: true}

	for len(queue) > 0 {
		nodeID := queue[0]
		queue = queue[1:]

		left, right, err := s.members.BinaryChildren(ctx, nodeID)
		if err != nil {
			return primitive.NilObjectID, "", err
		}
		if left == nil {
			return nodeID, models.PositionLeft, nil
		}
		if right == nil {
			return nodeID, models.PositionRight, nil
		}

		for _, child := range []*models.Member{left, right} {
			if seen[child.ID] {
				return primitive.NilObjectID, "", ErrCorruptTree
			}
			seen[child.ID] = true
			queue = append(queue, child.ID)
		}
	}
	// Unreachable: a full binary tree always has open slots at the frontier.
	return primitive.NilObjectID, "", ErrCorruptTree
}

// AssignUnilevel attaches targetID directly under the member owning
// referralCode, with no slot. Admin-only; the target must not have a parent
// yet and cannot sponsor itself.
func (s *PlacementService) AssignUnilevel(ctx context.Context, targetID primitive.ObjectID, referralCode string) (*models.PlacementResult, error) {
	sponsor, err := s.members.FindByReferralCode(ctx, referralCode)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidReferral
		}
		return nil, err
	}
	if sponsor.ID == targetID {
		return nil, ErrInvalidOperation
	}

	target, err := s.members.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.ParentID != nil {
		return nil, ErrAlreadyPlaced
	}

	if err := s.members.AttachUnilevel(ctx, targetID, sponsor.ID); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"member":  targetID.Hex(),
		"sponsor": sponsor.ID.Hex(),
	}).Info("unilevel placement assigned")
	return &models.PlacementResult{ParentID: sponsor.ID}, nil
}
