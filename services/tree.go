package services

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-app/upline_backend/models"
)

// MaxDownlineDepth caps the depth callers may request from the tree reader.
const MaxDownlineDepth = 10

const downlineCacheTTL = 30 * time.Second

// TreeService materializes a member's downline for dashboards. Read-only and
// not money-moving; it shares the acyclic-by-construction assumption with the
// ancestor walker and the same repeat-id defence. Results are cached in Redis
// for a short TTL when a client is configured.
type TreeService struct {
	members MemberStore
	cache   *redis.Client // nil disables caching
}

func NewTreeService(members MemberStore, cache *redis.Client) *TreeService {
	return &TreeService{members: members, cache: cache}
}

// Downline returns the nested descendant tree of rootID, at most maxDepth
// levels deep. Depth is clamped to MaxDownlineDepth. Binary children are
// ordered left before right; unilevel children follow in creation order.
func (s *TreeService) Downline(ctx context.Context, rootID primitive.ObjectID, maxDepth int) (*models.TreeNode, error) {
	if maxDepth < 1 || maxDepth > MaxDownlineDepth {
		maxDepth = MaxDownlineDepth
	}

	if cached := s.fromCache(ctx, rootID, maxDepth); cached != nil {
		return cached, nil
	}

	root, err := s.members.FindByID(ctx, rootID)
	if err != nil {
		return nil, err
	}

	seen := map[primitive.ObjectID]bool{root.ID: true}
	node := &models.TreeNode{
		ID:           root.ID,
		FullName:     root.FullName,
		ReferralCode: root.ReferralCode,
		Position:     root.Position,
		Depth:        0,
	}
	if err := s.expand(ctx, node, 1, maxDepth, seen); err != nil {
		return nil, err
	}

	s.toCache(ctx, rootID, maxDepth, node)
	return node, nil
}

func (s *TreeService) expand(ctx context.Context, node *models.TreeNode, depth, maxDepth int, seen map[primitive.ObjectID]bool) error {
	if depth > maxDepth {
		return nil
	}

	children, err := s.members.ChildrenOf(ctx, node.ID)
	if err != nil {
		return err
	}
	sortChildren(children)

	for _, child := range children {
		if seen[child.ID] {
			return ErrCorruptTree
		}
		seen[child.ID] = true

		childNode := &models.TreeNode{
			ID:           child.ID,
			FullName:     child.FullName,
			ReferralCode: child.ReferralCode,
			Position:     child.Position,
			Depth:        depth,
		}
		if err := s.expand(ctx, childNode, depth+1, maxDepth, seen); err != nil {
			return err
		}
		node.Children = append(node.Children, childNode)
	}
	return nil
}

// sortChildren orders left, then right, then unilevel children by creation
// time.
func sortChildren(children []models.Member) {
	rank := func(m models.Member) int {
		switch m.Position {
		case models.PositionLeft:
			return 0
		case models.PositionRight:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(children, func(i, j int) bool {
		ri, rj := rank(children[i]), rank(children[j])
		if ri != rj {
			return ri < rj
		}
		return children[i].CreatedAt.Before(children[j].CreatedAt)
	})
}

func downlineCacheKey(rootID primitive.ObjectID, depth int) string {
	return "downline:" + rootID.Hex() + ":" + strconv.Itoa(depth)
}

func (s *TreeService) fromCache(ctx context.Context, rootID primitive.ObjectID, depth int) *models.TreeNode {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, downlineCacheKey(rootID, depth)).Result()
	if err != nil {
		return nil
	}
	var node models.TreeNode
	if err := json.Unmarshal([]byte(raw), &node); err != nil {
		return nil
	}
	return &node
}

func (s *TreeService) toCache(ctx context.Context, rootID primitive.ObjectID, depth int, node *models.TreeNode) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(node)
	if err != nil {
		return
	}
	s.cache.Set(ctx, downlineCacheKey(rootID, depth), raw, downlineCacheTTL)
}
