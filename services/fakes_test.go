package services

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-app/upline_backend/models"
)

// In-memory fakes of the store interfaces. The member fake enforces the same
// slot-uniqueness and already-placed rules the Mongo repository gets from its
// partial unique index, which is what makes the race tests meaningful.

type fakeMemberStore struct {
	mu      sync.Mutex
	members map[primitive.ObjectID]*models.Member
	// attachHook runs before a binary attach is applied; returning an error
	// aborts the attach. Used to inject slot conflicts.
	attachHook func(memberID, parentID primitive.ObjectID, pos models.Position) error
}

func newFakeMemberStore() *fakeMemberStore {
	return &fakeMemberStore{members: make(map[primitive.ObjectID]*models.Member)}
}

func (s *fakeMemberStore) add(m *models.Member) *models.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	s.members[m.ID] = m
	return m
}

func (s *fakeMemberStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *m
	return &copied, nil
}

func (s *fakeMemberStore) FindByReferralCode(_ context.Context, code string) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.ReferralCode == code {
			copied := *m
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeMemberStore) BinaryChildren(_ context.Context, parentID primitive.ObjectID) (*models.Member, *models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var left, right *models.Member
	for _, m := range s.members {
		if m.ParentID == nil || *m.ParentID != parentID {
			continue
		}
		copied := *m
		switch m.Position {
		case models.PositionLeft:
			left = &copied
		case models.PositionRight:
			right = &copied
		}
	}
	return left, right, nil
}

func (s *fakeMemberStore) ChildrenOf(_ context.Context, parentID primitive.ObjectID) ([]models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var children []models.Member
	for _, m := range s.members {
		if m.ParentID != nil && *m.ParentID == parentID {
			children = append(children, *m)
		}
	}
	return children, nil
}

func (s *fakeMemberStore) AttachBinary(_ context.Context, memberID, parentID primitive.ObjectID, pos models.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attachHook != nil {
		if err := s.attachHook(memberID, parentID, pos); err != nil {
			return err
		}
	}

	member, ok := s.members[memberID]
	if !ok {
		return ErrNotFound
	}
	if member.ParentID != nil {
		return ErrAlreadyPlaced
	}
	for _, m := range s.members {
		if m.ParentID != nil && *m.ParentID == parentID && m.Position == pos {
			return ErrConcurrencyConflict
		}
	}
	pid := parentID
	member.ParentID = &pid
	member.Position = pos
	return nil
}

func (s *fakeMemberStore) AttachUnilevel(_ context.Context, memberID, parentID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	member, ok := s.members[memberID]
	if !ok {
		return ErrNotFound
	}
	if member.ParentID != nil {
		return ErrAlreadyPlaced
	}
	pid := parentID
	member.ParentID = &pid
	member.Position = ""
	return nil
}

// setParent rewires a member directly, bypassing the attach rules. Tests use
// it to fabricate corrupt trees.
func (s *fakeMemberStore) setParent(memberID, parentID primitive.ObjectID, pos models.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pid := parentID
	s.members[memberID].ParentID = &pid
	s.members[memberID].Position = pos
}

type fakeCatalogStore struct {
	offerings map[primitive.ObjectID]*models.ServiceOffering
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{offerings: make(map[primitive.ObjectID]*models.ServiceOffering)}
}

func (s *fakeCatalogStore) add(bv float64) *models.ServiceOffering {
	offering := &models.ServiceOffering{
		ID:             primitive.NewObjectID(),
		Name:           "offering",
		BusinessVolume: bv,
		IsActive:       true,
	}
	s.offerings[offering.ID] = offering
	return offering
}

func (s *fakeCatalogStore) FindServiceByID(_ context.Context, id primitive.ObjectID) (*models.ServiceOffering, error) {
	offering, ok := s.offerings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return offering, nil
}

type fakeRuleStore struct {
	mu    sync.Mutex
	rules []*models.ReferralRule
}

func (s *fakeRuleStore) Active(_ context.Context) (*models.ReferralRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rules {
		if r.IsActive {
			copied := *r
			return &copied, nil
		}
	}
	return nil, ErrNoActiveRule
}

func (s *fakeRuleStore) DeactivateAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rules {
		r.IsActive = false
	}
	return nil
}

func (s *fakeRuleStore) Insert(_ context.Context, rule *models.ReferralRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rule.ID = primitive.NewObjectID()
	s.rules = append(s.rules, rule)
	return nil
}

func (s *fakeRuleStore) activeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, r := range s.rules {
		if r.IsActive {
			count++
		}
	}
	return count
}

type fakePurchaseStore struct {
	mu        sync.Mutex
	purchases []models.Purchase
}

func (s *fakePurchaseStore) Insert(_ context.Context, purchase *models.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchases = append(s.purchases, *purchase)
	return nil
}

func (s *fakePurchaseStore) ByOrderID(_ context.Context, orderID primitive.ObjectID) ([]models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Purchase
	for _, p := range s.purchases {
		if p.OrderID != nil && *p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeIncomeStore struct {
	mu      sync.Mutex
	incomes []models.Income
	logs    []models.IncomeLog
}

func (s *fakeIncomeStore) InsertIncome(_ context.Context, income *models.Income) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	income.ID = primitive.NewObjectID()
	s.incomes = append(s.incomes, *income)
	return nil
}

func (s *fakeIncomeStore) InsertLog(_ context.Context, log *models.IncomeLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.ID = primitive.NewObjectID()
	s.logs = append(s.logs, *log)
	return nil
}

func (s *fakeIncomeStore) DeleteByPurchaseIDs(_ context.Context, purchaseIDs []primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[primitive.ObjectID]bool, len(purchaseIDs))
	for _, id := range purchaseIDs {
		ids[id] = true
	}
	var kept []models.Income
	var removed int64
	for _, income := range s.incomes {
		if ids[income.PurchaseID] {
			removed++
			continue
		}
		kept = append(kept, income)
	}
	s.incomes = kept
	return removed, nil
}

type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]*models.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[primitive.ObjectID]*models.Order)}
}

func (s *fakeOrderStore) Insert(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	copied := *order
	s.orders[order.ID] = &copied
	return nil
}

func (s *fakeOrderStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *fakeOrderStore) MarkCancelled(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	order.Status = models.OrderStatusCancelled
	order.CancelledAt = &now
	return nil
}

// passRunner executes work directly, serialized by a mutex so that compound
// writes appear atomic to concurrent test goroutines, as a real transaction
// would make them.
type passRunner struct {
	mu sync.Mutex
}

func (r *passRunner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}

func (r *passRunner) Transactional() bool { return true }
