package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upline-app/upline_backend/models"
)

type distributionEnv struct {
	members   *fakeMemberStore
	catalog   *fakeCatalogStore
	rules     *fakeRuleStore
	purchases *fakePurchaseStore
	incomes   *fakeIncomeStore
	dist      *Distributor
}

func newDistributionEnv(maxLevels int) *distributionEnv {
	env := &distributionEnv{
		members:   newFakeMemberStore(),
		catalog:   newFakeCatalogStore(),
		rules:     &fakeRuleStore{},
		purchases: &fakePurchaseStore{},
		incomes:   &fakeIncomeStore{},
	}
	walker := NewAncestorWalker(env.members, maxLevels)
	env.dist = NewDistributor(env.catalog, env.rules, walker, env.purchases, env.incomes, testLogger())
	return env
}

func (env *distributionEnv) activateRule(base float64, decay bool) {
	env.rules.rules = []*models.ReferralRule{{
		BasePercentage: base,
		DecayEnabled:   decay,
		IsActive:       true,
	}}
}

func TestDistributeFlatRatePaysEveryAncestor(t *testing.T) {
	env := newDistributionEnv(10)
	env.activateRule(0.10, false)

	members := buildChain(t, env.members, 2)
	buyer := members[2]
	offering := env.catalog.add(1000)

	result, err := env.dist.Distribute(context.Background(), buyer.ID, offering.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, result.BV)
	assert.Equal(t, 2, result.LevelsPaid)
	require.Len(t, result.Payouts, 2)
	for _, payout := range result.Payouts {
		assert.Equal(t, 100.0, payout.Amount)
	}

	require.Len(t, env.incomes.incomes, 2)
	for _, income := range env.incomes.incomes {
		assert.Equal(t, buyer.ID, income.FromUserID)
		assert.Equal(t, result.PurchaseID, income.PurchaseID)
		assert.Equal(t, 1000.0, income.BV)
	}

	require.Len(t, env.incomes.logs, 1)
	assert.Equal(t, 200.0, env.incomes.logs[0].TotalAmount)
	assert.Equal(t, 2, env.incomes.logs[0].LevelsPaid)
}

func TestDistributeDecayHalvesPerLevel(t *testing.T) {
	env := newDistributionEnv(10)
	env.activateRule(0.10, true)

	members := buildChain(t, env.members, 3)
	buyer := members[3]
	offering := env.catalog.add(1000)

	result, err := env.dist.Distribute(context.Background(), buyer.ID, offering.ID, nil)
	require.NoError(t, err)

	require.Len(t, result.Payouts, 3)
	assert.Equal(t, 100.0, result.Payouts[0].Amount)
	assert.Equal(t, 50.0, result.Payouts[1].Amount)
	assert.Equal(t, 25.0, result.Payouts[2].Amount)
}

func TestDistributeDecayAmountsNeverIncrease(t *testing.T) {
	env := newDistributionEnv(10)
	env.activateRule(0.25, true)

	members := buildChain(t, env.members, 7)
	buyer := members[7]
	offering := env.catalog.add(640)

	result, err := env.dist.Distribute(context.Background(), buyer.ID, offering.ID, nil)
	require.NoError(t, err)

	for i := 1; i < len(result.Payouts); i++ {
		assert.LessOrEqual(t, result.Payouts[i].Amount, result.Payouts[i-1].Amount)
	}
}

func TestDistributeCapsAtMaxLevels(t *testing.T) {
	env := newDistributionEnv(3)
	env.activateRule(0.10, false)

	members := buildChain(t, env.members, 6)
	buyer := members[6]
	offering := env.catalog.add(100)

	result, err := env.dist.Distribute(context.Background(), buyer.ID, offering.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.LevelsPaid)
}

func TestDistributeBVComesFromCatalog(t *testing.T) {
	env := newDistributionEnv(10)
	env.activateRule(0.10, false)

	members := buildChain(t, env.members, 1)
	buyer := members[1]
	offering := env.catalog.add(250)

	result, err := env.dist.Distribute(context.Background(), buyer.ID, offering.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, 250.0, result.BV)
	require.Len(t, env.purchases.purchases, 1)
	assert.Equal(t, 250.0, env.purchases.purchases[0].BusinessVolume)
}

func TestDistributeFailsClosedWithoutActiveRule(t *testing.T) {
	env := newDistributionEnv(10)

	members := buildChain(t, env.members, 1)
	buyer := members[1]
	offering := env.catalog.add(1000)

	_, err := env.dist.Distribute(context.Background(), buyer.ID, offering.ID, nil)
	assert.ErrorIs(t, err, ErrNoActiveRule)

	// Nothing persisted: rule check precedes the purchase insert.
	assert.Empty(t, env.purchases.purchases)
	assert.Empty(t, env.incomes.incomes)
	assert.Empty(t, env.incomes.logs)
}

func TestDistributeUnknownService(t *testing.T) {
	env := newDistributionEnv(10)
	env.activateRule(0.10, false)

	members := buildChain(t, env.members, 1)
	buyer := members[1]

	_, err := env.dist.Distribute(context.Background(), buyer.ID, env.members.add(&models.Member{}).ID, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDistributeRootBuyerPaysNobody(t *testing.T) {
	env := newDistributionEnv(10)
	env.activateRule(0.10, false)

	root := addMember(env.members, "ROOT")
	offering := env.catalog.add(1000)

	result, err := env.dist.Distribute(context.Background(), root.ID, offering.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.LevelsPaid)
	assert.Empty(t, env.incomes.incomes)
	// The audit log row is still written.
	require.Len(t, env.incomes.logs, 1)
	assert.Equal(t, 0.0, env.incomes.logs[0].TotalAmount)
}

func TestDistributeSkipsZeroAmounts(t *testing.T) {
	env := newDistributionEnv(10)
	env.activateRule(0, false)

	members := buildChain(t, env.members, 2)
	buyer := members[2]
	offering := env.catalog.add(1000)

	result, err := env.dist.Distribute(context.Background(), buyer.ID, offering.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.LevelsPaid)
	assert.Empty(t, env.incomes.incomes)
}

func TestDecayFactor(t *testing.T) {
	assert.Equal(t, 1.0, decayFactor(false, 1))
	assert.Equal(t, 1.0, decayFactor(false, 7))
	assert.Equal(t, 1.0, decayFactor(true, 1))
	assert.Equal(t, 0.5, decayFactor(true, 2))
	assert.Equal(t, 0.25, decayFactor(true, 3))
	assert.Equal(t, 0.125, decayFactor(true, 4))
}
