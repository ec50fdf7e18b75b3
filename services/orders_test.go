package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-app/upline_backend/models"
)

type orderEnv struct {
	*distributionEnv
	orders *fakeOrderStore
	svc    *OrderService
}

func newOrderEnv() *orderEnv {
	env := &orderEnv{
		distributionEnv: newDistributionEnv(10),
		orders:          newFakeOrderStore(),
	}
	env.svc = NewOrderService(env.orders, env.dist, &passRunner{})
	return env
}

func TestCreateOrderOnePurchasePerService(t *testing.T) {
	env := newOrderEnv()
	env.activateRule(0.10, false)

	members := buildChain(t, env.members, 2)
	buyer := members[2]
	s1 := env.catalog.add(100)
	s2 := env.catalog.add(300)

	order, results, err := env.svc.CreateOrder(context.Background(), buyer.ID, []primitive.ObjectID{s1.ID, s2.ID})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPlaced, order.Status)
	assert.NotEmpty(t, order.OrderNumber)
	require.Len(t, results, 2)
	assert.Equal(t, 100.0, results[0].BV)
	assert.Equal(t, 300.0, results[1].BV)

	// Every purchase links back to the order.
	require.Len(t, env.purchases.purchases, 2)
	for _, purchase := range env.purchases.purchases {
		require.NotNil(t, purchase.OrderID)
		assert.Equal(t, order.ID, *purchase.OrderID)
	}

	// Two ancestors paid per purchase.
	assert.Len(t, env.incomes.incomes, 4)
	assert.Len(t, env.incomes.logs, 2)
}

func TestCreateOrderFailsWhenAServiceIsUnknown(t *testing.T) {
	env := newOrderEnv()
	env.activateRule(0.10, false)

	members := buildChain(t, env.members, 1)
	buyer := members[1]
	s1 := env.catalog.add(100)

	_, _, err := env.svc.CreateOrder(context.Background(), buyer.ID, []primitive.ObjectID{s1.ID, primitive.NewObjectID()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateOrderFailsClosedWithoutRule(t *testing.T) {
	env := newOrderEnv()

	members := buildChain(t, env.members, 1)
	buyer := members[1]
	s1 := env.catalog.add(100)

	_, _, err := env.svc.CreateOrder(context.Background(), buyer.ID, []primitive.ObjectID{s1.ID})
	assert.ErrorIs(t, err, ErrNoActiveRule)
	assert.Empty(t, env.incomes.incomes)
}

func TestCreatePurchaseHasNoOrder(t *testing.T) {
	env := newOrderEnv()
	env.activateRule(0.10, false)

	members := buildChain(t, env.members, 1)
	buyer := members[1]
	offering := env.catalog.add(100)

	result, err := env.svc.CreatePurchase(context.Background(), buyer.ID, offering.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.LevelsPaid)

	require.Len(t, env.purchases.purchases, 1)
	assert.Nil(t, env.purchases.purchases[0].OrderID)
	assert.Empty(t, env.orders.orders)
}

func TestCreateOrderThenReverseRoundTrip(t *testing.T) {
	env := newOrderEnv()
	env.activateRule(0.10, false)

	members := buildChain(t, env.members, 3)
	buyer := members[3]
	offering := env.catalog.add(1000)

	order, _, err := env.svc.CreateOrder(context.Background(), buyer.ID, []primitive.ObjectID{offering.ID})
	require.NoError(t, err)
	require.Len(t, env.incomes.incomes, 3)

	reversal := NewReversalService(env.orders, env.purchases, env.incomes, &passRunner{}, testLogger())
	removed, err := reversal.ReverseOrder(context.Background(), order.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(3), removed)
	assert.Empty(t, env.incomes.incomes)
	assert.Len(t, env.incomes.logs, 1)
}
