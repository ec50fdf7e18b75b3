package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetActiveStoresFraction(t *testing.T) {
	store := &fakeRuleStore{}
	svc := NewRuleService(store, &passRunner{}, testLogger())

	rule, err := svc.SetActive(context.Background(), 0.10, false)
	require.NoError(t, err)
	assert.Equal(t, 0.10, rule.BasePercentage)
	assert.True(t, rule.IsActive)
}

func TestSetActiveNormalizesPercent(t *testing.T) {
	store := &fakeRuleStore{}
	svc := NewRuleService(store, &passRunner{}, testLogger())

	rule, err := svc.SetActive(context.Background(), 10, true)
	require.NoError(t, err)
	assert.Equal(t, 0.10, rule.BasePercentage)
	assert.True(t, rule.DecayEnabled)
}

func TestSetActiveRejectsOutOfRange(t *testing.T) {
	store := &fakeRuleStore{}
	svc := NewRuleService(store, &passRunner{}, testLogger())

	_, err := svc.SetActive(context.Background(), -0.1, false)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = svc.SetActive(context.Background(), 250, false)
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestSetActiveDeactivatesPrevious(t *testing.T) {
	store := &fakeRuleStore{}
	svc := NewRuleService(store, &passRunner{}, testLogger())

	_, err := svc.SetActive(context.Background(), 0.10, false)
	require.NoError(t, err)
	second, err := svc.SetActive(context.Background(), 0.20, true)
	require.NoError(t, err)

	assert.Equal(t, 1, store.activeCount())
	active, err := store.Active(context.Background())
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, 0.20, active.BasePercentage)
}

func TestActiveFailsClosedWhenNoneActive(t *testing.T) {
	store := &fakeRuleStore{}
	svc := NewRuleService(store, &passRunner{}, testLogger())

	_, err := svc.Active(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveRule)
}

func TestConcurrentActivationLeavesExactlyOneActive(t *testing.T) {
	store := &fakeRuleStore{}
	svc := NewRuleService(store, &passRunner{}, testLogger())

	const attempts = 20
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.SetActive(context.Background(), float64(i+1), i%2 == 0)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, store.activeCount())
}
