package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upline-app/upline_backend/models"
)

// buildChain creates root <- m1 <- m2 <- ... <- mN and returns them root
// first.
func buildChain(t *testing.T, store *fakeMemberStore, length int) []*models.Member {
	t.Helper()
	members := make([]*models.Member, 0, length+1)
	root := addMember(store, "ROOT")
	members = append(members, root)
	parent := root
	for i := 0; i < length; i++ {
		child := store.add(&models.Member{FullName: "m"})
		require.NoError(t, store.AttachUnilevel(context.Background(), child.ID, parent.ID))
		members = append(members, child)
		parent = child
	}
	return members
}

func TestAncestorChainOrderAndLevels(t *testing.T) {
	store := newFakeMemberStore()
	members := buildChain(t, store, 3)
	leaf := members[len(members)-1]

	walker := NewAncestorWalker(store, 10)
	chain, err := walker.Chain(context.Background(), leaf.ID)
	require.NoError(t, err)

	require.Len(t, chain, 3)
	assert.Equal(t, members[2].ID, chain[0].Member.ID)
	assert.Equal(t, 1, chain[0].Level)
	assert.Equal(t, members[1].ID, chain[1].Member.ID)
	assert.Equal(t, 2, chain[1].Level)
	assert.Equal(t, members[0].ID, chain[2].Member.ID)
	assert.Equal(t, 3, chain[2].Level)
}

func TestAncestorChainStopsAtMaxLevels(t *testing.T) {
	store := newFakeMemberStore()
	members := buildChain(t, store, 8)
	leaf := members[len(members)-1]

	walker := NewAncestorWalker(store, 5)
	chain, err := walker.Chain(context.Background(), leaf.ID)
	require.NoError(t, err)
	assert.Len(t, chain, 5)
	assert.Equal(t, 5, chain[len(chain)-1].Level)
}

func TestAncestorChainRootHasNoAncestors(t *testing.T) {
	store := newFakeMemberStore()
	root := addMember(store, "ROOT")

	walker := NewAncestorWalker(store, 10)
	chain, err := walker.Chain(context.Background(), root.ID)
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestAncestorChainUnknownMember(t *testing.T) {
	store := newFakeMemberStore()
	walker := NewAncestorWalker(store, 10)

	missing := store.add(&models.Member{FullName: "x"})
	store.mu.Lock()
	delete(store.members, missing.ID)
	store.mu.Unlock()

	_, err := walker.Chain(context.Background(), missing.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAncestorChainDetectsCycle(t *testing.T) {
	store := newFakeMemberStore()
	members := buildChain(t, store, 2)
	root, leaf := members[0], members[2]
	// Corrupt: the root points back down at the leaf.
	store.setParent(root.ID, leaf.ID, "")

	walker := NewAncestorWalker(store, 10)
	_, err := walker.Chain(context.Background(), leaf.ID)
	assert.ErrorIs(t, err, ErrCorruptTree)
}

func TestAncestorChainCycleBeyondCapIsJustCapped(t *testing.T) {
	// With a cap shorter than the cycle circumference the walker stops at
	// the cap without error; the cap is the outer defence.
	store := newFakeMemberStore()
	members := buildChain(t, store, 4)
	root, leaf := members[0], members[4]
	store.setParent(root.ID, leaf.ID, "")

	walker := NewAncestorWalker(store, 3)
	chain, err := walker.Chain(context.Background(), leaf.ID)
	require.NoError(t, err)
	assert.Len(t, chain, 3)
}
