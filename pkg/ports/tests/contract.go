package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/murmur/pkg/domain"
	"github.com/aretw0/murmur/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NodeRegistryContractTest verifies that an adapter complies with ports.NodeRegistry.
// expectedIDs lists the IDs the registry was seeded with, in registry order.
func NodeRegistryContractTest(t *testing.T, registry ports.NodeRegistry, expectedIDs []string) {
	t.Helper()

	t.Run("FindNode_Success", func(t *testing.T) {
		for _, id := range expectedIDs {
			node, ok := registry.FindNode(id)
			require.True(t, ok, "node %s should be found", id)
			assert.Equal(t, id, node.ID)
		}
	})

	t.Run("FindNode_NotFound", func(t *testing.T) {
		_, ok := registry.FindNode("non-existent-node")
		assert.False(t, ok)
	})

	t.Run("ListNodes", func(t *testing.T) {
		nodes := registry.ListNodes()
		ids := make([]string, 0, len(nodes))
		for _, n := range nodes {
			ids = append(ids, n.ID)
		}
		assert.Equal(t, expectedIDs, ids)
	})

	t.Run("Links_Symmetric", func(t *testing.T) {
		for _, n := range registry.ListNodes() {
			for _, c := range n.Children {
				assert.Same(t, n, c.Parent(n.ID), "child %s must link back to %s", c.ID, n.ID)
			}
			for _, p := range n.Parents {
				assert.Same(t, n, p.Child(n.ID), "parent %s must link down to %s", p.ID, n.ID)
			}
		}
	})
}

// SnapshotStoreContractTest verifies that an adapter complies with ports.SnapshotStore.
func SnapshotStoreContractTest(t *testing.T, store ports.SnapshotStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	newSnapshot := func() *domain.Snapshot {
		return &domain.Snapshot{
			Language: "en",
			Current:  &domain.ProcessedDialogue{NodeID: "forest", Body: "Trees.", Slot: domain.MainSlot},
			History: []domain.ProcessedDialogue{
				{NodeID: "intro", ContentIndex: 0, Body: "Hello", Slot: domain.MainSlot},
				{NodeID: "intro", ContentIndex: 1, Body: " again", Slot: domain.MainSlot, Concatenated: true, Separator: ","},
			},
			Main: &domain.DisplayedDialogue{
				ProcessedDialogue: domain.ProcessedDialogue{NodeID: "forest", Body: "Trees.", Slot: domain.MainSlot},
			},
			Branches: []*domain.DisplayedDialogue{nil, nil},
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		snapshot := newSnapshot()
		require.NoError(t, store.Save(ctx, sessionID, snapshot), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snapshot.Language, loaded.Language)
		assert.Equal(t, snapshot.Current, loaded.Current)
		assert.Equal(t, snapshot.History, loaded.History)
		assert.Equal(t, snapshot.Main, loaded.Main)
		assert.Len(t, loaded.Branches, 2)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, newSnapshot()))
		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, newSnapshot()))
		require.NoError(t, store.Save(ctx, id2, newSnapshot()))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
