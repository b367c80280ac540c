package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"testing"

	"github.com/aretw0/murmur/pkg/adapters/memory"
	"github.com/aretw0/murmur/pkg/domain"
	"github.com/aretw0/murmur/pkg/persistence/middleware"
	"github.com/aretw0/murmur/pkg/ports"
	"github.com/aretw0/murmur/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, middleware.KeySize)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func sealedStore(t *testing.T, next ports.SnapshotStore, active []byte, fallback ...[]byte) ports.SnapshotStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
	require.NoError(t, err)
	return middleware.Chain(next, mw)
}

func secretSnapshot(body string) *domain.Snapshot {
	return &domain.Snapshot{
		Language: "en",
		Current:  &domain.ProcessedDialogue{NodeID: "vault", Body: body, Slot: domain.MainSlot},
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	tests.SnapshotStoreContractTest(t, sealedStore(t, memory.NewStore(), generateKey(t)))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	store := sealedStore(t, underlying, generateKey(t))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", secretSnapshot("The code is 1234.")))

	raw, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)
	assert.Nil(t, raw.Current, "the envelope must not expose the traversal")
	assert.Empty(t, raw.History)

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "The code is 1234.", loaded.Current.Body)
	assert.Empty(t, loaded.Sealed)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	oldStore := sealedStore(t, underlying, oldKey)
	require.NoError(t, oldStore.Save(ctx, "s1", secretSnapshot("old")))

	newStore := sealedStore(t, underlying, newKey, oldKey)
	loaded, err := newStore.Load(ctx, "s1")
	require.NoError(t, err, "fallback key must open snapshots sealed before the rotation")
	assert.Equal(t, "old", loaded.Current.Body)

	require.NoError(t, newStore.Save(ctx, "s1", secretSnapshot("new")))
	_, err = oldStore.Load(ctx, "s1")
	assert.Error(t, err, "old key alone cannot open snapshots sealed with the new key")
}

func TestEncryptionMiddleware_PlainSnapshot(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "plain", secretSnapshot("visible")))

	_, err := sealedStore(t, underlying, generateKey(t)).Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)
}

func TestEncryptionMiddleware_InvalidKeys(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.Error(t, err)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.Error(t, err)
}

func TestDecodeKey(t *testing.T) {
	key := generateKey(t)
	decoded, err := middleware.DecodeKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, decoded)

	_, err = middleware.DecodeKey("not base64!")
	assert.Error(t, err)
	_, err = middleware.DecodeKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
}

func TestChain_Order(t *testing.T) {
	var calls []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.SnapshotStore) ports.SnapshotStore {
			return recordingStore{SnapshotStore: next, name: name, calls: &calls}
		}
	}

	store := middleware.Chain(memory.NewStore(), tag("outer"), nil, tag("inner"))
	require.NoError(t, store.Save(context.Background(), "s1", &domain.Snapshot{}))
	assert.Equal(t, []string{"outer", "inner"}, calls)
}

type recordingStore struct {
	ports.SnapshotStore
	name  string
	calls *[]string
}

func (s recordingStore) Save(ctx context.Context, id string, snapshot *domain.Snapshot) error {
	*s.calls = append(*s.calls, s.name)
	return s.SnapshotStore.Save(ctx, id, snapshot)
}
