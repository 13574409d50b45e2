package registry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/content-hash-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapStore is a StateStore recording the order of writes.
type mapStore struct {
	values map[string][]byte
	writes []common.Hash
	putErr error
}

func newMapStore() *mapStore {
	return &mapStore{values: make(map[string][]byte)}
}

func (s *mapStore) Get(_ context.Context, key []byte) ([]byte, error) {
	v, ok := s.values[string(key)]
	if !ok {
		return nil, interfaces.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *mapStore) Put(_ context.Context, key []byte, value []byte) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.values[string(key)] = append([]byte(nil), value...)
	s.writes = append(s.writes, common.BytesToHash(key))
	return nil
}

func TestStorageLayout(t *testing.T) {
	assert.Equal(t, common.Hash{}, ownerSlot)
	assert.Equal(t, common.HexToHash("0x01"), lengthSlot)
	assert.Equal(t, common.HexToHash("0xb10e2d527612073b26eecdfd717e6a320cf44b4afac2b0732d9fcbe2b7fa0cf6"), entrySlot(0))
	assert.Equal(t, common.HexToHash("0xb10e2d527612073b26eecdfd717e6a320cf44b4afac2b0732d9fcbe2b7fa0cf7"), entrySlot(1))
}

func TestDeploy(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()

	c, err := Deploy(ctx, store, identityA)
	require.NoError(t, err)

	owner, err := c.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, identityA, owner)

	list, err := c.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	// owner is stored left-padded
	raw := store.values[string(ownerSlot[:])]
	assert.Equal(t, common.LeftPadBytes(identityA[:], 32), raw)

	_, err = Deploy(ctx, store, identityB)
	assert.ErrorIs(t, err, ErrAlreadyDeployed)

	owner, err = At(store).Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, identityA, owner, "failed redeploy must not change the owner")
}

func TestDeployZeroOwner(t *testing.T) {
	_, err := Deploy(context.Background(), newMapStore(), interfaces.Identity{})
	assert.ErrorIs(t, err, ErrZeroOwner)
}

func TestOwnerNotDeployed(t *testing.T) {
	_, err := At(newMapStore()).Owner(context.Background())
	assert.ErrorIs(t, err, ErrNotDeployed)
}

func TestContractAppendAndList(t *testing.T) {
	ctx := context.Background()
	c, err := Deploy(ctx, newMapStore(), identityA)
	require.NoError(t, err)

	require.NoError(t, c.Append(ctx, hashAAAA))
	require.NoError(t, c.Append(ctx, hashBBBB))

	list, err := c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []interfaces.ContentHash{hashAAAA, hashBBBB}, list)

	n, err := c.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	again, err := c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, list, again)

	list[0] = interfaces.ContentHash{}
	again, err = c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, hashAAAA, again[0])

	owner, err := c.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, identityA, owner)
}

func TestContractAppendWritesEntryBeforeLength(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	c, err := Deploy(ctx, store, identityA)
	require.NoError(t, err)

	store.writes = nil
	require.NoError(t, c.Append(ctx, hashAAAA))
	assert.Equal(t, []common.Hash{entrySlot(0), lengthSlot}, store.writes)
}

func TestContractAppendStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	c, err := Deploy(ctx, store, identityA)
	require.NoError(t, err)

	store.putErr = errors.New("disk full")
	err = c.Append(ctx, hashAAAA)
	assert.ErrorContains(t, err, "disk full")

	n, err := c.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestContractCorruptSlot(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	store.values[string(lengthSlot[:])] = []byte{0x01}

	_, err := At(store).Len(ctx)
	assert.ErrorIs(t, err, ErrCorruptState)
}

// Appends carry no ownership check: any identity may record a hash.
func TestContractAppendByNonOwnerSucceeds(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	_, err := Deploy(ctx, store, identityA)
	require.NoError(t, err)

	// identityB reaches the same instance and appends
	require.NoError(t, At(store).Append(ctx, hashBBBB))

	snapshot, err := At(store).Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, identityA, snapshot.Owner)
	assert.Equal(t, []interfaces.ContentHash{hashBBBB}, snapshot.List())
}

func TestSnapshotMatchesState(t *testing.T) {
	ctx := context.Background()
	c, err := Deploy(ctx, newMapStore(), identityA)
	require.NoError(t, err)

	state := New(identityA)
	for i := 0; i < 10; i++ {
		h := interfaces.ComputeContentHash([]byte(fmt.Sprintf("file-%d", i)))
		state.Append(h)
		require.NoError(t, c.Append(ctx, h))
	}

	snapshot, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, state, snapshot)
}

func BenchmarkContractAppend(b *testing.B) {
	ctx := context.Background()
	c, err := Deploy(ctx, newMapStore(), identityA)
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := c.Append(ctx, hashAAAA); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkContractList(b *testing.B) {
	ctx := context.Background()
	c, err := Deploy(ctx, newMapStore(), identityA)
	require.NoError(b, err)
	for i := 0; i < 1000; i++ {
		require.NoError(b, c.Append(ctx, hashAAAA))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.List(ctx); err != nil {
			b.Fatal(err)
		}
	}
}
