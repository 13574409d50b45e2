package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ruteri/content-hash-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKVStore implements interfaces.KVStore for testing
type MockKVStore struct {
	mock.Mock
	name string
}

func (m *MockKVStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockKVStore) Put(ctx context.Context, key []byte, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockKVStore) Available(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockKVStore) Name() string {
	return m.name
}

func (m *MockKVStore) LocationURI() string {
	return "mock:" + m.name
}

func (m *MockKVStore) Close() error {
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMultiStorageBackend_Available(t *testing.T) {
	tests := []struct {
		name     string
		backends []bool
		expected bool
	}{
		{
			name:     "all backends available",
			backends: []bool{true, true, true},
			expected: true,
		},
		{
			name:     "only replicas available",
			backends: []bool{false, true, true},
			expected: false,
		},
		{
			name:     "replica down",
			backends: []bool{true, false, true},
			expected: true,
		},
		{
			name:     "no backends",
			backends: []bool{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var backends []interfaces.KVStore
			for i, available := range tt.backends {
				b := &MockKVStore{name: string(rune('a' + i))}
				b.On("Available", mock.Anything).Return(available).Maybe()
				backends = append(backends, b)
			}

			multi := NewMultiStorageBackend(backends, discardLogger())
			assert.Equal(t, tt.expected, multi.Available(context.Background()))
		})
	}
}

func TestMultiStorageBackend_ReadsOnlyFromPrimary(t *testing.T) {
	ctx := context.Background()
	key := []byte("slot")

	primary := &MockKVStore{name: "primary"}
	primary.On("Available", mock.Anything).Return(true).Once()
	primary.On("Get", mock.Anything, key).Return(nil, interfaces.ErrKeyNotFound).Once()

	replica := &MockKVStore{name: "replica"}
	replica.On("Available", mock.Anything).Return(true).Maybe()
	replica.On("Get", mock.Anything, key).Return([]byte("stale"), nil).Maybe()

	multi := NewMultiStorageBackend([]interfaces.KVStore{primary, replica}, discardLogger())

	_, err := multi.Get(ctx, key)
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)

	// a down primary is not papered over by a replica
	primary.On("Available", mock.Anything).Return(false)
	_, err = multi.Get(ctx, key)
	assert.ErrorIs(t, err, interfaces.ErrBackendUnavailable)

	replica.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	primary.AssertExpectations(t)
}

func TestMultiStorageBackend_GetNotFound(t *testing.T) {
	a := NewMemoryBackend(discardLogger())
	b := NewMemoryBackend(discardLogger())
	multi := NewMultiStorageBackend([]interfaces.KVStore{a, b}, discardLogger())

	_, err := multi.Get(context.Background(), []byte("absent"))
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)
}

func TestMultiStorageBackend_GetReportsErrors(t *testing.T) {
	broken := &MockKVStore{name: "broken"}
	broken.On("Available", mock.Anything).Return(true)
	broken.On("Get", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	multi := NewMultiStorageBackend([]interfaces.KVStore{broken}, discardLogger())

	_, err := multi.Get(context.Background(), []byte("slot"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, interfaces.ErrKeyNotFound)
	assert.ErrorContains(t, err, "connection reset")
}

func availableStore(name string, available bool) *MockKVStore {
	m := &MockKVStore{name: name}
	m.On("Available", mock.Anything).Return(available)
	return m
}

func TestMultiStorageBackend_PutRequiresAllAvailable(t *testing.T) {
	ctx := context.Background()
	key, value := []byte("slot"), []byte("value")

	t.Run("replica down", func(t *testing.T) {
		primary := availableStore("primary", true)
		down := availableStore("down", false)

		err := NewMultiStorageBackend([]interfaces.KVStore{primary, down}, discardLogger()).Put(ctx, key, value)
		assert.ErrorIs(t, err, interfaces.ErrBackendUnavailable)
		primary.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("primary down", func(t *testing.T) {
		down := availableStore("down", false)
		replica := availableStore("replica", true)

		err := NewMultiStorageBackend([]interfaces.KVStore{down, replica}, discardLogger()).Put(ctx, key, value)
		assert.ErrorIs(t, err, interfaces.ErrBackendUnavailable)
		replica.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("primary fails", func(t *testing.T) {
		failing := availableStore("failing", true)
		failing.On("Put", mock.Anything, key, value).Return(errors.New("quota exceeded"))
		replica := availableStore("replica", true)

		err := NewMultiStorageBackend([]interfaces.KVStore{failing, replica}, discardLogger()).Put(ctx, key, value)
		assert.ErrorContains(t, err, "quota exceeded")
		replica.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no backends", func(t *testing.T) {
		err := NewMultiStorageBackend(nil, discardLogger()).Put(ctx, key, value)
		assert.ErrorIs(t, err, interfaces.ErrBackendUnavailable)
	})
}

func TestMultiStorageBackend_FailedReplicaLeavesSync(t *testing.T) {
	ctx := context.Background()
	primary := NewMemoryBackend(discardLogger())

	failing := availableStore("failing", true)
	failing.On("Put", mock.Anything, []byte("k1"), []byte("v1")).Return(errors.New("disk full")).Once()

	multi := NewMultiStorageBackend([]interfaces.KVStore{primary, failing}, discardLogger())

	// the primary committed, so the write stands
	require.NoError(t, multi.Put(ctx, []byte("k1"), []byte("v1")))
	assert.Equal(t, []string{"failing"}, multi.OutOfSync())

	v, err := multi.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	// no further writes reach the stale replica, and its availability no longer gates writes
	failing.On("Available", mock.Anything).Unset()
	failing.On("Available", mock.Anything).Return(false).Maybe()
	require.NoError(t, multi.Put(ctx, []byte("k2"), []byte("v2")))
	failing.AssertNumberOfCalls(t, "Put", 1)
}

func TestMultiStorageBackend_BatchReplicates(t *testing.T) {
	ctx := context.Background()
	memory := NewMemoryBackend(discardLogger())
	files, err := NewFileBackend(t.TempDir(), discardLogger())
	require.NoError(t, err)

	multi := NewMultiStorageBackend([]interfaces.KVStore{memory, files}, discardLogger())

	batch := multi.NewBatch()
	require.NoError(t, batch.Put([]byte("k1"), []byte("v1")))
	require.NoError(t, batch.Put([]byte("k2"), []byte("v2")))

	_, err = memory.Get(ctx, []byte("k1"))
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound, "batch must not be visible before Write")

	require.NoError(t, batch.Write(ctx))

	for _, backend := range []interfaces.KVStore{memory, files} {
		v, err := backend.Get(ctx, []byte("k2"))
		require.NoError(t, err, backend.Name())
		assert.Equal(t, []byte("v2"), v)
	}

	assert.Equal(t, "multi:[memory://,"+files.LocationURI()+"]", multi.LocationURI())
	assert.NoError(t, multi.Close())
}
