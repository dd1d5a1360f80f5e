package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/ruteri/unified-ledger/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

// MockStorageBackend implements interfaces.StorageBackend for testing
type MockStorageBackend struct {
	mock.Mock
	name string
}

func (m *MockStorageBackend) Fetch(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace) ([]byte, error) {
	args := m.Called(ctx, id, ns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStorageBackend) Put(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace, data []byte) error {
	args := m.Called(ctx, id, ns, data)
	return args.Error(0)
}

func (m *MockStorageBackend) Delete(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace) error {
	args := m.Called(ctx, id, ns)
	return args.Error(0)
}

func (m *MockStorageBackend) Available(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockStorageBackend) Name() string {
	return m.name
}

func (m *MockStorageBackend) LocationURI() string {
	return "mock://" + m.name
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
			name:     "some backends available",
			backends: []bool{false, true, false},
			expected: true,
		},
		{
			name:     "no backends available",
			backends: []bool{false, false, false},
			expected: false,
		},
		{
			name:     "no backends",
			backends: []bool{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var backends []interfaces.StorageBackend
			for i, available := range tt.backends {
				mockStorage := &MockStorageBackend{name: fmt.Sprintf("mock-A%x", i)}
				mockStorage.On("Available", mock.Anything).Return(available).Maybe()
				backends = append(backends, mockStorage)
			}

			multi := NewMultiStorageBackend(backends, discardLogger())

			result := multi.Available(context.Background())
			assert.Equal(t, tt.expected, result)

			for _, backend := range backends {
				backend.(*MockStorageBackend).AssertExpectations(t)
			}
		})
	}
}

func TestMultiStorageBackend_Fetch(t *testing.T) {
	testID := interfaces.ContentID([32]byte{1, 2, 3, 4})
	testData := []byte("test data")
	testErr := errors.New("test error")
	ns := interfaces.ProofNamespace

	tests := []struct {
		name          string
		setupMocks    func() []interfaces.StorageBackend
		expectedData  []byte
		expectedError error
	}{
		{
			name: "first backend successful",
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := &MockStorageBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Fetch", mock.Anything, testID, ns).Return(testData, nil)

				// not consulted once the first one succeeds
				mock2 := &MockStorageBackend{name: "mock-B"}

				return []interfaces.StorageBackend{mock1, mock2}
			},
			expectedData: testData,
		},
		{
			name: "first backend fails, second succeeds",
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := &MockStorageBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Fetch", mock.Anything, testID, ns).Return(nil, testErr)

				mock2 := &MockStorageBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Fetch", mock.Anything, testID, ns).Return(testData, nil)

				return []interfaces.StorageBackend{mock1, mock2}
			},
			expectedData: testData,
		},
		{
			name: "first backend misses, second has it",
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := &MockStorageBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Fetch", mock.Anything, testID, ns).Return(nil, interfaces.ErrContentNotFound)

				mock2 := &MockStorageBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Fetch", mock.Anything, testID, ns).Return(testData, nil)

				return []interfaces.StorageBackend{mock1, mock2}
			},
			expectedData: testData,
		},
		{
			name: "all backends miss",
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := &MockStorageBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Fetch", mock.Anything, testID, ns).Return(nil, interfaces.ErrContentNotFound)

				mock2 := &MockStorageBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Fetch", mock.Anything, testID, ns).Return(nil, interfaces.ErrContentNotFound)

				return []interfaces.StorageBackend{mock1, mock2}
			},
			expectedError: interfaces.ErrContentNotFound,
		},
		{
			name: "one backend errors while the other misses",
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := &MockStorageBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Fetch", mock.Anything, testID, ns).Return(nil, testErr)

				mock2 := &MockStorageBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Fetch", mock.Anything, testID, ns).Return(nil, interfaces.ErrContentNotFound)

				return []interfaces.StorageBackend{mock1, mock2}
			},
			expectedError: interfaces.ErrBackendUnavailable,
		},
		{
			name: "unavailable backends are skipped",
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := &MockStorageBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(false)

				mock2 := &MockStorageBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Fetch", mock.Anything, testID, ns).Return(testData, nil)

				return []interfaces.StorageBackend{mock1, mock2}
			},
			expectedData: testData,
		},
		{
			name: "nothing available",
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := &MockStorageBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(false)
				return []interfaces.StorageBackend{mock1}
			},
			expectedError: interfaces.ErrBackendUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backends := tt.setupMocks()
			multi := NewMultiStorageBackend(backends, discardLogger())

			data, err := multi.Fetch(context.Background(), testID, ns)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedData, data)

			for _, backend := range backends {
				backend.(*MockStorageBackend).AssertExpectations(t)
			}
		})
	}
}

// readOnlyMock is a MockStorageBackend that declares itself read-only.
type readOnlyMock struct {
	*MockStorageBackend
}

func (readOnlyMock) ReadOnly() bool { return true }

type expecter interface {
	AssertExpectations(t mock.TestingT) bool
}

func TestMultiStorageBackend_Put(t *testing.T) {
	testID := interfaces.ContentID([32]byte{1, 2, 3, 4})
	testData := []byte("test data")
	testErr := errors.New("test error")
	ns := interfaces.ValueNamespace

	tests := []struct {
		name          string
		setupMocks    func() []interfaces.StorageBackend
		expectedError bool
	}{
		{
			name: "all backends successful",
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := &MockStorageBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Put", mock.Anything, testID, ns, testData).Return(nil)

				mock2 := &MockStorageBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Put", mock.Anything, testID, ns, testData).Return(nil)

				return []interfaces.StorageBackend{mock1, mock2}
			},
		},
		{
			name: "one backend fails",
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := &MockStorageBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Put", mock.Anything, testID, ns, testData).Return(nil)

				mock2 := &MockStorageBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Put", mock.Anything, testID, ns, testData).Return(testErr)

				return []interfaces.StorageBackend{mock1, mock2}
			},
			expectedError: true,
		},
		{
			name: "backend rejecting writes as read-only is tolerated",
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := &MockStorageBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Put", mock.Anything, testID, ns, testData).Return(interfaces.ErrReadOnly)

				mock2 := &MockStorageBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Put", mock.Anything, testID, ns, testData).Return(nil)

				return []interfaces.StorageBackend{mock1, mock2}
			},
		},
		{
			name: "declared read-only member is not consulted",
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := readOnlyMock{&MockStorageBackend{name: "mock-A"}}

				mock2 := &MockStorageBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Put", mock.Anything, testID, ns, testData).Return(nil)

				return []interfaces.StorageBackend{mock1, mock2}
			},
		},
		{
			name: "only read-only members",
			setupMocks: func() []interfaces.StorageBackend {
				return []interfaces.StorageBackend{readOnlyMock{&MockStorageBackend{name: "mock-A"}}}
			},
			expectedError: true,
		},
		{
			name: "all backends fail",
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := &MockStorageBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(true)
				mock1.On("Put", mock.Anything, testID, ns, testData).Return(testErr)

				mock2 := &MockStorageBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Put", mock.Anything, testID, ns, testData).Return(testErr)

				return []interfaces.StorageBackend{mock1, mock2}
			},
			expectedError: true,
		},
		{
			name: "unavailable writable backend fails the write",
			setupMocks: func() []interfaces.StorageBackend {
				mock1 := &MockStorageBackend{name: "mock-A"}
				mock1.On("Available", mock.Anything).Return(false)

				mock2 := &MockStorageBackend{name: "mock-B"}
				mock2.On("Available", mock.Anything).Return(true)
				mock2.On("Put", mock.Anything, testID, ns, testData).Return(nil)

				return []interfaces.StorageBackend{mock1, mock2}
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backends := tt.setupMocks()
			multi := NewMultiStorageBackend(backends, discardLogger())

			err := multi.Put(context.Background(), testID, ns, testData)

			if tt.expectedError {
				assert.ErrorIs(t, err, interfaces.ErrBackendUnavailable)
				assert.True(t, interfaces.IsRetryable(err))
			} else {
				assert.NoError(t, err)
			}

			for _, backend := range backends {
				backend.(expecter).AssertExpectations(t)
			}
		})
	}
}

func TestMultiStorageBackend_Delete(t *testing.T) {
	testID := interfaces.ContentID([32]byte{9})
	ns := interfaces.ValueNamespace

	t.Run("all backends delete", func(t *testing.T) {
		mock1 := &MockStorageBackend{name: "mock-A"}
		mock1.On("Available", mock.Anything).Return(true)
		mock1.On("Delete", mock.Anything, testID, ns).Return(nil)

		mock2 := &MockStorageBackend{name: "mock-B"}
		mock2.On("Available", mock.Anything).Return(true)
		mock2.On("Delete", mock.Anything, testID, ns).Return(nil)

		multi := NewMultiStorageBackend([]interfaces.StorageBackend{mock1, mock2}, discardLogger())
		assert.NoError(t, multi.Delete(context.Background(), testID, ns))

		mock1.AssertExpectations(t)
		mock2.AssertExpectations(t)
		assert.Equal(t, "multi:[mock://mock-A,mock://mock-B]", multi.LocationURI())
	})

	t.Run("unavailable backend fails the delete", func(t *testing.T) {
		mock1 := &MockStorageBackend{name: "mock-A"}
		mock1.On("Available", mock.Anything).Return(false)

		mock2 := &MockStorageBackend{name: "mock-B"}
		mock2.On("Available", mock.Anything).Return(true)
		mock2.On("Delete", mock.Anything, testID, ns).Return(nil)

		multi := NewMultiStorageBackend([]interfaces.StorageBackend{mock1, mock2}, discardLogger())
		err := multi.Delete(context.Background(), testID, ns)
		assert.ErrorIs(t, err, interfaces.ErrBackendUnavailable)

		mock1.AssertExpectations(t)
		mock2.AssertExpectations(t)
	})
}

func TestMultiStorageBackend_MemoryFallback(t *testing.T) {
	ctx := context.Background()
	primary := NewMemoryBackend("primary")
	secondary := NewMemoryBackend("secondary")
	id := interfaces.ComputeID([]byte("fallback"))

	// only the secondary has the entry
	assert.NoError(t, secondary.Put(ctx, id, interfaces.ValueNamespace, []byte("from secondary")))

	multi := NewMultiStorageBackend([]interfaces.StorageBackend{primary, secondary}, discardLogger())
	data, err := multi.Fetch(ctx, id, interfaces.ValueNamespace)
	assert.NoError(t, err)
	assert.Equal(t, []byte("from secondary"), data)

	assert.NoError(t, multi.Put(ctx, id, interfaces.ValueNamespace, []byte("both")))
	for _, b := range []*MemoryBackend{primary, secondary} {
		data, err := b.Fetch(ctx, id, interfaces.ValueNamespace)
		assert.NoError(t, err)
		assert.Equal(t, []byte("both"), data)
	}
}

// flakyBackend is a MemoryBackend that can be taken offline.
type flakyBackend struct {
	*MemoryBackend
	down atomic.Bool
}

func (b *flakyBackend) Available(ctx context.Context) bool {
	return !b.down.Load() && b.MemoryBackend.Available(ctx)
}

func TestMultiStorageBackend_OutageNeverServesStaleValues(t *testing.T) {
	ctx := context.Background()
	key := interfaces.ComputeID([]byte("outage"))

	newStore := func() (*flakyBackend, *BackendStorage[interfaces.ContentID, []byte]) {
		first := &flakyBackend{MemoryBackend: NewMemoryBackend("first")}
		second := NewMemoryBackend("second")
		multi := NewMultiStorageBackend([]interfaces.StorageBackend{first, second}, discardLogger())
		return first, NewBackendStorage[interfaces.ContentID, []byte](multi, interfaces.ValueNamespace, BytesCodec{}, discardLogger())
	}

	t.Run("Remove", func(t *testing.T) {
		first, store := newStore()
		require.NoError(t, store.Set(ctx, key, []byte("v1")))

		first.down.Store(true)
		err := store.Remove(ctx, key)
		require.ErrorIs(t, err, interfaces.ErrBackendUnavailable)
		assert.True(t, interfaces.IsRetryable(err))

		first.down.Store(false)
		require.NoError(t, store.Remove(ctx, key))

		_, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Overwrite", func(t *testing.T) {
		first, store := newStore()
		require.NoError(t, store.Set(ctx, key, []byte("v1")))

		first.down.Store(true)
		require.ErrorIs(t, store.Set(ctx, key, []byte("v2")), interfaces.ErrBackendUnavailable)

		first.down.Store(false)
		require.NoError(t, store.Set(ctx, key, []byte("v2")))

		got, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("v2"), got)
	})
}
