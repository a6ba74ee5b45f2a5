package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockStore records the calls the registry makes to its store
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Load(ctx context.Context, id string) (*Snapshot, error) {
	args := m.Called(ctx, id)
	snap, _ := args.Get(0).(*Snapshot)
	return snap, args.Error(1)
}

func (m *mockStore) Save(ctx context.Context, id string, snap *Snapshot) error {
	return m.Called(ctx, id, snap).Error(0)
}

func (m *mockStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mapStore struct {
	mu    sync.Mutex
	snaps map[string]*Snapshot
	err   error
}

func newMapStore() *mapStore {
	return &mapStore{snaps: make(map[string]*Snapshot)}
}

func (m *mapStore) Load(ctx context.Context, id string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	snap, ok := m.snaps[id]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return snap, nil
}

func (m *mapStore) Save(ctx context.Context, id string, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.snaps[id] = snap
	return nil
}

func (m *mapStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snaps[id]; !ok {
		return ErrSnapshotNotFound
	}
	delete(m.snaps, id)
	return nil
}

func TestRegistry_GetCreatesFreshSession(t *testing.T) {
	reg := NewRegistry(newFakeService(allSettings), newMapStore(), time.Hour)

	s, fresh, err := reg.Get(context.Background(), "viewer-1")
	require.NoError(t, err)
	assert.NotNil(t, s)
	assert.True(t, fresh)
	assert.Equal(t, 1, reg.Len())

	again, fresh, err := reg.Get(context.Background(), "viewer-1")
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Same(t, s, again)
}

func TestRegistry_SessionsAreIndependent(t *testing.T) {
	svc := newFakeService(allSettings, img("A", 1), img("B", 2))
	reg := NewRegistry(svc, newMapStore(), time.Hour)
	ctx := context.Background()

	first, _, err := reg.Get(ctx, "tab-1")
	require.NoError(t, err)
	second, _, err := reg.Get(ctx, "tab-2")
	require.NoError(t, err)

	_, err = first.Start(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, first.Current().Index)
	assert.Equal(t, -1, second.Current().Index)
}

func TestRegistry_RestoresPersistedSession(t *testing.T) {
	svc := newFakeService(allSettings, img("A", 1), img("B", 2), img("C", 3))
	store := newMapStore()
	ctx := context.Background()

	reg := NewRegistry(svc, store, time.Hour)
	s, _, err := reg.Get(ctx, "viewer-1")
	require.NoError(t, err)
	_, err = s.Start(ctx)
	require.NoError(t, err)
	s.SelectNext()
	require.NoError(t, reg.Persist(ctx, "viewer-1", s))

	// a new registry simulates a restarted process
	restarted := NewRegistry(svc, store, time.Hour)
	restored, fresh, err := restarted.Get(ctx, "viewer-1")
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Equal(t, s.Current(), restored.Current())
}

func TestRegistry_StoreFailure(t *testing.T) {
	store := newMapStore()
	store.err = errors.New("connection refused")
	reg := NewRegistry(newFakeService(allSettings), store, time.Hour)

	_, _, err := reg.Get(context.Background(), "viewer-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_Forget(t *testing.T) {
	store := newMapStore()
	reg := NewRegistry(newFakeService(allSettings), store, time.Hour)
	ctx := context.Background()

	s, _, err := reg.Get(ctx, "viewer-1")
	require.NoError(t, err)
	require.NoError(t, reg.Persist(ctx, "viewer-1", s))

	require.NoError(t, reg.Forget(ctx, "viewer-1"))
	assert.Equal(t, 0, reg.Len())

	_, err = store.Load(ctx, "viewer-1")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	// forgetting twice is fine
	assert.NoError(t, reg.Forget(ctx, "viewer-1"))
}

func TestRegistry_EvictsIdleSessions(t *testing.T) {
	reg := NewRegistry(newFakeService(allSettings), newMapStore(), time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }
	ctx := context.Background()

	_, _, err := reg.Get(ctx, "idle")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, _, err = reg.Get(ctx, "active")
	require.NoError(t, err)

	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_ConcurrentGetReturnsOneSession(t *testing.T) {
	reg := NewRegistry(newFakeService(allSettings), newMapStore(), time.Hour)

	const workers = 16
	sessions := make([]*Session, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, _, err := reg.Get(context.Background(), "shared")
			assert.NoError(t, err)
			sessions[i] = s
		}()
	}
	wg.Wait()

	for _, s := range sessions {
		assert.Same(t, sessions[0], s)
	}
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_StoreCalls(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	store.On("Load", ctx, "viewer-1").Return(nil, ErrSnapshotNotFound).Once()
	store.On("Save", ctx, "viewer-1", mock.AnythingOfType("*session.Snapshot")).
		Return(errors.New("read-only replica")).Once()
	store.On("Delete", ctx, "viewer-1").Return(ErrSnapshotNotFound).Once()

	reg := NewRegistry(newFakeService(allSettings), store, time.Hour)

	s, fresh, err := reg.Get(ctx, "viewer-1")
	require.NoError(t, err)
	assert.True(t, fresh)

	// the live session answers without asking the store again
	again, fresh, err := reg.Get(ctx, "viewer-1")
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Same(t, s, again)

	err = reg.Persist(ctx, "viewer-1", s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only replica")

	assert.NoError(t, reg.Forget(ctx, "viewer-1"))

	store.AssertExpectations(t)
}
