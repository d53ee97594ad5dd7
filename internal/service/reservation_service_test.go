package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenzhe/smart-parking/internal/model"
	"github.com/chenzhe/smart-parking/internal/repository"
)

// memStore is an in-memory SnapshotStore with the same commit semantics as
// the MySQL repository: append-only per-floor logs, monotonically increasing
// ids across floors, and a baseID guard that rejects stale commits.
type memStore struct {
	mu      sync.Mutex
	floors  map[model.Floor][]*model.FloorSnapshot
	history []model.HistoryEntry
	nextID  uint64

	// beforeCommit runs once before the next commit's guard check, letting
	// tests interleave a competing write.
	beforeCommit func()
}

func newMemStore() *memStore {
	return &memStore{floors: map[model.Floor][]*model.FloorSnapshot{}, nextID: 1}
}

func (m *memStore) Latest(_ context.Context, floor model.Floor) (*model.FloorSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	log := m.floors[floor]
	if len(log) == 0 {
		return nil, repository.ErrNoSnapshot
	}
	return log[len(log)-1], nil
}

func (m *memStore) CommitMutation(_ context.Context, baseID uint64, next *model.FloorSnapshot, entry model.HistoryEntry) error {
	if hook := m.beforeCommit; hook != nil {
		m.beforeCommit = nil
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	log := m.floors[next.Floor]
	if len(log) == 0 || log[len(log)-1].ID != baseID {
		return repository.ErrSnapshotSuperseded
	}
	next.ID = m.nextID
	m.nextID++
	m.floors[next.Floor] = append(log, next)
	m.history = append(m.history, entry)
	return nil
}

func (m *memStore) seed(floor model.Floor, snap *model.FloorSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap.ID = m.nextID
	m.nextID++
	snap.Floor = floor
	m.floors[floor] = append(m.floors[floor], snap)
}

var testNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestService(store SnapshotStore) *ReservationService {
	svc := NewReservationService(store)
	svc.now = func() time.Time { return testNow }
	return svc
}

// freshFloor returns a fully free 2x5 snapshot.
func freshFloor() *model.FloorSnapshot {
	return &model.FloorSnapshot{
		Timestamp:     testNow.Add(-time.Hour),
		TotalSlots:    10,
		FreeSlots:     10,
		FreePositions: model.SlotList{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		Rows:          2,
		Columns:       5,
		Reservations:  model.ReservationMap{},
		SourceType:    "camera",
	}
}

func TestReserveSuccess(t *testing.T) {
	store := newMemStore()
	store.seed(model.FloorB1, freshFloor())
	svc := newTestService(store)

	res, err := svc.Reserve(context.Background(), "b1", 3, "13800000000")
	require.NoError(t, err)

	assert.Equal(t, "B1", res.Floor)
	assert.Equal(t, 3, res.SlotNumber)
	assert.Equal(t, 30, res.Duration)
	assert.Equal(t, "parking_status_b1", res.TableName)
	assert.Equal(t, "2025-03-01 10:00:00", res.Timestamp)

	snap, err := store.Latest(context.Background(), model.FloorB1)
	require.NoError(t, err)
	assert.False(t, snap.FreePositions.Contains(3))
	assert.Equal(t, len(snap.FreePositions), snap.FreeSlots)
	rec, ok := snap.Reservations.Lookup(3)
	require.True(t, ok)
	assert.Equal(t, "13800000000", rec.Phone)
	assert.Equal(t, 10, snap.TotalSlots, "grid geometry carries forward")
	assert.Equal(t, "camera", snap.SourceType)

	require.Len(t, store.history, 1)
	assert.Equal(t, model.ActionReserve, store.history[0].Action)
	assert.Equal(t, "parking_status_b1", store.history[0].TableName)
	assert.Equal(t, 3, store.history[0].SlotNumber)
}

func TestReserveValidation(t *testing.T) {
	store := newMemStore()
	store.seed(model.FloorB1, freshFloor())
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Reserve(ctx, "B9", 1, "13800000000")
	assert.ErrorIs(t, err, ErrInvalidFloor)

	_, err = svc.Reserve(ctx, "B1", 1, "12345")
	assert.ErrorIs(t, err, ErrInvalidPhone)

	_, err = svc.Reserve(ctx, "B1", 0, "13800000000")
	assert.ErrorIs(t, err, ErrInvalidSlot)

	// Validation failures must not touch the log.
	snap, _ := store.Latest(ctx, model.FloorB1)
	assert.Equal(t, 10, snap.FreeSlots)
	assert.Empty(t, store.history)
}

func TestReserveOnePerPhoneAcrossFloors(t *testing.T) {
	store := newMemStore()
	store.seed(model.FloorB1, freshFloor())
	store.seed(model.FloorB2, freshFloor())
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Reserve(ctx, "B1", 4, "13800000000")
	require.NoError(t, err)

	_, err = svc.Reserve(ctx, "B2", 4, "13800000000")
	assert.ErrorIs(t, err, ErrAlreadyReserved)

	// A different phone is unaffected.
	_, err = svc.Reserve(ctx, "B2", 4, "13911111111")
	assert.NoError(t, err)
}

func TestReserveSlotUnavailable(t *testing.T) {
	store := newMemStore()
	snap := freshFloor()
	snap.FreePositions = snap.FreePositions.Without(5)
	snap.FreeSlots = len(snap.FreePositions)
	store.seed(model.FloorB1, snap)
	svc := newTestService(store)

	_, err := svc.Reserve(context.Background(), "B1", 5, "13800000000")
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestReserveSlotAlreadyReservedWinsOverFree(t *testing.T) {
	// Inconsistent row: slot 7 listed free but also carrying a reservation.
	// The reservation wins; a second claim must be refused.
	store := newMemStore()
	snap := freshFloor()
	snap.Reservations = snap.Reservations.With(7, model.ReservationRecord{
		Phone: "13911111111", Timestamp: "2025-03-01 09:50:00", Duration: 30, Floor: "B1",
	})
	store.seed(model.FloorB1, snap)
	svc := newTestService(store)

	_, err := svc.Reserve(context.Background(), "B1", 7, "13800000000")
	assert.ErrorIs(t, err, ErrSlotAlreadyReserved)
}

func TestReserveUnbootstrappedFloor(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	_, err := svc.Reserve(context.Background(), "B1", 1, "13800000000")
	assert.ErrorIs(t, err, repository.ErrNoSnapshot)
}

func TestReserveSupersededByConcurrentCommit(t *testing.T) {
	store := newMemStore()
	store.seed(model.FloorB1, freshFloor())
	svc := newTestService(store)
	ctx := context.Background()

	// A competing reservation lands between this call's read and its commit.
	store.beforeCommit = func() {
		other := newTestService(store)
		_, err := other.Reserve(ctx, "B1", 2, "13911111111")
		require.NoError(t, err)
	}

	_, err := svc.Reserve(ctx, "B1", 3, "13800000000")
	assert.ErrorIs(t, err, repository.ErrSnapshotSuperseded)

	// Only the competing write took effect.
	snap, _ := store.Latest(ctx, model.FloorB1)
	assert.True(t, snap.FreePositions.Contains(3))
	_, held := snap.Reservations.Lookup(2)
	assert.True(t, held)
	require.Len(t, store.history, 1)
}

func TestCancelRestoresSlot(t *testing.T) {
	store := newMemStore()
	store.seed(model.FloorB1, freshFloor())
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Reserve(ctx, "B1", 3, "13800000000")
	require.NoError(t, err)

	res, err := svc.Cancel(ctx, "B1", "13800000000")
	require.NoError(t, err)
	assert.Equal(t, 3, res.SlotNumber)

	snap, _ := store.Latest(ctx, model.FloorB1)
	assert.Equal(t, model.SlotList{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, snap.FreePositions, "freed slot re-sorted into place")
	assert.Equal(t, 10, snap.FreeSlots)
	assert.Empty(t, snap.Reservations)

	require.Len(t, store.history, 2)
	assert.Equal(t, model.ActionCancel, store.history[1].Action)

	// Second cancel finds nothing.
	_, err = svc.Cancel(ctx, "B1", "13800000000")
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestList(t *testing.T) {
	store := newMemStore()
	store.seed(model.FloorB1, freshFloor())
	store.seed(model.FloorB2, freshFloor())
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Reserve(ctx, "B2", 8, "13800000000")
	require.NoError(t, err)
	_, err = svc.Reserve(ctx, "B1", 2, "13911111111")
	require.NoError(t, err)

	items, err := svc.List(ctx, "13800000000")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "B2", items[0].Floor)
	assert.Equal(t, 8, items[0].SlotNumber)
	assert.Equal(t, 30, items[0].Duration)
	assert.Equal(t, "parking_status_b2", items[0].TableName)

	items, err = svc.List(ctx, "13700000000")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestExpireOverdue(t *testing.T) {
	store := newMemStore()
	snap := freshFloor()
	snap.FreePositions = model.SlotList{1, 2, 4, 5, 6, 8, 9, 10}
	snap.FreeSlots = len(snap.FreePositions)
	snap.Reservations = model.ReservationMap{}.
		With(3, model.ReservationRecord{
			Phone: "13800000000", Timestamp: testNow.Add(-45 * time.Minute).Format(model.TimeLayout),
			Duration: 30, Floor: "B1",
		}).
		With(7, model.ReservationRecord{
			Phone: "13911111111", Timestamp: testNow.Add(-10 * time.Minute).Format(model.TimeLayout),
			Duration: 30, Floor: "B1",
		})
	store.seed(model.FloorB1, snap)
	svc := newTestService(store)

	n, err := svc.ExpireOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	latest, _ := store.Latest(context.Background(), model.FloorB1)
	_, gone := latest.Reservations.Lookup(3)
	assert.False(t, gone, "overdue reservation released")
	_, kept := latest.Reservations.Lookup(7)
	assert.True(t, kept, "recent reservation untouched")
	assert.True(t, latest.FreePositions.Contains(3))
}

// Full reserve/status/cancel round trip on a 2x5 floor with three free
// slots, checked through the derived view at every step.
func TestReserveStatusCancelRoundTrip(t *testing.T) {
	store := newMemStore()
	snap := freshFloor()
	snap.FreePositions = model.SlotList{3, 7, 9}
	snap.FreeSlots = 3
	store.seed(model.FloorB1, snap)
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Reserve(ctx, "B1", 7, "13800000000")
	require.NoError(t, err)

	view, err := svc.Status(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, 2, view.FreeSlots)
	slot7 := view.Slots[6]
	assert.Equal(t, StatusReserved, slot7.Status)
	require.NotNil(t, slot7.ReservedBy)
	assert.Equal(t, "13800000000", *slot7.ReservedBy)

	// Slot 7 left the free list, so a second claim is refused.
	_, err = svc.Reserve(ctx, "B1", 7, "13900000000")
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	_, err = svc.Cancel(ctx, "B1", "13800000000")
	require.NoError(t, err)

	view, err = svc.Status(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, StatusFree, view.Slots[6].Status)
	latest, _ := store.Latest(ctx, model.FloorB1)
	assert.Equal(t, model.SlotList{3, 7, 9}, latest.FreePositions)

	items, err := svc.List(ctx, "13800000000")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestExpireOverdueSkipsUnreadableTimestamps(t *testing.T) {
	store := newMemStore()
	snap := freshFloor()
	snap.FreePositions = snap.FreePositions.Without(3)
	snap.FreeSlots = len(snap.FreePositions)
	snap.Reservations = model.ReservationMap{}.With(3, model.ReservationRecord{
		Phone: "13800000000", Timestamp: "not a time", Duration: 30, Floor: "B1",
	})
	store.seed(model.FloorB1, snap)
	svc := newTestService(store)

	n, err := svc.ExpireOverdue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
