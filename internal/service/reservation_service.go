package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/chenzhe/smart-parking/internal/model"
	"github.com/chenzhe/smart-parking/internal/repository"
	"github.com/chenzhe/smart-parking/internal/utils"
)

// Reservation is the wire-facing shape of one active reservation.
type Reservation struct {
	Floor      string `json:"floor"`
	SlotNumber int    `json:"slotNumber"`
	Timestamp  string `json:"timestamp"`
	Duration   int    `json:"duration,omitempty"`
	TableName  string `json:"tableName"`
}

// ReservationService coordinates reserve/cancel/list against the per-floor
// snapshot logs. It holds no mutable state of its own: every call reads
// fresh from the store, and mutations go through one atomic commit.
type ReservationService struct {
	store SnapshotStore
	now   func() time.Time
}

// NewReservationService builds a coordinator over the given store.
func NewReservationService(store SnapshotStore) *ReservationService {
	return &ReservationService{store: store, now: time.Now}
}

// Reserve claims a free slot for phone on the given floor.
//
// Validation happens before any store access. The one-reservation-per-phone
// rule is checked by scanning every floor's latest snapshot; those reads
// are taken independently and are not serialized with the commit (see
// DESIGN.md). The same-floor double-booking race is closed by the store:
// the commit carries the id of the snapshot this mutation was derived from
// and fails with ErrSnapshotSuperseded when another commit got there first.
func (s *ReservationService) Reserve(ctx context.Context, floorCode string, slotID int, phone string) (*Reservation, error) {
	floor, ok := model.ParseFloor(floorCode)
	if !ok {
		return nil, ErrInvalidFloor
	}
	if !utils.ValidPhone(phone) {
		return nil, ErrInvalidPhone
	}
	if slotID < 1 {
		return nil, ErrInvalidSlot
	}

	// Cross-floor uniqueness: one reservation per phone, anywhere.
	for _, f := range model.AllFloors() {
		snap, err := s.store.Latest(ctx, f)
		if err != nil {
			if errors.Is(err, repository.ErrNoSnapshot) {
				continue
			}
			return nil, err
		}
		if slot, _, found := snap.Reservations.FindByPhone(phone); found {
			return nil, fmt.Errorf("%w: slot %d on floor %s", ErrAlreadyReserved, slot, f)
		}
	}

	base, err := s.store.Latest(ctx, floor)
	if err != nil {
		return nil, err
	}
	if !base.FreePositions.Contains(slotID) {
		return nil, fmt.Errorf("%w: slot %d", ErrSlotUnavailable, slotID)
	}
	if _, taken := base.Reservations.Lookup(slotID); taken {
		return nil, fmt.Errorf("%w: slot %d", ErrSlotAlreadyReserved, slotID)
	}

	now := s.now().UTC()
	rec := model.ReservationRecord{
		Phone:     phone,
		Timestamp: now.Format(model.TimeLayout),
		Duration:  model.DefaultDurationMinutes,
		Floor:     string(floor),
	}
	next := s.nextSnapshot(base, now)
	next.FreePositions = base.FreePositions.Without(slotID)
	next.Reservations = base.Reservations.With(slotID, rec)
	next.FreeSlots = len(next.FreePositions)

	entry := model.HistoryEntry{
		TableName:  floor.TableName(),
		SlotNumber: slotID,
		Phone:      phone,
		Action:     model.ActionReserve,
	}
	if err := s.store.CommitMutation(ctx, base.ID, next, entry); err != nil {
		if errors.Is(err, repository.ErrSnapshotSuperseded) {
			return nil, err
		}
		return nil, fmt.Errorf("reservation commit failed: %w", err)
	}

	return &Reservation{
		Floor:      string(floor),
		SlotNumber: slotID,
		Timestamp:  rec.Timestamp,
		Duration:   rec.Duration,
		TableName:  floor.TableName(),
	}, nil
}

// Cancel releases the first reservation held by phone on the given floor.
// The released slot returns to the free list, which is re-sorted ascending
// so later scans stay deterministic.
func (s *ReservationService) Cancel(ctx context.Context, floorCode string, phone string) (*Reservation, error) {
	floor, ok := model.ParseFloor(floorCode)
	if !ok {
		return nil, ErrInvalidFloor
	}
	if phone == "" {
		return nil, ErrInvalidPhone
	}

	base, err := s.store.Latest(ctx, floor)
	if err != nil {
		return nil, err
	}
	slotID, rec, found := base.Reservations.FindByPhone(phone)
	if !found {
		return nil, ErrReservationNotFound
	}

	next := s.nextSnapshot(base, s.now().UTC())
	next.Reservations = base.Reservations.Without(slotID)
	next.FreePositions = base.FreePositions.WithSorted(slotID)
	next.FreeSlots = len(next.FreePositions)

	entry := model.HistoryEntry{
		TableName:  floor.TableName(),
		SlotNumber: slotID,
		Phone:      phone,
		Action:     model.ActionCancel,
	}
	if err := s.store.CommitMutation(ctx, base.ID, next, entry); err != nil {
		if errors.Is(err, repository.ErrSnapshotSuperseded) {
			return nil, err
		}
		return nil, fmt.Errorf("cancel commit failed: %w", err)
	}

	return &Reservation{
		Floor:      string(floor),
		SlotNumber: slotID,
		Timestamp:  rec.Timestamp,
		Duration:   rec.Duration,
		TableName:  floor.TableName(),
	}, nil
}

// List returns every reservation held by phone across all floors, floors
// visited in ascending order. Read-only, no transaction.
func (s *ReservationService) List(ctx context.Context, phone string) ([]Reservation, error) {
	if phone == "" {
		return nil, ErrInvalidPhone
	}
	out := make([]Reservation, 0)
	for _, f := range model.AllFloors() {
		snap, err := s.store.Latest(ctx, f)
		if err != nil {
			if errors.Is(err, repository.ErrNoSnapshot) {
				continue
			}
			return nil, err
		}
		for slotID, rec := range snap.Reservations {
			if rec.Phone != phone {
				continue
			}
			id, err := strconv.Atoi(slotID)
			if err != nil {
				continue
			}
			duration := rec.Duration
			if duration == 0 {
				duration = model.DefaultDurationMinutes
			}
			out = append(out, Reservation{
				Floor:      string(f),
				SlotNumber: id,
				Timestamp:  rec.Timestamp,
				Duration:   duration,
				TableName:  f.TableName(),
			})
		}
	}
	return out, nil
}

// Status derives the read-only occupancy view of a floor from its latest
// snapshot.
func (s *ReservationService) Status(ctx context.Context, floorCode string) (*FloorStatusView, error) {
	floor, ok := model.ParseFloor(floorCode)
	if !ok {
		return nil, ErrInvalidFloor
	}
	snap, err := s.store.Latest(ctx, floor)
	if err != nil {
		return nil, err
	}
	return NewFloorStatus(snap), nil
}

// ExpireOverdue cancels every reservation whose stored creation time plus
// duration has passed, using the same commit protocol as an explicit
// cancel. Records with unreadable timestamps are left alone. Returns the
// number of reservations released.
func (s *ReservationService) ExpireOverdue(ctx context.Context) (int, error) {
	now := s.now().UTC()
	expired := 0
	for _, f := range model.AllFloors() {
		snap, err := s.store.Latest(ctx, f)
		if err != nil {
			if errors.Is(err, repository.ErrNoSnapshot) {
				continue
			}
			return expired, err
		}
		for _, rec := range snap.Reservations {
			at, ok := rec.ReservedAt()
			if !ok {
				continue
			}
			duration := rec.Duration
			if duration <= 0 {
				duration = model.DefaultDurationMinutes
			}
			if now.Before(at.Add(time.Duration(duration) * time.Minute)) {
				continue
			}
			if _, err := s.Cancel(ctx, string(f), rec.Phone); err != nil {
				// A concurrent cancel may have beaten the sweep; skip and
				// move on, the next pass re-reads fresh state.
				if errors.Is(err, ErrReservationNotFound) || errors.Is(err, repository.ErrSnapshotSuperseded) {
					continue
				}
				return expired, err
			}
			expired++
		}
	}
	return expired, nil
}

// nextSnapshot clones the carried-forward fields of base into a fresh
// unsaved snapshot stamped at ts.
func (s *ReservationService) nextSnapshot(base *model.FloorSnapshot, ts time.Time) *model.FloorSnapshot {
	return &model.FloorSnapshot{
		Floor:      base.Floor,
		Timestamp:  ts,
		TotalSlots: base.TotalSlots,
		Rows:       base.Rows,
		Columns:    base.Columns,
		SourceType: base.SourceType,
	}
}
