package service

import (
	"github.com/chenzhe/smart-parking/internal/model"
)

// Slot statuses. Reserved takes precedence over free; occupied is the
// default for any slot id listed in neither JSON field; an id the store
// lost track of must never show as free.
const (
	StatusFree     = "free"
	StatusOccupied = "occupied"
	StatusReserved = "reserved"
)

// Slot is the derived view of one parking space. SlotNumber and SlotID
// carry the same value; both names are kept on the wire for client
// compatibility.
type Slot struct {
	SlotNumber    int     `json:"slotNumber"`
	SlotID        int     `json:"slotId"`
	Row           int     `json:"row"`
	Col           int     `json:"col"`
	Status        string  `json:"status"`
	ReservedBy    *string `json:"reservedBy"`
	ReservedUntil *string `json:"reservedUntil"`
}

// DeriveSlots turns a snapshot into the full per-slot status view. It is
// pure: rows*columns slots are always produced, positions computed from the
// linear id, and the lenient snapshot decoding guarantees malformed JSON
// fields behave as empty sets here.
func DeriveSlots(snap *model.FloorSnapshot) []Slot {
	total := snap.Rows * snap.Columns
	slots := make([]Slot, 0, total)
	for k := 1; k <= total; k++ {
		s := Slot{
			SlotNumber: k,
			SlotID:     k,
			Row:        (k-1)/snap.Columns + 1,
			Col:        (k-1)%snap.Columns + 1,
			Status:     StatusOccupied,
		}
		if rec, ok := snap.Reservations.Lookup(k); ok {
			s.Status = StatusReserved
			if rec.Phone != "" {
				phone := rec.Phone
				s.ReservedBy = &phone
			}
			if rec.Timestamp != "" {
				ts := rec.Timestamp
				s.ReservedUntil = &ts
			}
		} else if snap.FreePositions.Contains(k) {
			s.Status = StatusFree
		}
		slots = append(slots, s)
	}
	return slots
}

// FloorStatusView is the occupancy summary of one floor, derived read-only
// from its latest snapshot.
type FloorStatusView struct {
	Floor         string `json:"floor"`
	FloorName     string `json:"floorName"`
	Rows          int    `json:"rows"`
	Columns       int    `json:"columns"`
	TotalSlots    int    `json:"totalSlots"`
	FreeSlots     int    `json:"freeSlots"`
	OccupiedSlots int    `json:"occupiedSlots"`
	ReservedSlots int    `json:"reservedSlots"`
	Slots         []Slot `json:"slots"`
	Timestamp     string `json:"timestamp"`
}

// NewFloorStatus builds the summary view from a snapshot. Counters come
// from the row's own columns (free_slots is maintained equal to the free
// list length by every writer); reservedSlots is the live reservation
// count.
func NewFloorStatus(snap *model.FloorSnapshot) *FloorStatusView {
	return &FloorStatusView{
		Floor:         string(snap.Floor),
		FloorName:     string(snap.Floor),
		Rows:          snap.Rows,
		Columns:       snap.Columns,
		TotalSlots:    snap.TotalSlots,
		FreeSlots:     snap.FreeSlots,
		OccupiedSlots: snap.TotalSlots - snap.FreeSlots,
		ReservedSlots: len(snap.Reservations),
		Slots:         DeriveSlots(snap),
		Timestamp:     snap.Timestamp.UTC().Format(model.TimeLayout),
	}
}
