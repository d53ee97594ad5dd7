package model

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

// TimeLayout is the wall-clock format stored inside reservation records and
// returned over the wire. It matches the DATETIME formatting the rest of
// the system (including the IoT uploader) writes.
const TimeLayout = "2006-01-02 15:04:05"

// DefaultDurationMinutes is the nominal lifetime recorded on every new
// reservation.
const DefaultDurationMinutes = 30

// SlotList is the ordered set of free slot ids persisted in the
// free_positions JSON column. Historic rows serialize the ids as numbers or
// as strings, so decoding accepts both and normalizes to ints. A payload
// that is not a JSON array
// (including the literal string "NULL" some rows carry) decodes to an empty
// list rather than failing: an unreadable free list must never surface a
// slot as free.
type SlotList []int

// UnmarshalJSON implements the tolerant decode described above. Elements
// that are neither numbers nor numeric strings are dropped.
func (l *SlotList) UnmarshalJSON(data []byte) error {
	*l = SlotList{}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	out := make([]int, 0, len(raw))
	for _, el := range raw {
		if string(el) == "null" {
			continue
		}
		var n int
		if err := json.Unmarshal(el, &n); err == nil {
			out = append(out, n)
			continue
		}
		var s string
		if err := json.Unmarshal(el, &s); err == nil {
			if n, err := strconv.Atoi(s); err == nil {
				out = append(out, n)
			}
		}
	}
	*l = out
	return nil
}

// Contains reports whether id is in the list.
func (l SlotList) Contains(id int) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Without returns a copy of the list with id removed.
func (l SlotList) Without(id int) SlotList {
	out := make(SlotList, 0, len(l))
	for _, v := range l {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// WithSorted returns a copy of the list with id appended and the whole list
// re-sorted ascending. The ordering is only there to keep future scans
// deterministic; it is not a fairness guarantee.
func (l SlotList) WithSorted(id int) SlotList {
	out := make(SlotList, len(l), len(l)+1)
	copy(out, l)
	out = append(out, id)
	sort.Ints(out)
	return out
}

// ReservationRecord is one active claim on a slot, embedded in a snapshot's
// reservation map. Timestamp uses TimeLayout; Floor is carried redundantly
// so cross-floor listings do not need to know which table the record came
// from.
type ReservationRecord struct {
	Phone     string `json:"phone"`
	Timestamp string `json:"timestamp"`
	Duration  int    `json:"duration"`
	Floor     string `json:"floor"`
}

// ReservedAt parses the record's timestamp. ok is false when the stored
// value is unreadable.
func (r ReservationRecord) ReservedAt() (time.Time, bool) {
	t, err := time.Parse(TimeLayout, r.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ReservationMap maps a slot id (as its decimal string form) to the
// reservation holding it. Like SlotList it degrades malformed or NULL
// payloads to empty instead of erroring.
type ReservationMap map[string]ReservationRecord

// UnmarshalJSON tolerates null, the literal string "NULL" and any payload
// that is not an object of reservation records.
func (m *ReservationMap) UnmarshalJSON(data []byte) error {
	*m = ReservationMap{}
	var raw map[string]ReservationRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	if raw != nil {
		*m = raw
	}
	return nil
}

// Lookup finds the reservation for a slot id via its decimal string key.
// JSON object keys always decode as strings, so a single string lookup
// covers rows that originally wrote the key in either representation.
func (m ReservationMap) Lookup(id int) (ReservationRecord, bool) {
	rec, ok := m[strconv.Itoa(id)]
	return rec, ok
}

// FindByPhone returns the first reservation held by phone, scanning slot
// ids in ascending numeric order so repeated calls see the same entry.
func (m ReservationMap) FindByPhone(phone string) (int, ReservationRecord, bool) {
	ids := make([]int, 0, len(m))
	for k := range m {
		if id, err := strconv.Atoi(k); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	for _, id := range ids {
		rec := m[strconv.Itoa(id)]
		if rec.Phone == phone {
			return id, rec, true
		}
	}
	return 0, ReservationRecord{}, false
}

// With returns a copy of the map with a record added under id.
func (m ReservationMap) With(id int, rec ReservationRecord) ReservationMap {
	out := make(ReservationMap, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[strconv.Itoa(id)] = rec
	return out
}

// Without returns a copy of the map with the record under id removed.
func (m ReservationMap) Without(id int) ReservationMap {
	out := make(ReservationMap, len(m))
	key := strconv.Itoa(id)
	for k, v := range m {
		if k != key {
			out[k] = v
		}
	}
	return out
}

// FloorSnapshot is one immutable row of a floor's status table. Every state
// change inserts a new row; the row with the greatest id is the floor's
// current state. Rows are never updated or deleted.
type FloorSnapshot struct {
	ID            uint64
	Floor         Floor
	Timestamp     time.Time
	TotalSlots    int
	FreeSlots     int
	FreePositions SlotList
	Rows          int
	Columns       int
	Reservations  ReservationMap
	SourceType    string
}

// HistoryEntry is one row of the shared reservation_history audit table.
// Entries are written only inside a committed reservation transaction and
// are never read back to reconstruct state.
type HistoryEntry struct {
	ID         uint64
	TableName  string
	SlotNumber int
	Phone      string
	Action     string
	CreatedAt  time.Time
}

// History actions.
const (
	ActionReserve = "reserve"
	ActionCancel  = "cancel"
)
