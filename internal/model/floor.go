package model

import "strings"

// Floor identifies one of the fixed underground parking levels. Each floor
// has its own append-only status table in the database; there is no floors
// table to join against.
type Floor string

const (
	FloorB1 Floor = "B1"
	FloorB2 Floor = "B2"
	FloorB3 Floor = "B3"
)

// AllFloors returns the known floors in ascending order. Cross-floor scans
// (reservation lookups, the expiry sweep) visit floors in this order so
// results stay deterministic.
func AllFloors() []Floor {
	return []Floor{FloorB1, FloorB2, FloorB3}
}

// ParseFloor normalizes and validates a floor code. Input is matched
// case-insensitively ("b2" is accepted); anything outside B1..B3 is
// rejected.
func ParseFloor(s string) (Floor, bool) {
	f := Floor(strings.ToUpper(strings.TrimSpace(s)))
	switch f {
	case FloorB1, FloorB2, FloorB3:
		return f, true
	}
	return "", false
}

// TableName returns the per-floor status table, e.g. parking_status_b1.
func (f Floor) TableName() string {
	return "parking_status_" + strings.ToLower(string(f))
}
