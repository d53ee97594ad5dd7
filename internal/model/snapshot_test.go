package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotListDecodeMixedForms(t *testing.T) {
	var l SlotList
	require.NoError(t, json.Unmarshal([]byte(`[3, "7", 9]`), &l))
	assert.Equal(t, SlotList{3, 7, 9}, l)

	assert.True(t, l.Contains(7))
	assert.False(t, l.Contains(4))
}

func TestSlotListDecodeDegradesToEmpty(t *testing.T) {
	cases := map[string]string{
		"null literal":   `null`,
		"NULL string":    `"NULL"`,
		"not json":       `{{{`,
		"object payload": `{"a":1}`,
		"number":         `42`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			l := SlotList{1, 2, 3} // stale value must be cleared
			require.NoError(t, json.Unmarshal([]byte(payload), &l))
			assert.Empty(t, l)
		})
	}
}

func TestSlotListDecodeSkipsGarbageElements(t *testing.T) {
	var l SlotList
	require.NoError(t, json.Unmarshal([]byte(`[1, "x", true, "12", null, 5]`), &l))
	assert.Equal(t, SlotList{1, 12, 5}, l)
}

func TestSlotListWithoutAndWithSorted(t *testing.T) {
	l := SlotList{3, 7, 9}

	removed := l.Without(7)
	assert.Equal(t, SlotList{3, 9}, removed)
	assert.Equal(t, SlotList{3, 7, 9}, l, "receiver must not change")

	restored := removed.WithSorted(7)
	assert.Equal(t, SlotList{3, 7, 9}, restored)

	assert.Equal(t, SlotList{1, 8, 10}, SlotList{8, 10}.WithSorted(1))
}

func TestReservationMapDecode(t *testing.T) {
	payload := `{"7":{"phone":"13800000000","timestamp":"2025-03-01 10:00:00","duration":30,"floor":"B1"}}`
	var m ReservationMap
	require.NoError(t, json.Unmarshal([]byte(payload), &m))

	rec, ok := m.Lookup(7)
	require.True(t, ok)
	assert.Equal(t, "13800000000", rec.Phone)
	assert.Equal(t, 30, rec.Duration)

	_, ok = m.Lookup(8)
	assert.False(t, ok)
}

func TestReservationMapDecodeDegradesToEmpty(t *testing.T) {
	for name, payload := range map[string]string{
		"null":        `null`,
		"NULL string": `"NULL"`,
		"array":       `[1,2]`,
		"not json":    `!!`,
	} {
		t.Run(name, func(t *testing.T) {
			m := ReservationMap{"1": {Phone: "x"}}
			require.NoError(t, json.Unmarshal([]byte(payload), &m))
			assert.Empty(t, m)
		})
	}
}

func TestReservationMapFindByPhoneAscending(t *testing.T) {
	m := ReservationMap{
		"9": {Phone: "13800000000"},
		"2": {Phone: "13800000000"},
		"5": {Phone: "13911111111"},
	}
	slot, rec, ok := m.FindByPhone("13800000000")
	require.True(t, ok)
	assert.Equal(t, 2, slot, "lowest slot id wins deterministically")
	assert.Equal(t, "13800000000", rec.Phone)

	_, _, ok = m.FindByPhone("13700000000")
	assert.False(t, ok)
}

func TestReservationMapWithWithout(t *testing.T) {
	m := ReservationMap{}
	m2 := m.With(7, ReservationRecord{Phone: "13800000000"})
	assert.Empty(t, m, "receiver must not change")

	rec, ok := m2.Lookup(7)
	require.True(t, ok)
	assert.Equal(t, "13800000000", rec.Phone)

	m3 := m2.Without(7)
	assert.Empty(t, m3)
	_, ok = m2.Lookup(7)
	assert.True(t, ok, "receiver must not change")
}

func TestReservedAt(t *testing.T) {
	rec := ReservationRecord{Timestamp: "2025-03-01 10:00:00"}
	at, ok := rec.ReservedAt()
	require.True(t, ok)
	assert.Equal(t, 2025, at.Year())

	_, ok = ReservationRecord{Timestamp: "soon"}.ReservedAt()
	assert.False(t, ok)
}

func TestParseFloor(t *testing.T) {
	for _, in := range []string{"B1", "b1", " b1 ", "B3"} {
		f, ok := ParseFloor(in)
		assert.True(t, ok, in)
		assert.NotEmpty(t, f)
	}
	for _, in := range []string{"B4", "", "garage", "1B"} {
		_, ok := ParseFloor(in)
		assert.False(t, ok, in)
	}
	assert.Equal(t, "parking_status_b2", FloorB2.TableName())
}
