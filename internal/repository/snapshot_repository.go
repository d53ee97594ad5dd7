package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chenzhe/smart-parking/internal/model"
)

// SnapshotRepo reads and appends rows of the per-floor status tables.
// Tables are append-only: the row with the greatest id is the floor's
// current state, and every mutation inserts a new row carrying the full
// floor state forward. All timestamps are stored in UTC.
type SnapshotRepo struct {
	db *sql.DB
}

// NewSnapshotRepo returns a SnapshotRepo bound to the given database.
func NewSnapshotRepo(db *sql.DB) *SnapshotRepo { return &SnapshotRepo{db: db} }

// DB exposes the underlying pool for callers that need to open their own
// transactions.
func (r *SnapshotRepo) DB() *sql.DB { return r.db }

// Table names are interpolated, never parameterized: they come from the
// closed Floor enum, not from user input.
func latestQuery(f model.Floor) string {
	return fmt.Sprintf(`SELECT id, timestamp, total_slots, free_slots, free_positions,
		parking_rows, parking_columns, reservation, source_type
		FROM %s ORDER BY id DESC LIMIT 1`, f.TableName())
}

// Latest returns the floor's current snapshot, i.e. the most recently
// inserted row. ErrNoSnapshot is returned when the table is empty.
func (r *SnapshotRepo) Latest(ctx context.Context, floor model.Floor) (*model.FloorSnapshot, error) {
	return scanSnapshot(r.db.QueryRowContext(ctx, latestQuery(floor)), floor)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner, floor model.Floor) (*model.FloorSnapshot, error) {
	var (
		snap      model.FloorSnapshot
		freeRaw   sql.NullString
		resRaw    sql.NullString
		rows      sql.NullInt64
		cols      sql.NullInt64
		timestamp time.Time
	)
	err := row.Scan(&snap.ID, &timestamp, &snap.TotalSlots, &snap.FreeSlots,
		&freeRaw, &rows, &cols, &resRaw, &snap.SourceType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}
	snap.Floor = floor
	snap.Timestamp = timestamp
	if rows.Valid {
		snap.Rows = int(rows.Int64)
	}
	if cols.Valid {
		snap.Columns = int(cols.Int64)
	}
	// The JSON columns decode leniently: SQL NULL, the literal string
	// "NULL" and malformed payloads all become empty values. Unmarshal on
	// these types cannot fail.
	snap.FreePositions = model.SlotList{}
	if freeRaw.Valid {
		_ = json.Unmarshal([]byte(freeRaw.String), &snap.FreePositions)
	}
	snap.Reservations = model.ReservationMap{}
	if resRaw.Valid {
		_ = json.Unmarshal([]byte(resRaw.String), &snap.Reservations)
	}
	return &snap, nil
}

// LatestAll returns the current snapshot of every floor in ascending floor
// order, skipping floors that have not been bootstrapped yet. Each floor is
// read independently; the combined view is not a consistent cut.
func (r *SnapshotRepo) LatestAll(ctx context.Context) ([]*model.FloorSnapshot, error) {
	out := make([]*model.FloorSnapshot, 0, len(model.AllFloors()))
	for _, f := range model.AllFloors() {
		snap, err := r.Latest(ctx, f)
		if err != nil {
			if errors.Is(err, ErrNoSnapshot) {
				continue
			}
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func insertSnapshotTx(ctx context.Context, tx *sql.Tx, snap *model.FloorSnapshot) error {
	freeJSON, err := json.Marshal(snap.FreePositions)
	if err != nil {
		return err
	}
	resJSON, err := json.Marshal(snap.Reservations)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`INSERT INTO %s (timestamp, total_slots, free_slots, free_positions,
		parking_rows, parking_columns, reservation, source_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, snap.Floor.TableName())
	_, err = tx.ExecContext(ctx, q,
		snap.Timestamp.UTC().Format(model.TimeLayout),
		snap.TotalSlots,
		len(snap.FreePositions), // invariant: free_slots always matches the list
		string(freeJSON),
		snap.Rows,
		snap.Columns,
		string(resJSON),
		snap.SourceType,
	)
	return err
}

// CommitMutation atomically appends a derived snapshot and its history
// entry. baseID must be the id of the snapshot the mutation was computed
// from; inside the transaction the floor's latest id is re-read with a row
// lock, and when it no longer matches, the commit is refused with
// ErrSnapshotSuperseded. This closes the check-then-insert race between
// concurrent reservations on the same floor: of two callers working from
// the same base snapshot, exactly one commit wins.
func (r *SnapshotRepo) CommitMutation(ctx context.Context, baseID uint64, next *model.FloorSnapshot, entry model.HistoryEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	guard := fmt.Sprintf(`SELECT id FROM %s ORDER BY id DESC LIMIT 1 FOR UPDATE`, next.Floor.TableName())
	var latestID uint64
	if err := tx.QueryRowContext(ctx, guard).Scan(&latestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoSnapshot
		}
		return err
	}
	if latestID != baseID {
		return ErrSnapshotSuperseded
	}

	if err := insertSnapshotTx(ctx, tx, next); err != nil {
		return err
	}
	if err := appendHistoryTx(ctx, tx, entry); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// InsertDetection appends a snapshot outside the reservation protocol, the
// way the camera-side uploader does. No optimistic guard applies: detection
// rows simply become the new latest state. Used by cmd/seed for the first
// snapshot of a floor.
func (r *SnapshotRepo) InsertDetection(ctx context.Context, snap *model.FloorSnapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := insertSnapshotTx(ctx, tx, snap); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
