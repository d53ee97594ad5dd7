package repository

import (
	"context"
	"database/sql"

	"github.com/chenzhe/smart-parking/internal/model"
)

// HistoryRepo appends to and reads the shared reservation_history table.
// The table is a pure audit trail: rows are immutable once written and the
// coordinator never consults it to reconstruct floor state.
type HistoryRepo struct {
	db *sql.DB
}

// NewHistoryRepo returns a HistoryRepo bound to the given database.
func NewHistoryRepo(db *sql.DB) *HistoryRepo { return &HistoryRepo{db: db} }

// appendHistoryTx inserts one audit row inside an existing transaction.
// SnapshotRepo.CommitMutation uses it so the history entry and the derived
// snapshot commit or roll back together.
func appendHistoryTx(ctx context.Context, tx *sql.Tx, e model.HistoryEntry) error {
	const q = `INSERT INTO reservation_history (table_name, slot_number, phone, action)
		VALUES (?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, e.TableName, e.SlotNumber, e.Phone, e.Action)
	return err
}

// AppendTx exposes the transactional insert for callers that manage their
// own transaction.
func (r *HistoryRepo) AppendTx(ctx context.Context, tx *sql.Tx, e model.HistoryEntry) error {
	return appendHistoryTx(ctx, tx, e)
}

// ListByPhone returns a user's audit trail, newest first.
func (r *HistoryRepo) ListByPhone(ctx context.Context, phone string) ([]model.HistoryEntry, error) {
	const q = `SELECT id, table_name, slot_number, phone, action, created_at
		FROM reservation_history WHERE phone = ? ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]model.HistoryEntry, 0)
	for rows.Next() {
		var e model.HistoryEntry
		if err := rows.Scan(&e.ID, &e.TableName, &e.SlotNumber, &e.Phone, &e.Action, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
