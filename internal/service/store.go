package service

import (
	"context"

	"github.com/chenzhe/smart-parking/internal/model"
)

// SnapshotStore is the coordinator's view of the per-floor snapshot logs.
// repository.SnapshotRepo implements it against MySQL; tests drive the
// coordinator with an in-memory arena.
type SnapshotStore interface {
	// Latest returns the floor's current snapshot, or
	// repository.ErrNoSnapshot when the floor has never been bootstrapped.
	Latest(ctx context.Context, floor model.Floor) (*model.FloorSnapshot, error)

	// CommitMutation atomically appends the derived snapshot together with
	// its history entry. baseID is the id of the snapshot the mutation was
	// computed from; the store must refuse the commit with
	// repository.ErrSnapshotSuperseded when the floor's latest id moved in
	// the meantime. Either both rows become visible or neither does.
	CommitMutation(ctx context.Context, baseID uint64, next *model.FloorSnapshot, entry model.HistoryEntry) error
}
