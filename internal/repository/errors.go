// Package repository implements data access over the per-floor snapshot
// tables, the shared reservation history, and the user/token tables. It
// also defines the sentinel errors higher layers use to classify failures
// without inspecting store internals.
package repository

import "errors"

// ErrNoSnapshot is returned when a floor's status table has no rows yet.
// Floors are bootstrapped externally (cmd/seed or the IoT uploader); until
// then the floor has no current state to read or mutate.
var ErrNoSnapshot = errors.New("no parking snapshot for floor")

// ErrSnapshotSuperseded is returned by CommitMutation when another commit
// landed on the floor between reading the base snapshot and writing the
// derived one. The caller's view is stale; it must re-read and retry.
// Handlers translate this into an HTTP 409 response.
var ErrSnapshotSuperseded = errors.New("snapshot superseded by concurrent commit")

// ErrPhoneExists is returned when registering a phone number that already
// has an account.
var ErrPhoneExists = errors.New("phone already registered")
