// Package state persists tracked files, their per-cell correction history
// and correction runs in SQLite.
//
// The contract is core.Store; this package provides the SQLite
// implementation with embedded goose migrations.
package state

import "github.com/leapstack-labs/sheetproof/pkg/core"

var _ core.Store = (*SQLiteStore)(nil)
