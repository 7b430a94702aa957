// Package core defines the shared language of the sheetproof system.
//
// This package contains:
//   - Domain entities (Grid, Coordinate, Correction, FileRecord, CorrectionRun)
//   - Rich text and character style types shared by the workbook and apply layers
//   - Service interfaces (Store)
//   - Error classes shared across packages
//
// The Golden Rule: pkg/core imports ONLY pkg/cellref and stdlib (plus x/text for
// path normalization). All other packages depend on core, not the reverse.
package core
