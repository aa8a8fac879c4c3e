package viewer

import "errors"

var (
	// ErrInvalidIndexSetSize is returned by bounds and zoom operations called
	// with fewer indices than they need.
	ErrInvalidIndexSetSize = errors.New("viewer: not enough vertex indices")

	// ErrVertexOutOfRange is returned when an index is outside a series'
	// coordinate arrays
	ErrVertexOutOfRange = errors.New("viewer: vertex index out of range")

	// ErrUnknownSeries is returned when a series name is not registered
	ErrUnknownSeries = errors.New("viewer: unknown series")

	// ErrNotInteractive is returned for selection operations on a series
	// without a spatial index
	ErrNotInteractive = errors.New("viewer: series is not interactive")

	// ErrVariantOutOfRange is returned for a variant index outside a series' variants
	ErrVariantOutOfRange = errors.New("viewer: variant out of range")

	// ErrInvalidSeries is returned by New for malformed series data
	ErrInvalidSeries = errors.New("viewer: invalid series")

	// ErrExportPending is returned by BeginExport while another export is in progress
	ErrExportPending = errors.New("viewer: export already in progress")

	// ErrStaleExport is returned when completing an export with a token that
	// is not the pending one
	ErrStaleExport = errors.New("viewer: export token is not pending")
)
