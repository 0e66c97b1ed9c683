package reshape

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Input-shape errors. They indicate a caller defect and are never recovered.
var (
	// ErrIndexNotUnique indicates a long table whose row identifier repeats.
	ErrIndexNotUnique = constError("row index is not unique")

	// ErrNotSequence indicates a list column holding something other than a list of strings.
	ErrNotSequence = constError("column does not contain sequences")

	// ErrMissingColumn indicates a list column absent from the long table.
	ErrMissingColumn = constError("list column missing")

	// ErrTooManySlots indicates a row with more slot values than its ad format allows.
	ErrTooManySlots = constError("too many slots for ad format")

	// ErrUnknownFormat indicates an ad format name that is not registered.
	ErrUnknownFormat = constError("unknown ad format")
)
