package generation

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

const (
	// ErrNoGroupKey indicates a keyword table without index columns.
	ErrNoGroupKey = constError("keywords data has no index columns to group by")

	// ErrExistingGenerationsNotUnique indicates that two existing generation
	// rows share the same group key and version.
	ErrExistingGenerationsNotUnique = constError(
		"the index columns of the existing generations data are not unique, " +
			"cannot merge with the new keywords data")

	// ErrNotSequence indicates an existing headlines or descriptions cell that
	// is not a list of strings.
	ErrNotSequence = constError("existing generation value is not a list of strings")
)
