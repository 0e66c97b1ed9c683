package table

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors returned by table construction and lookups.
var (
	// ErrColumnMismatch indicates a row or table whose shape does not match the target columns.
	ErrColumnMismatch = constError("column mismatch")

	// ErrUnknownColumn indicates a reference to a column the table does not have.
	ErrUnknownColumn = constError("unknown column")

	// ErrDuplicateColumn indicates a column name declared more than once.
	ErrDuplicateColumn = constError("duplicate column")
)
