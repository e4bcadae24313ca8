package schema

import (
	"errors"
	"fmt"
)

// IntegrityError reports a checksum mismatch on an already-applied migration.
// It is always fatal to the run: the executor aborts before touching any
// further migration.
type IntegrityError struct {
	Version  int
	Expected string // checksum recorded in history
	Actual   string // checksum of the current operation list
}

// Error returns the error string.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("schema: checksum mismatch for migration V%d: history has %s, operations hash to %s", e.Version, e.Expected, e.Actual)
}

// IsIntegrityError returns true if the error is an IntegrityError.
func IsIntegrityError(err error) bool {
	if err == nil {
		return false
	}
	var e *IntegrityError
	return errors.As(err, &e)
}

// MigrationError reports a failure while executing a migration's statements.
// The failing migration's transaction has been rolled back; previously
// applied migrations stay committed.
type MigrationError struct {
	Version   int
	Statement string
	Err       error
}

// Error returns the error string.
func (e *MigrationError) Error() string {
	if e.Statement != "" {
		return fmt.Sprintf("schema: migration V%d failed on %q: %v", e.Version, e.Statement, e.Err)
	}
	return fmt.Sprintf("schema: migration V%d failed: %v", e.Version, e.Err)
}

// Unwrap returns the underlying error.
func (e *MigrationError) Unwrap() error {
	return e.Err
}

// IsMigrationError returns true if the error is a MigrationError.
func IsMigrationError(err error) bool {
	if err == nil {
		return false
	}
	var e *MigrationError
	return errors.As(err, &e)
}

// UnsupportedError reports an operation the dialect cannot express, e.g.
// altering a column on SQLite.
type UnsupportedError struct {
	Dialect string
	Feature string
}

// Error returns the error string.
func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("schema: %s does not support %s", e.Dialect, e.Feature)
}

// IsUnsupportedError returns true if the error is an UnsupportedError.
func IsUnsupportedError(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedError
	return errors.As(err, &e)
}
