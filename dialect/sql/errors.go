package sql

import (
	"errors"
	"fmt"
)

// BuildError reports a malformed statement, e.g. an insert or update with an
// empty value set. It is raised before any SQL text is emitted.
type BuildError struct {
	Stmt string // statement kind, e.g. "insert"
	Msg  string
}

// Error returns the error string.
func (e *BuildError) Error() string {
	return fmt.Sprintf("sql: build %s: %s", e.Stmt, e.Msg)
}

// IsBuildError returns true if the error is a BuildError.
func IsBuildError(err error) bool {
	if err == nil {
		return false
	}
	var e *BuildError
	return errors.As(err, &e)
}

// RenderError reports an AST node that is unsupported in the clause currently
// being rendered, e.g. an aggregate field inside GROUP BY.
type RenderError struct {
	Clause string
	Msg    string
}

// Error returns the error string.
func (e *RenderError) Error() string {
	return fmt.Sprintf("sql: render %s: %s", e.Clause, e.Msg)
}

// IsRenderError returns true if the error is a RenderError.
func IsRenderError(err error) bool {
	if err == nil {
		return false
	}
	var e *RenderError
	return errors.As(err, &e)
}
