// Package errors provides typed errors for idxadvisor operations.
//
// This package defines sentinel errors and error types that allow callers
// to handle specific error conditions programmatically using errors.Is()
// and errors.As().
//
// Sentinel Errors:
//   - ErrLockHeld: another invocation holds the pipeline lock
//   - ErrTableNotFound: target table is missing, derived, or temporary
//   - ErrInvalidConfig: configuration validation failed
//   - ErrUnknownDialect: no dialect registered under the requested name
//   - ErrNoData: no captured statements available
//
// Typed Errors:
//   - CatalogError: wraps errors reading live schema metadata
//   - AnalyzeError: wraps plan/analyze failures (recoverable per statement)
//   - DDLError: wraps index creation/drop failures
//   - ValidationError: wraps configuration/input validation errors
//   - MultiError: aggregates per-table failures of one invocation
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrLockHeld indicates a concurrent invocation holds the pipeline
	// lock. The whole run aborts immediately rather than queuing.
	ErrLockHeld = errors.New("pipeline lock already held")

	// ErrTableNotFound indicates the table is missing or derived/temporary.
	// This is an expected skip condition, not a failure.
	ErrTableNotFound = errors.New("table not found")

	// ErrInvalidConfig indicates configuration validation failed.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownDialect indicates an unsupported dialect name.
	ErrUnknownDialect = errors.New("unknown dialect")

	// ErrNoData indicates no captured statements were available.
	ErrNoData = errors.New("no data available")
)

// Is reports whether any error in err's tree matches target.
// Re-exported so callers need only this package.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's tree matching target's type.
func As(err error, target any) bool { return errors.As(err, target) }

// CatalogError represents a failure reading live schema metadata.
// It is fatal for the current table's pass only.
type CatalogError struct {
	Table string // Table whose pass failed
	Op    string // Operation that failed (e.g., "list indexes")
	Err   error  // Underlying error
}

// NewCatalogError creates a new CatalogError.
func NewCatalogError(table, op string, err error) *CatalogError {
	return &CatalogError{Table: table, Op: op, Err: err}
}

// Error implements the error interface.
func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog error for %s in %s: %v", e.Table, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CatalogError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error type.
func (e *CatalogError) Is(target error) bool {
	_, ok := target.(*CatalogError)
	return ok
}

// AnalyzeError represents a plan/analyze failure for one statement sample.
// Callers substitute a sentinel benchmark record and continue the session.
type AnalyzeError struct {
	Sample string // SQL sample (may be truncated for long statements)
	Err    error  // Underlying database error
}

// sampleMaxLen is the maximum length of a sample string in error messages.
const sampleMaxLen = 100

// NewAnalyzeError creates a new AnalyzeError.
// Long samples are automatically truncated.
func NewAnalyzeError(sample string, err error) *AnalyzeError {
	if len(sample) > sampleMaxLen {
		sample = sample[:sampleMaxLen] + "..."
	}
	return &AnalyzeError{Sample: sample, Err: err}
}

// Error implements the error interface.
func (e *AnalyzeError) Error() string {
	return fmt.Sprintf("analyze failed [%s]: %v", e.Sample, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AnalyzeError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error type.
func (e *AnalyzeError) Is(target error) bool {
	_, ok := target.(*AnalyzeError)
	return ok
}

// DDLError represents an index creation or drop failure. Creation failures
// are recorded and the remaining candidates proceed; the failed candidate
// is excluded from the backtest's unchanged check.
type DDLError struct {
	Table string // Table the DDL targeted
	Index string // Index name
	Err   error  // Underlying error
}

// NewDDLError creates a new DDLError.
func NewDDLError(table, index string, err error) *DDLError {
	return &DDLError{Table: table, Index: index, Err: err}
}

// Error implements the error interface.
func (e *DDLError) Error() string {
	return fmt.Sprintf("ddl failed for %s on %s: %v", e.Index, e.Table, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *DDLError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error type.
func (e *DDLError) Is(target error) bool {
	_, ok := target.(*DDLError)
	return ok
}

// ValidationError represents a configuration or input validation error.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // Value that was invalid (may be redacted for sensitive fields)
	Message string // Human-readable validation message
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
}

// Unwrap returns ErrInvalidConfig for errors.Is support.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// Is reports whether target matches this error type.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// MultiError aggregates multiple errors into a single error.
// This is useful when table passes can fail independently.
type MultiError struct {
	Errors []error
}

// Add appends an error to the collection. Nil errors are ignored.
func (me *MultiError) Add(err error) {
	if err != nil {
		me.Errors = append(me.Errors, err)
	}
}

// Error implements the error interface.
func (me *MultiError) Error() string {
	switch len(me.Errors) {
	case 0:
		return "no errors"
	case 1:
		return me.Errors[0].Error()
	default:
		return fmt.Sprintf("%d errors occurred; first: %v", len(me.Errors), me.Errors[0])
	}
}

// Unwrap returns the first error for errors.Is/As support.
func (me *MultiError) Unwrap() error {
	if len(me.Errors) == 0 {
		return nil
	}
	return me.Errors[0]
}

// ErrorOrNil returns nil if no errors were added, otherwise returns the MultiError.
func (me *MultiError) ErrorOrNil() error {
	if len(me.Errors) == 0 {
		return nil
	}
	return me
}
