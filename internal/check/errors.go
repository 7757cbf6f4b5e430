package check

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes comparison failures.
type ErrorCode string

const (
	// CodeStructural indicates a missing, unreadable, or mis-shaped source.
	CodeStructural ErrorCode = "STRUCTURAL"

	// CodeData indicates a non-finite or physically invalid value.
	CodeData ErrorCode = "DATA"

	// CodeTolerance indicates a numeric difference above the configured tolerance.
	CodeTolerance ErrorCode = "TOLERANCE_EXCEEDED"
)

// StructuralError reports a source that cannot be compared at all: the file
// is missing or corrupt, or the two sources disagree in cardinality or shape.
//
// Structural errors are fatal. No partial report is produced.
type StructuralError struct {
	// Message is a human-readable description.
	Message string

	// Path is the offending source file, if any.
	Path string

	// Err is the underlying cause (optional).
	Err error
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	msg := fmt.Sprintf("%s: %s", CodeStructural, e.Message)
	if e.Path != "" {
		msg = fmt.Sprintf("%s (path=%s)", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// LoadError is a StructuralError raised while parsing a source table.
// It carries the line number when the failure is tied to one.
type LoadError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	loc := e.Path
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", CodeStructural, loc, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", CodeStructural, loc, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// DataError reports a value that must never be coerced to a default,
// e.g. a NaN compaction.
type DataError struct {
	Quantity string
	Step     int // 1-based; 0 when not tied to a step
	Value    float64
	Message  string
}

// Error implements the error interface.
func (e *DataError) Error() string {
	if e.Step > 0 {
		return fmt.Sprintf("%s: %s %s at step %d (value=%v)", CodeData, e.Quantity, e.Message, e.Step, e.Value)
	}
	return fmt.Sprintf("%s: %s %s (value=%v)", CodeData, e.Quantity, e.Message, e.Value)
}

// ToleranceExceeded is the expected "comparison failed" signal. It always
// names the largest difference and where it occurred.
type ToleranceExceeded struct {
	// Check names the comparison, e.g. "total-budget" or "interbed THETA".
	Check string

	// Quantity is the offending column (e.g. "CSUB-CGELASTIC_IN", "THICK").
	Quantity string

	// Step is the 1-based index of the offending step.
	Step int

	// Delta is the maximum absolute difference.
	Delta float64

	// Tolerance is the configured limit.
	Tolerance float64
}

// Error implements the error interface.
func (e *ToleranceExceeded) Error() string {
	return fmt.Sprintf("%s: maximum absolute %s difference (%g) exceeds %g at step %d (%s)",
		CodeTolerance, e.Check, e.Delta, e.Tolerance, e.Step, e.Quantity)
}

// Structural creates a StructuralError.
func Structural(path, format string, args ...any) *StructuralError {
	return &StructuralError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// WrapStructural wraps an existing error as a StructuralError.
func WrapStructural(path, message string, err error) *StructuralError {
	return &StructuralError{Path: path, Message: message, Err: err}
}

// Code returns the category of err, or "" for errors outside the taxonomy.
// Uses errors.As to handle wrapped errors.
func Code(err error) ErrorCode {
	switch {
	case IsStructural(err):
		return CodeStructural
	case IsData(err):
		return CodeData
	case IsTolerance(err):
		return CodeTolerance
	}
	return ""
}

// IsStructural returns true for StructuralError and LoadError.
func IsStructural(err error) bool {
	var se *StructuralError
	if errors.As(err, &se) {
		return true
	}
	var le *LoadError
	return errors.As(err, &le)
}

// IsData returns true if err is a DataError.
func IsData(err error) bool {
	var de *DataError
	return errors.As(err, &de)
}

// IsTolerance returns true if err is a ToleranceExceeded.
func IsTolerance(err error) bool {
	var te *ToleranceExceeded
	return errors.As(err, &te)
}
