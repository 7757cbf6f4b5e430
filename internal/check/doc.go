// Package check defines the error taxonomy shared by every comparison.
//
// There are three kinds of failure:
//
//   - StructuralError (and LoadError): a source is missing, corrupt, or the
//     two sources disagree in shape. Fatal, no report.
//   - DataError: a value is non-finite or physically invalid. Fatal, never
//     replaced by a default.
//   - ToleranceExceeded: a difference exceeds the tolerance. The comparison
//     artifacts are still written before this error is returned.
//
// Callers classify errors with IsStructural, IsData and IsTolerance, which
// see through wrapping.
package check
