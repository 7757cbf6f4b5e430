package check

import (
	"fmt"
	"math"
)

// Finite returns a DataError if v is NaN or infinite.
func Finite(quantity string, step int, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &DataError{Quantity: quantity, Step: step, Value: v, Message: "is not finite"}
	}
	return nil
}

// ValidateTolerance rejects negative or non-finite tolerances.
func ValidateTolerance(tol float64) error {
	if math.IsNaN(tol) || math.IsInf(tol, 0) || tol < 0 {
		return fmt.Errorf("tolerance must be a finite non-negative number, got %v", tol)
	}
	return nil
}

// Within reports whether maxabs passes the tolerance (inclusive).
func Within(maxabs, tol float64) bool {
	return maxabs <= tol
}

// MaxAbs returns the largest |d| in diffs and its index.
// Returns (0, -1) for an empty slice. NaN differences win so they
// cannot hide behind a passing comparison.
func MaxAbs(diffs []float64) (float64, int) {
	maxabs, at := 0.0, -1
	for i, d := range diffs {
		a := math.Abs(d)
		if math.IsNaN(a) {
			return a, i
		}
		if at < 0 || a > maxabs {
			maxabs, at = a, i
		}
	}
	return maxabs, at
}
