package consolidation

import (
	"fmt"

	"github.com/roach88/reconcile/internal/check"
)

// Bed is the initial state of an interbed (or one of its sublayers).
type Bed struct {
	// VoidRatio is the initial void ratio e0.
	VoidRatio float64

	// Thickness is the initial thickness b0.
	Thickness float64
}

// Point is the state of a bed after a given cumulative compaction.
type Point struct {
	Strain    float64
	VoidRatio float64
	Porosity  float64
	Thickness float64
}

// VoidRatioFromPorosity converts porosity θ to void ratio e = θ/(1-θ).
func VoidRatioFromPorosity(theta float64) (float64, error) {
	if err := check.Finite("porosity", 0, theta); err != nil {
		return 0, err
	}
	if theta < 0 || theta >= 1 {
		return 0, &check.DataError{Quantity: "porosity", Value: theta, Message: "must be in [0, 1)"}
	}
	return theta / (1 - theta), nil
}

// PorosityFromVoidRatio converts void ratio e to porosity θ = e/(1+e).
func PorosityFromVoidRatio(e float64) float64 {
	return e / (1 + e)
}

// Validate checks the initial state is physical.
func (b Bed) Validate() error {
	if err := check.Finite("void ratio", 0, b.VoidRatio); err != nil {
		return err
	}
	if err := check.Finite("thickness", 0, b.Thickness); err != nil {
		return err
	}
	if b.VoidRatio < 0 {
		return &check.DataError{Quantity: "void ratio", Value: b.VoidRatio, Message: "must be non-negative"}
	}
	if b.Thickness <= 0 {
		return &check.DataError{Quantity: "thickness", Value: b.Thickness, Message: "must be positive"}
	}
	return nil
}

// At applies the void-ratio consolidation relation to a cumulative
// compaction c:
//
//	ε = -c / b0
//	e = e0 + ε(1 + e0)
//	θ = e / (1 + e)
//	b = b0 - c
//
// A non-finite c is a DataError, as is a compaction that consumes the whole
// bed (c >= b0), for which e <= -1 and θ is undefined.
func (b Bed) At(c float64) (Point, error) {
	if err := check.Finite("compaction", 0, c); err != nil {
		return Point{}, err
	}
	if c >= b.Thickness {
		return Point{}, &check.DataError{
			Quantity: "compaction",
			Value:    c,
			Message:  fmt.Sprintf("reaches the initial thickness %g", b.Thickness),
		}
	}

	strain := -c / b.Thickness
	e := b.VoidRatio + strain*(1+b.VoidRatio)
	return Point{
		Strain:    strain,
		VoidRatio: e,
		Porosity:  PorosityFromVoidRatio(e),
		Thickness: b.Thickness - c,
	}, nil
}

// Sublayer returns the bed of one of n equal-thickness sublayers.
func (b Bed) Sublayer(n int) Bed {
	return Bed{VoidRatio: b.VoidRatio, Thickness: b.Thickness / float64(n)}
}
