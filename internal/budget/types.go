package budget

import "fmt"

// StepKey identifies one reporting time of a simulation.
// Step and Period are 1-based, as written by the simulator.
type StepKey struct {
	Step   int     `json:"time_step"`
	Period int     `json:"stress_period"`
	Time   float64 `json:"totim"`
}

// String renders the key for logs and error messages.
func (k StepKey) String() string {
	return fmt.Sprintf("kstp=%d kper=%d totim=%g", k.Step, k.Period, k.Time)
}

// FlowRecord is one signed flow value for a category, entity and step.
//
// Node is the 1-based cell the value is attributed to. Node 0 marks a value
// with no explicit cell; it is treated as its own entity and never folded.
type FlowRecord struct {
	Category string
	Node     int
	Value    float64
	Key      StepKey
}

// Totals is the signed split of one category at one step.
// In and Out are both non-negative; In-Out is the net flow.
type Totals struct {
	In  float64 `json:"in"`
	Out float64 `json:"out"`
}

// Net returns In - Out.
func (t Totals) Net() float64 {
	return t.In - t.Out
}

// StepTotals holds the totals of every configured category at one step.
type StepTotals struct {
	Key        StepKey
	Categories map[string]Totals
}

// Get returns the totals for category, zero if absent.
func (s StepTotals) Get(category string) Totals {
	return s.Categories[category]
}

// Grid is the spatial discretization folded entities map onto.
type Grid struct {
	Layers int `yaml:"layers" json:"layers"`
	Rows   int `yaml:"rows" json:"rows"`
	Cols   int `yaml:"cols" json:"cols"`
}

// Size returns the number of cells.
func (g Grid) Size() int {
	return g.Layers * g.Rows * g.Cols
}

// Validate checks every dimension is positive.
func (g Grid) Validate() error {
	if g.Layers <= 0 || g.Rows <= 0 || g.Cols <= 0 {
		return fmt.Errorf("grid dimensions must be positive, got %dx%dx%d", g.Layers, g.Rows, g.Cols)
	}
	return nil
}
