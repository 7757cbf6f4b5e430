package budget

import (
	"errors"
	"fmt"
	"io"

	"github.com/roach88/reconcile/internal/check"
)

// Entry is one (node, q) pair of an irregular flow list.
// Node is 1-based.
type Entry struct {
	Node int
	Q    float64
}

// Fold accumulates entries onto a grid-sized array.
//
// Several entries may map to the same cell (sub-faces, connections); their
// values are summed, so cancelling internal flows cancel here and never reach
// the sign split. Folding is order-independent.
func Fold(grid Grid, entries []Entry) ([]float64, error) {
	if err := grid.Validate(); err != nil {
		return nil, check.Structural("", "fold: %v", err)
	}
	cells := make([]float64, grid.Size())
	for i, e := range entries {
		if e.Node < 1 || e.Node > len(cells) {
			return nil, check.Structural("", "fold: entry %d node %d outside grid of %d cells", i, e.Node, len(cells))
		}
		cells[e.Node-1] += e.Q
	}
	return cells, nil
}

// Split partitions values by sign: v >= 0 adds to In, v < 0 adds -v to Out.
// No value contributes to both. Non-finite values are a DataError.
func Split(values []float64) (Totals, error) {
	var t Totals
	for i, v := range values {
		if err := check.Finite("flow", 0, v); err != nil {
			return Totals{}, fmt.Errorf("split: value %d: %w", i, err)
		}
		if v < 0 {
			t.Out -= v
		} else {
			t.In += v
		}
	}
	return t, nil
}

// Aggregate folds records onto grid and then splits by sign.
//
// Records with Node > 0 are folded onto their cell; records with Node == 0
// are kept as standalone entities. The split always runs after the fold.
func Aggregate(grid Grid, records []FlowRecord) (Totals, error) {
	entries := make([]Entry, 0, len(records))
	var loose []float64
	for _, r := range records {
		if r.Node == 0 {
			loose = append(loose, r.Value)
			continue
		}
		entries = append(entries, Entry{Node: r.Node, Q: r.Value})
	}

	cells, err := Fold(grid, entries)
	if err != nil {
		return Totals{}, err
	}
	return Split(append(cells, loose...))
}

// StepTotalsFor computes the totals of every allowed category at one step.
// Records of categories outside cats are ignored; allowed categories with
// no records total zero.
func StepTotalsFor(grid Grid, key StepKey, records []FlowRecord, cats Categories) (StepTotals, error) {
	byCategory := make(map[string][]FlowRecord, cats.Len())
	for _, r := range records {
		name, ok := cats.Match(r.Category)
		if !ok {
			continue
		}
		byCategory[name] = append(byCategory[name], r)
	}

	st := StepTotals{Key: key, Categories: make(map[string]Totals, cats.Len())}
	for _, name := range cats.Names() {
		t, err := Aggregate(grid, byCategory[name])
		if err != nil {
			return StepTotals{}, fmt.Errorf("%s at %s: %w", name, key, err)
		}
		st.Categories[name] = t
	}
	return st, nil
}

// Step is the set of records reported at one time.
type Step struct {
	Key     StepKey
	Records []FlowRecord
}

// Source yields steps one at a time, in file order.
// Next returns io.EOF when the source is exhausted.
type Source interface {
	Next() (*Step, error)
}

// Collect drains src and returns the per-step totals in source order.
func Collect(src Source, grid Grid, cats Categories) ([]StepTotals, error) {
	var out []StepTotals
	for {
		step, err := src.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		st, err := StepTotalsFor(grid, step.Key, step.Records, cats)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
}

// SliceSource is a Source over already materialized steps.
type SliceSource struct {
	steps []Step
	idx   int
}

// NewSliceSource creates a Source over steps.
func NewSliceSource(steps ...Step) *SliceSource {
	return &SliceSource{steps: steps}
}

// Next implements Source.
func (s *SliceSource) Next() (*Step, error) {
	if s.idx >= len(s.steps) {
		return nil, io.EOF
	}
	step := &s.steps[s.idx]
	s.idx++
	return step, nil
}
