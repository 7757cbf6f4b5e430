package cbc

import (
	"errors"
	"io"

	"github.com/roach88/reconcile/internal/budget"
)

// RecordNames returns the unique record tags in order of first appearance.
func (f *File) RecordNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range f.Records {
		key := budget.FoldTag(r.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, r.Text)
	}
	return names
}

// StepKeys returns the unique (step, period) keys in file order.
func (f *File) StepKeys() []budget.StepKey {
	var keys []budget.StepKey
	for _, r := range f.Records {
		k := r.Key()
		if n := len(keys); n > 0 && sameStep(keys[n-1], k) {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

// Times returns the simulation time of every step.
func (f *File) Times() []float64 {
	keys := f.StepKeys()
	out := make([]float64, len(keys))
	for i, k := range keys {
		out[i] = k.Time
	}
	return out
}

// Source returns a budget.Source over the file's steps.
func (f *File) Source() budget.Source {
	i := 0
	return newStepSource(func() (*Record, error) {
		if i >= len(f.Records) {
			return nil, io.EOF
		}
		r := f.Records[i]
		i++
		return r, nil
	})
}

// Steps returns a budget.Source that decodes lazily from the reader.
func (rd *Reader) Steps() budget.Source {
	return newStepSource(rd.Next)
}

// stepSource groups consecutive records with the same (step, period)
// into one budget.Step.
type stepSource struct {
	next    func() (*Record, error)
	pending *Record
	done    bool
}

func newStepSource(next func() (*Record, error)) *stepSource {
	return &stepSource{next: next}
}

// Next implements budget.Source.
func (s *stepSource) Next() (*budget.Step, error) {
	if s.pending == nil && !s.done {
		if err := s.advance(); err != nil {
			return nil, err
		}
	}
	if s.pending == nil {
		return nil, io.EOF
	}

	step := &budget.Step{Key: s.pending.Key()}
	for s.pending != nil && sameStep(step.Key, s.pending.Key()) {
		// Full-array records carry no time; take it from a compact sibling.
		if step.Key.Time == 0 {
			step.Key.Time = s.pending.Totim
		}
		step.Records = append(step.Records, s.pending.FlowRecords()...)
		if err := s.advance(); err != nil {
			return nil, err
		}
	}
	for i := range step.Records {
		step.Records[i].Key = step.Key
	}
	return step, nil
}

func (s *stepSource) advance() error {
	rec, err := s.next()
	if errors.Is(err, io.EOF) {
		s.pending, s.done = nil, true
		return nil
	}
	if err != nil {
		return err
	}
	s.pending = rec
	return nil
}

func sameStep(a, b budget.StepKey) bool {
	return a.Step == b.Step && a.Period == b.Period
}
