package cbc

import (
	"strings"

	"github.com/roach88/reconcile/internal/budget"
)

// Storage methods of a budget record.
const (
	// MethodFull is a full 3-D array with no time information (non-compact header).
	MethodFull = 0

	// MethodArray is a full 3-D array following a compact header.
	MethodArray = 1

	// MethodList is a list of (id1, id2, q, aux...) entries.
	MethodList = 6
)

// textLen is the fixed width of every text field in the file.
const textLen = 16

// Record is one budget record: a single category at a single step.
type Record struct {
	Step   int
	Period int

	// Text is the category tag with padding removed.
	Text string

	// Dims are ndim1, ndim2 and |ndim3| (columns, rows, layers).
	Dims [3]int

	// Method is MethodFull, MethodArray or MethodList.
	Method int

	Delt   float64
	Pertim float64
	Totim  float64

	// Array holds the cell values for MethodFull and MethodArray.
	Array []float64

	// Model and package names for MethodList: modelnam1, paknam1, modelnam2, paknam2.
	Names [4]string

	// AuxNames are the auxiliary column names for MethodList.
	AuxNames []string

	// List holds the entries for MethodList.
	List []ListEntry
}

// ListEntry is one row of a MethodList record.
type ListEntry struct {
	ID1 int
	ID2 int
	Q   float64
	Aux []float64
}

// Key returns the record's reporting time.
func (r *Record) Key() budget.StepKey {
	return budget.StepKey{Step: r.Step, Period: r.Period, Time: r.Totim}
}

// Size returns the number of cells described by Dims.
func (r *Record) Size() int {
	return r.Dims[0] * r.Dims[1] * r.Dims[2]
}

// FlowRecords converts the record into flow records.
//
// Array values are addressed to their own cell (node = index+1). List entries
// are addressed to ID1 and are folded later by the aggregator.
func (r *Record) FlowRecords() []budget.FlowRecord {
	key := r.Key()
	if r.Method == MethodList {
		out := make([]budget.FlowRecord, len(r.List))
		for i, e := range r.List {
			out[i] = budget.FlowRecord{Category: r.Text, Node: e.ID1, Value: e.Q, Key: key}
		}
		return out
	}
	out := make([]budget.FlowRecord, len(r.Array))
	for i, v := range r.Array {
		out[i] = budget.FlowRecord{Category: r.Text, Node: i + 1, Value: v, Key: key}
	}
	return out
}

func trimText(b []byte) string {
	return strings.TrimSpace(string(b))
}
