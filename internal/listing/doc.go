// Package listing loads the aggregate ("listing") budget: the coarse
// per-step table the simulator reports, with one <TAG>_IN and one <TAG>_OUT
// column per budget category plus time, step and period columns.
//
// The table is the reference the cell-by-cell totals are reconciled against.
package listing
