// Package reconcile compares the cell-by-cell budget totals with the
// aggregate budget, step by step and column by column.
//
// Alignment is positional: row t of the cell-by-cell series is compared with
// row t of the aggregate table. No reordering or interpolation is done, so
// the two sources must already agree in step count. The comparison passes
// when max |aggregate - cell-by-cell| <= tolerance.
package reconcile
