// Package budget aggregates fine-grained flow records into per-category
// in/out totals.
//
// Aggregation is a two-stage pipeline:
//
//  1. Fold: accumulate every (node, q) pair onto its cell of a fixed grid.
//  2. Split: partition the folded values by sign into In and Out.
//
// The split never runs before the fold. Splitting sub-entities first would
// count internal flows that cancel on the same cell once in In and once in
// Out.
//
// Category tags come from an explicit allow-list (Categories). FilterPackage
// builds such a list from the tags found in a budget file.
package budget
