// Package consolidation cross-checks interbed compaction results against
// the void-ratio consolidation relation.
//
// Given the initial void ratio e0 (from the initial porosity) and initial
// thickness b0, a cumulative compaction c implies a strain ε = -c/b0, a void
// ratio e = e0 + ε(1+e0), a porosity θ = e/(1+e) and a thickness b = b0 - c.
// Under this relation porosity decreases as compaction increases.
//
// A bed may also be resolved into N sublayers of thickness b0/N each. Their
// analytic values re-aggregate to a whole-bed thickness Σb and a
// thickness-weighted porosity Σbθ/Σb.
//
// Every comparison reports Calculated - Simulated and passes when the
// maximum absolute difference is within the tolerance.
package consolidation
