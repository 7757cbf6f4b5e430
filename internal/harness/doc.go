// Package harness runs post-run checks of simulator output directories.
//
// A case file names a run directory and the checks to apply to it. Cases
// are written in YAML (unknown fields are rejected) or CUE:
//
//	name: csub_sub01
//	description: delay interbed budget check
//	run_dir: temp/csub_sub01
//	budget:
//	  cbc: csub_sub01.cbc
//	  listing: csub_sub01.bud.csv
//	  package: csub
//	  grid: {layers: 1, rows: 1, cols: 3}
//	  tolerance: 1.0e-2
//	interbed:
//	  observations: csub_obs.csv
//	  porosity: 0.45
//	  thickness: 1.0
//	  sublayers: {count: 19}
//	regression:
//	  - {name: TCOMP, observations: csub_obs.csv, reference: mf6/csub_obs.csv}
//
// # Checks
//
//   - budget: cell-by-cell totals reconciled with the aggregate budget table
//   - interbed: thickness and porosity recomputed from compaction, for the
//     whole bed and optionally for each delay sublayer
//   - regression: an observed series compared with a reference run
//
// Every check writes its comparison table into the report directory before
// the case verdict is returned.
package harness
