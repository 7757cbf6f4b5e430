package consolidation

import (
	"bufio"
	"fmt"
	"io"

	"github.com/roach88/reconcile/internal/check"
)

// WriteTable renders comparisons that share a time axis side by side: TIME,
// then for each comparison the simulated (_SIM), independent (_CALC or
// _REF) and difference (_DIF) columns.
func WriteTable(w io.Writer, comps []*Comparison) error {
	if len(comps) == 0 {
		return check.Structural("", "no comparisons to write")
	}
	time := comps[0].Time
	for _, c := range comps[1:] {
		if len(c.Time) != len(time) {
			return check.Structural("", "%s %s has %d steps, expected %d", c.Name, c.Quantity, len(c.Time), len(time))
		}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%15s", "TIME")
	for _, c := range comps {
		fmt.Fprintf(bw, "%25s%25s%25s", c.Quantity+"_SIM", c.Quantity+"_"+c.Reference, c.Quantity+"_DIF")
	}
	fmt.Fprintln(bw)

	for i, t := range time {
		fmt.Fprintf(bw, "%15.8g", t)
		for _, c := range comps {
			fmt.Fprintf(bw, "%25.12g%25.12g%25.12g", c.Simulated[i], c.Calculated[i], c.Diff[i])
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}
