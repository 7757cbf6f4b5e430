package reconcile

import (
	"bufio"
	"fmt"
	"io"
)

// WriteTable renders the full per-step comparison: the step key, then for
// every column the aggregate value (_LST), the cell-by-cell value (_CBC)
// and the signed difference (_DIF). It is written whether or not the
// comparison passed.
func WriteTable(w io.Writer, r *Result) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%15s%6s%6s", "TIME", "KSTP", "KPER")
	for _, c := range r.Columns {
		fmt.Fprintf(bw, "%25s%25s%25s", c+"_LST", c+"_CBC", c+"_DIF")
	}
	fmt.Fprintln(bw)

	for _, row := range r.Rows {
		fmt.Fprintf(bw, "%15.8g%6d%6d", row.Key.Time, row.Key.Step, row.Key.Period)
		for c := range r.Columns {
			fmt.Fprintf(bw, "%25.12g%25.12g%25.12g", row.Reference[c], row.Fine[c], row.Diff[c])
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}
