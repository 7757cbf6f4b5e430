package harness

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/reconcile/internal/report"
)

// RunWithGolden runs a case and compares each artifact it writes against a
// golden file named after the artifact, stored in testdata/golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the outcome, or an error if the case could not be run.
// A mismatching artifact fails the test through goldie.
func RunWithGolden(t *testing.T, c *Case) (*report.Outcome, error) {
	t.Helper()

	out, err := Run(context.Background(), c, Options{ReportDir: t.TempDir()})
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, path := range out.Artifacts {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		// csub.bud.cmp.out -> csub.bud
		name := strings.TrimSuffix(filepath.Base(path), ".cmp.out")
		g.Assert(t, name, data)
	}
	return out, nil
}
