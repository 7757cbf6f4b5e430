package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/reconcile/internal/budget"
	"github.com/roach88/reconcile/internal/check"
	"github.com/roach88/reconcile/internal/listing"
)

// Default tolerances, used when a case leaves tolerance unset. An explicit
// zero is kept and demands exact agreement.
const (
	DefaultBudgetTolerance   = 1e-2
	DefaultInterbedTolerance = 1e-6
)

// Case defines one post-run check of a simulator run directory.
// A case holds any combination of a budget check, an interbed check and
// regression comparisons; at least one is required.
type Case struct {
	// Name identifies the case and prefixes its artifact files.
	Name string `yaml:"name" json:"name"`

	// Description explains what the case validates.
	Description string `yaml:"description" json:"description"`

	// RunDir holds the simulator outputs. Relative to the case file.
	// All other paths are relative to RunDir.
	RunDir string `yaml:"run_dir" json:"run_dir"`

	Budget     *BudgetCheck      `yaml:"budget,omitempty" json:"budget,omitempty"`
	Interbed   *InterbedCheck    `yaml:"interbed,omitempty" json:"interbed,omitempty"`
	Regression []RegressionCheck `yaml:"regression,omitempty" json:"regression,omitempty"`

	// Path is the case file the case was loaded from.
	Path string `yaml:"-" json:"-"`
}

// BudgetCheck reconciles the cell-by-cell budget with the aggregate table.
type BudgetCheck struct {
	CBC     string `yaml:"cbc" json:"cbc"`
	Listing string `yaml:"listing" json:"listing"`

	// Package builds the category allow-list from the record names found
	// in the cell-by-cell file. Ignored when Categories is set.
	Package string `yaml:"package,omitempty" json:"package,omitempty"`

	// Categories is an explicit allow-list.
	Categories []string `yaml:"categories,omitempty" json:"categories,omitempty"`

	Grid      budget.Grid     `yaml:"grid" json:"grid"`
	Columns   listing.Columns `yaml:"columns,omitempty" json:"columns,omitempty"`
	Tolerance *float64        `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
}

// InterbedCheck recomputes thickness and porosity from compaction.
type InterbedCheck struct {
	Observations string `yaml:"observations" json:"observations"`

	// Exactly one of Porosity and VoidRatio gives the initial state.
	Porosity  *float64 `yaml:"porosity,omitempty" json:"porosity,omitempty"`
	VoidRatio *float64 `yaml:"void_ratio,omitempty" json:"void_ratio,omitempty"`

	Thickness float64 `yaml:"thickness" json:"thickness"`

	// Observation column names. Defaults: TCOMP, THICK, THETA.
	Compaction string `yaml:"compaction,omitempty" json:"compaction,omitempty"`
	Thick      string `yaml:"thick,omitempty" json:"thick,omitempty"`
	Theta      string `yaml:"theta,omitempty" json:"theta,omitempty"`

	Sublayers *SublayerColumns `yaml:"sublayers,omitempty" json:"sublayers,omitempty"`
	Tolerance *float64         `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
}

// SublayerColumns names the per-sublayer observation columns by prefix;
// sublayer i (1-based) reads column fmt.Sprintf("%s%02d", prefix, i).
type SublayerColumns struct {
	Count      int    `yaml:"count" json:"count"`
	Compaction string `yaml:"compaction,omitempty" json:"compaction,omitempty"`
	Thickness  string `yaml:"thickness,omitempty" json:"thickness,omitempty"`
	Porosity   string `yaml:"porosity,omitempty" json:"porosity,omitempty"`
}

// RegressionCheck compares one observed series with the same series from a
// reference run.
type RegressionCheck struct {
	Name         string  `yaml:"name" json:"name"`
	Observations string  `yaml:"observations" json:"observations"`
	Reference    string  `yaml:"reference" json:"reference"`
	Column       string  `yaml:"column,omitempty" json:"column,omitempty"`
	Tolerance    *float64 `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
}

// LoadCase reads a case file. Files ending in .cue are evaluated with CUE;
// anything else is parsed as YAML with unknown fields rejected.
// Defaults are applied and run_dir is resolved against the file's directory.
func LoadCase(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, check.WrapStructural(path, "failed to read case file", err)
	}

	var c Case
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		err = decodeCUE(path, data, &c)
	} else {
		err = decodeYAML(data, &c)
	}
	if err != nil {
		return nil, check.WrapStructural(path, "failed to parse case file", err)
	}

	c.Path = path
	if !filepath.IsAbs(c.RunDir) {
		c.RunDir = filepath.Join(filepath.Dir(path), c.RunDir)
	}
	if err := c.Normalize(); err != nil {
		return nil, check.WrapStructural(path, "invalid case", err)
	}
	return &c, nil
}

// Normalize applies defaults and validates c. Cases built in code rather
// than loaded must be normalized before Run.
func (c *Case) Normalize() error {
	c.applyDefaults()
	return validateCase(c)
}

func decodeYAML(data []byte, c *Case) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	return decoder.Decode(c)
}

func decodeCUE(path string, data []byte, c *Case) error {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return err
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return v.Decode(c)
}

func (c *Case) applyDefaults() {
	if b := c.Budget; b != nil {
		b.Tolerance = orDefault(b.Tolerance, DefaultBudgetTolerance)
	}
	if ib := c.Interbed; ib != nil {
		if ib.Compaction == "" {
			ib.Compaction = "TCOMP"
		}
		if ib.Thick == "" {
			ib.Thick = "THICK"
		}
		if ib.Theta == "" {
			ib.Theta = "THETA"
		}
		ib.Tolerance = orDefault(ib.Tolerance, DefaultInterbedTolerance)
		if s := ib.Sublayers; s != nil {
			if s.Compaction == "" {
				s.Compaction = "DBCOMP"
			}
			if s.Thickness == "" {
				s.Thickness = "DBTHICK"
			}
			if s.Porosity == "" {
				s.Porosity = "DBPORO"
			}
		}
	}
	for i := range c.Regression {
		r := &c.Regression[i]
		if r.Column == "" {
			r.Column = r.Name
		}
		r.Tolerance = orDefault(r.Tolerance, DefaultInterbedTolerance)
	}
}

func orDefault(tol *float64, def float64) *float64 {
	if tol != nil {
		return tol
	}
	return &def
}

// validateCase checks that required fields are present and valid.
func validateCase(c *Case) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(c.Name, `/\`) {
		return fmt.Errorf("name %q must not contain path separators", c.Name)
	}
	if c.Budget == nil && c.Interbed == nil && len(c.Regression) == 0 {
		return fmt.Errorf("at least one of budget, interbed or regression is required")
	}

	if b := c.Budget; b != nil {
		if b.CBC == "" {
			return fmt.Errorf("budget: cbc is required")
		}
		if b.Listing == "" {
			return fmt.Errorf("budget: listing is required")
		}
		if b.Package == "" && len(b.Categories) == 0 {
			return fmt.Errorf("budget: package or categories is required")
		}
		if err := b.Grid.Validate(); err != nil {
			return fmt.Errorf("budget: %w", err)
		}
		if err := check.ValidateTolerance(*b.Tolerance); err != nil {
			return fmt.Errorf("budget: %w", err)
		}
	}

	if ib := c.Interbed; ib != nil {
		if ib.Observations == "" {
			return fmt.Errorf("interbed: observations is required")
		}
		if (ib.Porosity == nil) == (ib.VoidRatio == nil) {
			return fmt.Errorf("interbed: exactly one of porosity and void_ratio is required")
		}
		if ib.Thickness <= 0 {
			return fmt.Errorf("interbed: thickness must be positive")
		}
		if ib.Sublayers != nil && ib.Sublayers.Count < 1 {
			return fmt.Errorf("interbed: sublayers.count must be at least 1")
		}
		if err := check.ValidateTolerance(*ib.Tolerance); err != nil {
			return fmt.Errorf("interbed: %w", err)
		}
	}

	for i, r := range c.Regression {
		if r.Name == "" {
			return fmt.Errorf("regression[%d]: name is required", i)
		}
		if r.Observations == "" || r.Reference == "" {
			return fmt.Errorf("regression[%d]: observations and reference are required", i)
		}
		if err := check.ValidateTolerance(*r.Tolerance); err != nil {
			return fmt.Errorf("regression[%d]: %w", i, err)
		}
	}
	return nil
}

// path resolves a run-directory file name.
func (c *Case) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.RunDir, name)
}

// FindCases returns the case files under dir, sorted by path. A non-empty
// pattern filters by base name (filepath.Match syntax).
func FindCases(dir, pattern string) ([]string, error) {
	if pattern != "" {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", pattern, err)
		}
	}
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".cue":
		default:
			return nil
		}
		if pattern != "" {
			if ok, _ := filepath.Match(pattern, d.Name()); !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, check.WrapStructural(dir, "failed to scan case directory", err)
	}
	sort.Strings(files)
	return files, nil
}
