package budget

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Categories is an ordered allow-list of budget category tags.
//
// Tags are matched case-insensitively after trimming surrounding spaces,
// since simulators pad record text to a fixed width.
type Categories struct {
	names []string
	index map[string]int
}

// NewCategories builds an allow-list. Empty and duplicate tags are rejected.
func NewCategories(names ...string) (Categories, error) {
	c := Categories{
		names: make([]string, 0, len(names)),
		index: make(map[string]int, len(names)),
	}
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return Categories{}, fmt.Errorf("empty category tag")
		}
		key := FoldTag(trimmed)
		if _, dup := c.index[key]; dup {
			return Categories{}, fmt.Errorf("duplicate category tag %q", trimmed)
		}
		c.index[key] = len(c.names)
		c.names = append(c.names, trimmed)
	}
	return c, nil
}

// MustCategories is NewCategories that panics on error. For tests and constants.
func MustCategories(names ...string) Categories {
	c, err := NewCategories(names...)
	if err != nil {
		panic(err)
	}
	return c
}

// Names returns the configured tags in order.
func (c Categories) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of tags.
func (c Categories) Len() int {
	return len(c.names)
}

// Match returns the configured spelling of tag if it is allowed.
func (c Categories) Match(tag string) (string, bool) {
	i, ok := c.index[FoldTag(tag)]
	if !ok {
		return "", false
	}
	return c.names[i], true
}

// FieldNames returns the aggregate-table column names for the allow-list:
// <TAG>_IN, <TAG>_OUT for each tag, in order.
func (c Categories) FieldNames() []string {
	out := make([]string, 0, 2*len(c.names))
	for _, n := range c.names {
		out = append(out, InField(n), OutField(n))
	}
	return out
}

// InField is the column name of the inflow half of a category.
func InField(category string) string { return category + "_IN" }

// OutField is the column name of the outflow half of a category.
func OutField(category string) string { return category + "_OUT" }

// FilterPackage returns the tags in available whose name contains pkg,
// compared case-insensitively. Order of first appearance is kept and
// duplicates are dropped.
func FilterPackage(available []string, pkg string) []string {
	want := FoldTag(pkg)
	seen := make(map[string]bool)
	var out []string
	for _, tag := range available {
		trimmed := strings.TrimSpace(tag)
		key := FoldTag(trimmed)
		if want == "" || !strings.Contains(key, want) || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, trimmed)
	}
	return out
}

// FoldTag normalizes a category tag for comparison.
func FoldTag(tag string) string {
	// A Caser keeps state between calls, so one is made per use.
	return cases.Fold().String(strings.TrimSpace(tag))
}
