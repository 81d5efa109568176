package repository

import (
	"fmt"
	"strings"
	"time"
)

// Changes is an ordered set of column assignments for a partial update.
// Helpers add a column only when the proposed value is present and
// non-blank, so "absent" never turns into "set to empty".  Column names are
// checked against a per-table whitelist when the SET clause is rendered;
// values only ever travel as query arguments.
type Changes struct {
	cols []string
	args []any
}

// Set records col = v unconditionally, replacing an earlier value for col.
func (c *Changes) Set(col string, v any) {
	for i, existing := range c.cols {
		if existing == col {
			c.args[i] = v
			return
		}
	}
	c.cols = append(c.cols, col)
	c.args = append(c.args, v)
}

// SetString records col when v is non-nil and not blank.  It reports whether
// the column was added.
func (c *Changes) SetString(col string, v *string) bool {
	if v == nil || strings.TrimSpace(*v) == "" {
		return false
	}
	c.Set(col, strings.TrimSpace(*v))
	return true
}

// SetTime records col when v is non-nil and non-zero.
func (c *Changes) SetTime(col string, v *time.Time) bool {
	if v == nil || v.IsZero() {
		return false
	}
	c.Set(col, v.UTC())
	return true
}

// Has reports whether col is part of the change set.
func (c *Changes) Has(col string) bool {
	for _, existing := range c.cols {
		if existing == col {
			return true
		}
	}
	return false
}

// Value returns the value recorded for col.
func (c *Changes) Value(col string) (any, bool) {
	for i, existing := range c.cols {
		if existing == col {
			return c.args[i], true
		}
	}
	return nil, false
}

// Columns returns the changed columns in insertion order.
func (c *Changes) Columns() []string {
	out := make([]string, len(c.cols))
	copy(out, c.cols)
	return out
}

// Empty reports whether nothing would be written.
func (c *Changes) Empty() bool { return c == nil || len(c.cols) == 0 }

// clause renders "a = ?, b = ?, updated_at = CURRENT_TIMESTAMP" and the
// matching arguments.  Every column must appear in allowed.
func (c *Changes) clause(allowed map[string]bool) (string, []any, error) {
	parts := make([]string, 0, len(c.cols)+1)
	for _, col := range c.cols {
		if !allowed[col] {
			return "", nil, fmt.Errorf("repository: column %q is not updatable", col)
		}
		parts = append(parts, col+" = ?")
	}
	parts = append(parts, "updated_at = CURRENT_TIMESTAMP")
	args := make([]any, len(c.args))
	copy(args, c.args)
	return strings.Join(parts, ", "), args, nil
}
