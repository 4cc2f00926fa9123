package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/draftlink-cli/internal/record"
)

// Filter selects rows by column equality. The zero value keeps every row.
type Filter struct {
	conds []cond
}

type cond struct {
	col    string
	values []string
}

// All keeps every row.
var All = Filter{}

// Where keeps rows whose col equals value. Numeric columns compare by value,
// so Where("Round", "1.0") matches round 1.
func Where(col, value string) Filter { return All.And(col, value) }

// In keeps rows whose col equals any of values.
func In(col string, values ...string) Filter { return All.AndIn(col, values...) }

// And narrows f with another equality condition.
func (f Filter) And(col, value string) Filter { return f.AndIn(col, value) }

// AndIn narrows f with a set-membership condition.
func (f Filter) AndIn(col string, values ...string) Filter {
	out := Filter{conds: make([]cond, 0, len(f.conds)+1)}
	out.conds = append(out.conds, f.conds...)
	out.conds = append(out.conds, cond{col: col, values: append([]string(nil), values...)})
	return out
}

// String renders the filter for report headings.
func (f Filter) String() string {
	if len(f.conds) == 0 {
		return "all rows"
	}
	parts := make([]string, len(f.conds))
	for i, c := range f.conds {
		if len(c.values) == 1 {
			parts[i] = fmt.Sprintf("%s = %s", c.col, c.values[0])
		} else {
			parts[i] = fmt.Sprintf("%s in (%s)", c.col, strings.Join(c.values, ", "))
		}
	}
	return strings.Join(parts, " and ")
}

func (f Filter) compile(t *record.Table) (func(*record.MergedRecord) bool, error) {
	type matcher func(*record.MergedRecord) bool
	ms := make([]matcher, 0, len(f.conds))
	for _, c := range f.conds {
		field, err := t.Field(c.col)
		if err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
		if field.Numeric {
			want := make(map[float64]bool, len(c.values))
			for _, v := range c.values {
				x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
				if err != nil {
					return nil, fmt.Errorf("filter %s: %q is not a number", field.Name, v)
				}
				want[x] = true
			}
			ms = append(ms, func(r *record.MergedRecord) bool {
				x, ok := field.Get(r).Num.Float()
				return ok && want[x]
			})
			continue
		}
		want := make(map[string]bool, len(c.values))
		for _, v := range c.values {
			want[v] = true
		}
		ms = append(ms, func(r *record.MergedRecord) bool { return want[field.Get(r).Text] })
	}
	return func(r *record.MergedRecord) bool {
		for _, m := range ms {
			if !m(r) {
				return false
			}
		}
		return true
	}, nil
}
