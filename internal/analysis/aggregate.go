package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/draftlink-cli/internal/record"
)

// Count is the number of rows holding Value.
type Count struct {
	Value string
	N     int
}

// GroupMean is the mean of a column within one group. N counts the rows with
// a present value; missing values are skipped.
type GroupMean struct {
	Group []string
	Mean  float64
	N     int
}

// SchoolCount is a school's total and first-round selections.
type SchoolCount struct {
	School     string
	Overall    int
	FirstRound int
}

// MeanBy averages valueCol per distinct combination of groupCols. Groups are
// ordered by their key, numerically for numeric columns.
func MeanBy(t *record.Table, groupCols []string, valueCol string, f Filter) ([]GroupMean, error) {
	keep, err := f.compile(t)
	if err != nil {
		return nil, err
	}
	groupFields := make([]record.Field, len(groupCols))
	for i, c := range groupCols {
		if groupFields[i], err = t.Field(c); err != nil {
			return nil, fmt.Errorf("group by: %w", err)
		}
	}
	value, err := t.Field(valueCol)
	if err != nil {
		return nil, fmt.Errorf("mean of: %w", err)
	}
	if !value.Numeric {
		return nil, fmt.Errorf("mean of %s: column is not numeric", value.Name)
	}

	type acc struct {
		group []string
		sum   float64
		n     int
	}
	byKey := map[string]*acc{}
	for i := range t.Records {
		r := &t.Records[i]
		if !keep(r) {
			continue
		}
		x, ok := value.Get(r).Num.Float()
		if !ok {
			continue
		}
		group := make([]string, len(groupFields))
		for j, gf := range groupFields {
			group[j] = gf.Get(r).Text
		}
		k := strings.Join(group, "\x00")
		a := byKey[k]
		if a == nil {
			a = &acc{group: group}
			byKey[k] = a
		}
		a.sum += x
		a.n++
	}

	out := make([]GroupMean, 0, len(byKey))
	for _, a := range byKey {
		out = append(out, GroupMean{Group: a.group, Mean: a.sum / float64(a.n), N: a.n})
	}
	sort.Slice(out, func(i, j int) bool {
		for k, gf := range groupFields {
			a, b := out[i].Group[k], out[j].Group[k]
			if a == b {
				continue
			}
			return lessCell(gf, a, b)
		}
		return false
	})
	return out, nil
}

// CountBy counts rows per distinct value of col, by descending count then value.
func CountBy(t *record.Table, col string, f Filter) ([]Count, error) {
	keep, err := f.compile(t)
	if err != nil {
		return nil, err
	}
	field, err := t.Field(col)
	if err != nil {
		return nil, fmt.Errorf("count by: %w", err)
	}
	counts := map[string]int{}
	for i := range t.Records {
		r := &t.Records[i]
		if keep(r) {
			counts[field.Get(r).Text]++
		}
	}
	out := make([]Count, 0, len(counts))
	for v, n := range counts {
		out = append(out, Count{Value: v, N: n})
	}
	sortCounts(out)
	return out, nil
}

// TopSchools returns the n schools with the most selections, each with its
// first-round count. n <= 0 returns every school.
func TopSchools(t *record.Table, n int) []SchoolCount {
	overall := map[string]int{}
	first := map[string]int{}
	for _, r := range t.Records {
		overall[r.School]++
		if r.Round == 1 {
			first[r.School]++
		}
	}
	out := make([]SchoolCount, 0, len(overall))
	for s, c := range overall {
		out = append(out, SchoolCount{School: s, Overall: c, FirstRound: first[s]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Overall == out[j].Overall {
			return out[i].School < out[j].School
		}
		return out[i].Overall > out[j].Overall
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// CohortPositions counts positions drafted by each cohort of teams.
func CohortPositions(t *record.Table, cohorts map[string][]string) (map[string][]Count, error) {
	out := make(map[string][]Count, len(cohorts))
	for name, teams := range cohorts {
		counts, err := CountBy(t, record.ColPosition, In(record.ColTeam, teams...))
		if err != nil {
			return nil, fmt.Errorf("cohort %s: %w", name, err)
		}
		out[name] = counts
	}
	return out, nil
}

func sortCounts(cs []Count) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].N == cs[j].N {
			return cs[i].Value < cs[j].Value
		}
		return cs[i].N > cs[j].N
	})
}

func lessCell(f record.Field, a, b string) bool {
	if f.Numeric {
		x, xok := record.ParseFloat(a).Float()
		y, yok := record.ParseFloat(b).Float()
		if xok && yok {
			return x < y
		}
		if xok != yok {
			return xok
		}
	}
	return a < b
}
