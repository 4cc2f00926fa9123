// Package link reconciles combine school names with the draft source so the
// (name, school, year) key can join the two tables.
//
// Draft schools are authoritative. Positions are not reconciled: the combine
// taxonomy is finer (CB and S instead of DB) and is dropped by the merger.
package link

import (
	"github.com/KaramelBytes/draftlink-cli/internal/record"
)

// Stats summarizes a linking pass.
type Stats struct {
	// DraftMatched counts draft rows with at least one combine row of the same name and year.
	DraftMatched int `json:"draft_matched"`
	// CombineRewritten counts combine rows whose school was assigned from a draft row.
	CombineRewritten int `json:"combine_rewritten"`
	// SchoolsChanged counts combine rows whose school text actually changed.
	SchoolsChanged int `json:"schools_changed"`
	// Conflicts counts combine rows claimed by more than one draft row with differing schools.
	Conflicts int `json:"conflicts"`
}

// Index maps (name, year) to combine row positions in load order.
type Index map[record.NameYear][]int

// BuildIndex indexes the combine table by (player, draft year). Rows without a
// draft year are left out.
func BuildIndex(t *record.CombineTable) Index {
	idx := make(Index, len(t.Records))
	for i, c := range t.Records {
		if c.DraftYearMissing {
			continue
		}
		k := c.MatchKey()
		idx[k] = append(idx[k], i)
	}
	return idx
}

// Schools returns a copy of combine in which every row sharing a draft row's
// name and year carries that draft row's school. When several draft rows
// share a name and year the later one in load order wins.
func Schools(draft *record.DraftTable, combine *record.CombineTable) (*record.CombineTable, Stats) {
	idx := BuildIndex(combine)
	out := combine.Clone()

	// Assignments are collected before any row is rewritten.
	assigned := make(map[int]string)
	conflicted := make(map[int]bool)
	var st Stats
	for _, d := range draft.Records {
		if d.YearMissing {
			continue
		}
		rows := idx[record.NameYear{Name: d.Name, Year: d.Year}]
		if len(rows) == 0 {
			continue
		}
		st.DraftMatched++
		for _, i := range rows {
			if prev, ok := assigned[i]; ok && prev != d.School && !conflicted[i] {
				conflicted[i] = true
				st.Conflicts++
			}
			assigned[i] = d.School
		}
	}

	for i, school := range assigned {
		r := &out.Records[i]
		st.CombineRewritten++
		if r.School != school {
			r.School = school
			st.SchoolsChanged++
		}
	}
	return out, st
}
