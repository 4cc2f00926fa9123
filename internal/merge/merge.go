// Package merge left-joins the draft table to the linked combine table and
// removes the duplicate keys the join can introduce.
package merge

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/draftlink-cli/internal/record"
)

// Policy decides what happens when several rows share a (name, school, year) key.
type Policy string

const (
	// PolicyFirst keeps the first row in load order and drops the rest.
	PolicyFirst Policy = "first"
	// PolicyStrict fails the merge when any key collides.
	PolicyStrict Policy = "strict"
)

// ParsePolicy accepts "first" (or empty) and "strict".
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyFirst:
		return PolicyFirst, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("invalid dedup policy: %s (use first or strict)", s)
	}
}

// Options controls the merge.
type Options struct {
	Policy Policy
}

// Collision records one row dropped by deduplication. A combine id of -1
// means the row carried no combine match.
type Collision struct {
	Key              record.Key
	KeptDraftID      int
	KeptCombineID    int
	DroppedDraftID   int
	DroppedCombineID int
}

// FanOut reports whether the dropped row came from the same draft row joining
// more than one combine row, as opposed to two draft rows sharing a key.
func (c Collision) FanOut() bool { return c.KeptDraftID == c.DroppedDraftID }

// Stats summarizes the join and deduplication.
type Stats struct {
	DraftRows int `json:"draft_rows"`
	// JoinRows is the row count straight after the left join; above DraftRows means fan-out.
	JoinRows   int `json:"join_rows"`
	FanOut     int `json:"fan_out"`
	Dropped    int `json:"dropped"`
	OutputRows int `json:"output_rows"`
	Matched    int `json:"matched"`
	Unmatched  int `json:"unmatched"`
}

// Result is the merged table and what happened while building it.
type Result struct {
	Table      *record.Table
	Stats      Stats
	Collisions []Collision
}

// Merge left-joins draft to combine on (name, school, year), keeps the first
// row per key, and drops the combine-only columns. Every draft key appears in
// the output exactly once.
func Merge(draft *record.DraftTable, combine *record.CombineTable, opt Options) (*Result, error) {
	joined := join(draft, combine)
	st := Stats{DraftRows: len(draft.Records), JoinRows: len(joined)}
	st.FanOut = st.JoinRows - st.DraftRows

	kept, collisions := dedupe(joined)
	st.Dropped = len(collisions)
	st.OutputRows = len(kept)
	for i := range kept {
		if kept[i].Matched() {
			st.Matched++
		} else {
			st.Unmatched++
		}
	}

	if opt.Policy == PolicyStrict && len(collisions) > 0 {
		return nil, &CollisionError{Collisions: collisions}
	}
	return &Result{
		Table:      record.NewTable(draft.ExtraColumns, kept),
		Stats:      st,
		Collisions: collisions,
	}, nil
}

func join(draft *record.DraftTable, combine *record.CombineTable) []record.MergedRecord {
	idx := make(map[record.Key][]int, len(combine.Records))
	for i, c := range combine.Records {
		if c.DraftYearMissing {
			continue
		}
		k := c.Key()
		idx[k] = append(idx[k], i)
	}

	out := make([]record.MergedRecord, 0, len(draft.Records))
	for _, d := range draft.Records {
		base := record.MergedRecord{
			DraftID:   d.ID,
			CombineID: -1,
			Year:      d.Year,
			Round:     d.Round,
			Overall:   d.Overall,
			Name:      d.Name,
			School:    d.School,
			Position:  d.Position,
			Team:      d.Team,
			Extra:     append([]string(nil), d.Extra...),

			YearMissing: d.YearMissing,
		}
		if d.YearMissing {
			out = append(out, base)
			continue
		}
		matches := idx[d.Key()]
		if len(matches) == 0 {
			out = append(out, base)
			continue
		}
		for _, i := range matches {
			c := combine.Records[i]
			row := base
			row.CombineID = c.ID
			row.Measurements = c.Measurements
			out = append(out, row)
		}
	}
	return out
}

// dedupe keeps the first row per key in input order.
func dedupe(rows []record.MergedRecord) ([]record.MergedRecord, []Collision) {
	first := make(map[record.Key]int, len(rows))
	kept := make([]record.MergedRecord, 0, len(rows))
	var collisions []Collision
	for _, r := range rows {
		k := r.Key()
		if at, ok := first[k]; ok {
			collisions = append(collisions, Collision{
				Key:              k,
				KeptDraftID:      kept[at].DraftID,
				KeptCombineID:    kept[at].CombineID,
				DroppedDraftID:   r.DraftID,
				DroppedCombineID: r.CombineID,
			})
			continue
		}
		first[k] = len(kept)
		kept = append(kept, r)
	}
	return kept, collisions
}
