// Package normalize makes draft and combine fields comparable: franchise labels
// are aliased to their current names and combine heights are decoded to inches.
package normalize

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/draftlink-cli/internal/record"
)

// ErrAliasCycle indicates a rename table whose chains never settle.
var ErrAliasCycle = errors.New("team rename cycle")

// DefaultTeamRenames is used when no rename table is configured.
func DefaultTeamRenames() map[string]string {
	return map[string]string{"TEAM": "COMMANDERS"}
}

// TeamAliases maps old franchise labels to their current label. Chains such as
// A->B, B->C are resolved at construction, so Apply is idempotent.
type TeamAliases struct {
	resolved map[string]string
}

// NewTeamAliases resolves renames to their final labels. Identity entries are
// ignored; a cycle returns ErrAliasCycle.
func NewTeamAliases(renames map[string]string) (*TeamAliases, error) {
	a := &TeamAliases{resolved: make(map[string]string, len(renames))}
	keys := make([]string, 0, len(renames))
	for k := range renames {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, from := range keys {
		cur := from
		seen := map[string]bool{from: true}
		for {
			next, ok := renames[cur]
			if !ok || next == cur {
				break
			}
			if seen[next] {
				return nil, fmt.Errorf("%w: %s", ErrAliasCycle, from)
			}
			seen[next] = true
			cur = next
		}
		if cur != from {
			a.resolved[from] = cur
		}
	}
	return a, nil
}

// Apply returns the current label for team. Unknown labels pass through.
func (a *TeamAliases) Apply(team string) string {
	if a == nil {
		return team
	}
	if to, ok := a.resolved[team]; ok {
		return to
	}
	return team
}

// Len returns the number of effective renames.
func (a *TeamAliases) Len() int {
	if a == nil {
		return 0
	}
	return len(a.resolved)
}

// ConvertHeight decodes "<feet>-<inches>" into total inches. Any other shape,
// including empty text, is missing rather than an error.
func ConvertHeight(s string) record.NullInt {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return record.NullInt{}
	}
	feet, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return record.NullInt{}
	}
	inches, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return record.NullInt{}
	}
	return record.Int(feet*12 + inches)
}

// DraftStats summarizes a draft normalization pass.
type DraftStats struct {
	TeamsRenamed int `json:"teams_renamed"`
}

// Draft returns a copy of t with team labels aliased.
func Draft(t *record.DraftTable, aliases *TeamAliases) (*record.DraftTable, DraftStats) {
	out := t.Clone()
	var st DraftStats
	for i := range out.Records {
		r := &out.Records[i]
		if to := aliases.Apply(r.Team); to != r.Team {
			r.Team = to
			st.TeamsRenamed++
		}
	}
	return out, st
}

// CombineStats summarizes a combine normalization pass.
type CombineStats struct {
	HeightsDecoded int `json:"heights_decoded"`
	// HeightsMissing counts rows whose height was empty or malformed.
	HeightsMissing int `json:"heights_missing"`
}

// Combine returns a copy of t with heights decoded from RawHeight.
func Combine(t *record.CombineTable) (*record.CombineTable, CombineStats) {
	out := t.Clone()
	var st CombineStats
	for i := range out.Records {
		r := &out.Records[i]
		r.Height = ConvertHeight(r.RawHeight)
		if r.Height.Valid {
			st.HeightsDecoded++
		} else {
			st.HeightsMissing++
		}
	}
	return out, st
}
