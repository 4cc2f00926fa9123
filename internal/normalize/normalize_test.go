package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/draftlink-cli/internal/record"
)

func TestConvertHeight(t *testing.T) {
	cases := []struct {
		in   string
		want record.NullInt
	}{
		{"6-2", record.Int(74)},
		{"5-11", record.Int(71)},
		{"6-0", record.Int(72)},
		{" 6 - 4 ", record.Int(76)},
		{"garbage", record.NullInt{}},
		{"", record.NullInt{}},
		{"6", record.NullInt{}},
		{"6-2-1", record.NullInt{}},
		{"6-", record.NullInt{}},
		{"Jun-02", record.NullInt{}},
		{"6.5-2", record.NullInt{}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ConvertHeight(tc.in), "ConvertHeight(%q)", tc.in)
	}
}

func TestTeamAliasesPassThroughAndIdempotent(t *testing.T) {
	a, err := NewTeamAliases(map[string]string{
		"TEAM":     "COMMANDERS",
		"REDSKINS": "TEAM",
		"RAIDERS":  "RAIDERS",
		"OILERS":   "TITANS",
	})
	require.NoError(t, err)

	assert.Equal(t, "COMMANDERS", a.Apply("TEAM"))
	assert.Equal(t, "COMMANDERS", a.Apply("REDSKINS"), "chains resolve to the final label")
	assert.Equal(t, "RAIDERS", a.Apply("RAIDERS"))
	assert.Equal(t, "BEARS", a.Apply("BEARS"), "unknown labels pass through")
	assert.Equal(t, 3, a.Len())

	for _, team := range []string{"TEAM", "REDSKINS", "OILERS", "BEARS", "COMMANDERS", ""} {
		once := a.Apply(team)
		assert.Equal(t, once, a.Apply(once), "apply twice for %q", team)
	}
}

func TestTeamAliasesRejectsCycle(t *testing.T) {
	_, err := NewTeamAliases(map[string]string{"A": "B", "B": "C", "C": "A"})
	require.ErrorIs(t, err, ErrAliasCycle)
}

func TestNilAliasesPassThrough(t *testing.T) {
	var a *TeamAliases
	assert.Equal(t, "TEAM", a.Apply("TEAM"))
}

func TestDraftDoesNotMutateInput(t *testing.T) {
	in := &record.DraftTable{Records: []record.DraftRecord{
		{ID: 0, Name: "A", Team: "TEAM", Extra: []string{"x"}},
		{ID: 1, Name: "B", Team: "BEARS"},
	}}
	a, err := NewTeamAliases(DefaultTeamRenames())
	require.NoError(t, err)

	out, st := Draft(in, a)
	assert.Equal(t, 1, st.TeamsRenamed)
	assert.Equal(t, "COMMANDERS", out.Records[0].Team)
	assert.Equal(t, "TEAM", in.Records[0].Team)
	assert.Len(t, out.Records, 2)

	out.Records[0].Extra[0] = "changed"
	assert.Equal(t, "x", in.Records[0].Extra[0])
}

func TestCombineDecodesHeights(t *testing.T) {
	in := &record.CombineTable{Records: []record.CombineRecord{
		{ID: 0, RawHeight: "6-2"},
		{ID: 1, RawHeight: ""},
		{ID: 2, RawHeight: "tall"},
	}}
	out, st := Combine(in)
	require.Len(t, out.Records, 3)
	assert.Equal(t, record.Int(74), out.Records[0].Height)
	assert.False(t, out.Records[1].Height.Valid)
	assert.False(t, out.Records[2].Height.Valid)
	assert.Equal(t, CombineStats{HeightsDecoded: 1, HeightsMissing: 2}, st)
	assert.False(t, in.Records[0].Height.Valid, "input table untouched")
}
