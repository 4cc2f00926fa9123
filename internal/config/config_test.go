package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "first", c.DedupPolicy)
	assert.Equal(t, 20, c.TopSchools)
	assert.Equal(t, map[string]string{"TEAM": "COMMANDERS"}, c.TeamRenames)
	assert.Equal(t, DefaultRegressionFeatures(), c.RegressionFeatures)
	assert.Contains(t, c.TeamCohorts, "steady_qb")
}

func TestLoadFileKeepsRenameCase(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	yml := "dedup_policy: strict\nteam_renames:\n  OILERS: TITANS\n  TEAM: COMMANDERS\n"
	require.NoError(t, os.WriteFile(p, []byte(yml), 0o644))

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "strict", c.DedupPolicy)
	assert.Equal(t, map[string]string{"OILERS": "TITANS", "TEAM": "COMMANDERS"}, c.TeamRenames)
}

func TestEnvOverridesFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte("top_schools: 3\n"), 0o644))
	t.Setenv("DRAFTLINK_TOP_SCHOOLS", "7")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 7, c.TopSchools)
}

func TestSaveRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	in := &Global{DedupPolicy: "strict", TopSchools: 4, TeamRenames: map[string]string{"RAIDERS": "RAIDERS_LV"}}
	require.NoError(t, Save(in, p))

	out, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 4, out.TopSchools)
	assert.Equal(t, "strict", out.DedupPolicy)
	assert.Equal(t, in.TeamRenames, out.TeamRenames)
}

func TestDelimiterRune(t *testing.T) {
	cases := map[string]rune{"": 0, "tab": '\t', ";": ';', "|": '|'}
	for in, want := range cases {
		got, err := (&Global{Delimiter: in}).DelimiterRune()
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := (&Global{Delimiter: ";;"}).DelimiterRune()
	assert.Error(t, err)
}
