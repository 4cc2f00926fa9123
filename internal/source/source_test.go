package source_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/draftlink-cli/internal/record"
	"github.com/KaramelBytes/draftlink-cli/internal/source"
)

const draftCSV = "Year,Round,Overall,Name,School,Position,Team,Notes\n" +
	"2000,1,1,Courtney Brown,Penn State,DE,BROWNS,first pick\n" +
	"2000,1,2,LaVar Arrington,Penn State,LB,TEAM,\n" +
	"2001,x,3,Short Row,Ohio State\n"

const combineCSV = ",Player,Pos,School,Ht,Wt,40yd,Vertical,Bench,Broad Jump,3Cone,Shuttle,draft_year\n" +
	"0,Courtney Brown,DE,Penn St.,6-4,271,4.78,,26,,,,2000.0\n" +
	"1,Walk On,WR,Nowhere,5-10,180,4.4,38,,120,6.9,4.1,\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadDraft(t *testing.T) {
	tbl, err := source.LoadDraft(writeFile(t, "draft.csv", draftCSV), source.Options{})
	require.NoError(t, err)

	require.Len(t, tbl.Records, 3)
	assert.Equal(t, []string{"Notes"}, tbl.ExtraColumns)

	first := tbl.Records[0]
	assert.Equal(t, 0, first.ID)
	assert.Equal(t, 2000, first.Year)
	assert.Equal(t, 1, first.Overall)
	assert.Equal(t, "Courtney Brown", first.Name)
	assert.Equal(t, "Penn State", first.School)
	assert.Equal(t, "BROWNS", first.Team)
	assert.Equal(t, []string{"first pick"}, first.Extra)

	assert.Equal(t, "TEAM", tbl.Records[1].Team, "loader does not alias teams")

	short := tbl.Records[2]
	assert.Equal(t, 2, short.ID)
	assert.Equal(t, 0, short.Round, "unparseable integer reads as zero")
	assert.Equal(t, "", short.Team, "short rows pad with empty cells")
	require.Len(t, tbl.Warnings, 1)
	assert.Contains(t, tbl.Warnings[0], "Round")
}

func TestLoadCombine(t *testing.T) {
	tbl, err := source.LoadCombine(writeFile(t, "combine.csv", combineCSV), source.Options{})
	require.NoError(t, err)
	require.Len(t, tbl.Records, 2)

	c := tbl.Records[0]
	assert.Equal(t, "Courtney Brown", c.Player)
	assert.Equal(t, 2000, c.DraftYear, "float year text parses")
	assert.Equal(t, "Penn St.", c.School)
	assert.Equal(t, "DE", c.Position)
	assert.Equal(t, "6-4", c.RawHeight)
	assert.False(t, c.Height.Valid, "height is decoded by the normalizer")
	assert.Equal(t, record.Float(271), c.Weight)
	assert.Equal(t, record.Float(26), c.Bench)
	assert.False(t, c.Vertical.Valid, "absent drill is missing, not zero")

	assert.False(t, c.DraftYearMissing)

	undrafted := tbl.Records[1]
	assert.True(t, undrafted.DraftYearMissing)
	assert.Empty(t, tbl.Warnings)
}

func TestUnparseableYearIsMissing(t *testing.T) {
	in := "Year,Round,Overall,Name,School,Position,Team\n" +
		"N/A,1,1,John Smith,Ohio State,WR,BEARS\n" +
		"2004,1,2,Jim Smith,Ohio State,WR,BEARS\n"
	tbl, err := source.ReadDraft(strings.NewReader(in), "draft", source.Options{})
	require.NoError(t, err)
	assert.True(t, tbl.Records[0].YearMissing)
	assert.False(t, tbl.Records[1].YearMissing)
	require.Len(t, tbl.Warnings, 1)
	assert.Contains(t, tbl.Warnings[0], "Year")
}

func TestWarningCountIncludesSuppressed(t *testing.T) {
	var b strings.Builder
	b.WriteString("Year,Round,Overall,Name,School,Position,Team\n")
	for i := 0; i < 25; i++ {
		b.WriteString("2000,x,1,A,B,QB,BEARS\n")
	}
	tbl, err := source.ReadDraft(strings.NewReader(b.String()), "draft", source.Options{})
	require.NoError(t, err)
	assert.Len(t, tbl.Warnings, 21, "twenty warnings plus the suppression summary")
	assert.Contains(t, tbl.Warnings[20], "5 more warnings suppressed")
	assert.Equal(t, 25, tbl.WarningCount)
}

func TestCellsAreTrimmed(t *testing.T) {
	draft := "Year,Round,Overall,Name,School,Position,Team\n" +
		"2000,1,1,\"Courtney Brown \",\" Penn State \",DE,BROWNS\n"
	d, err := source.ReadDraft(strings.NewReader(draft), "draft", source.Options{})
	require.NoError(t, err)
	assert.Equal(t, "Courtney Brown", d.Records[0].Name)
	assert.Equal(t, "Penn State", d.Records[0].School)

	combine := ",Player,Pos,School,Ht,Wt,40yd,Vertical,Bench,Broad Jump,3Cone,Shuttle,draft_year\n" +
		"0,\" Courtney Brown\",DE,\"Penn St. \",6-4 , 271 ,4.78,,26,,,, 2000 \n"
	c, err := source.ReadCombine(strings.NewReader(combine), "combine", source.Options{})
	require.NoError(t, err)
	got := c.Records[0]
	assert.Equal(t, "Courtney Brown", got.Player)
	assert.Equal(t, "Penn St.", got.School)
	assert.Equal(t, "6-4", got.RawHeight)
	assert.Equal(t, record.Float(271), got.Weight)
	assert.Equal(t, 2000, got.DraftYear)
	assert.Empty(t, c.Warnings)
}

func TestLoadTSVByExtension(t *testing.T) {
	tsv := strings.ReplaceAll(draftCSV, ",", "\t")
	tbl, err := source.LoadDraft(writeFile(t, "draft.tsv", tsv), source.Options{})
	require.NoError(t, err)
	assert.Equal(t, "Penn State", tbl.Records[0].School)
}

func TestMissingColumnIsMalformed(t *testing.T) {
	p := writeFile(t, "draft.csv", "Year,Round,Overall,Name,School,Position\n2000,1,1,A,B,QB\n")
	_, err := source.LoadDraft(p, source.Options{})
	require.ErrorIs(t, err, source.ErrMalformedSource)

	var me *source.MalformedSourceError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, source.SourceDraft, me.Source)
	assert.Equal(t, []string{"Team"}, me.Missing)
}

func TestEmptyCombineIsMalformed(t *testing.T) {
	_, err := source.ReadCombine(strings.NewReader(""), "empty", source.Options{})
	require.ErrorIs(t, err, source.ErrMalformedSource)
}

func TestHeaderMatchIgnoresCaseAndBOM(t *testing.T) {
	in := "\ufeffyear,round,overall,name,school,position,team\n2003,2,40,X,Y,T,RAMS\n"
	tbl, err := source.ReadDraft(strings.NewReader(in), "draft", source.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2003, tbl.Records[0].Year)
	assert.Empty(t, tbl.ExtraColumns)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := source.LoadDraft(filepath.Join(t.TempDir(), "nope.csv"), source.Options{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, source.ErrMalformedSource)
}
