package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/draftlink-cli/internal/record"
)

func sampleTable() *record.Table {
	return record.NewTable([]string{"Notes"}, []record.MergedRecord{
		{
			DraftID: 0, CombineID: 0, Year: 2000, Round: 1, Overall: 1,
			Name: "Courtney Brown", School: "Penn State", Position: "DE", Team: "BROWNS",
			Extra:        []string{"first, overall"},
			Measurements: record.Measurements{Height: record.Int(76), Weight: record.Float(271), Forty: record.Float(4.78)},
		},
		{
			DraftID: 1, CombineID: -1, Year: 2001, Round: 7, Overall: 240,
			Name: "Late Pick", School: "Tulane", Position: "K", Team: "COMMANDERS",
		},
	})
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTable()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Year,Round,Overall,Name,School,Position,Team,Notes,Ht,Wt,40yd,Vertical,Bench,Broad Jump,3Cone,Shuttle", lines[0])
	assert.Equal(t, `2000,1,1,Courtney Brown,Penn State,DE,BROWNS,"first, overall",76,271,4.78,,,,,`, lines[1])
	assert.Equal(t, "2001,7,240,Late Pick,Tulane,K,COMMANDERS,,,,,,,,,", lines[2])
}

func TestWriteJSONKeepsOrderAndNulls(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleTable()))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, 76.0, rows[0]["Ht"])
	assert.Equal(t, "first, overall", rows[0]["Notes"])
	assert.Nil(t, rows[1]["Wt"])
	assert.Contains(t, rows[1], "Wt")

	out := buf.String()
	assert.Less(t, strings.Index(out, `"Year"`), strings.Index(out, `"Shuttle"`))
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, record.NewTable(nil, nil)))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, sampleTable()))

	var rows []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, 2000, rows[0]["Year"])
	assert.Equal(t, 4.78, rows[0]["40yd"])
	assert.Nil(t, rows[1]["Ht"])
	assert.True(t, strings.HasPrefix(buf.String(), "- Year: 2000\n"))
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleTable()))
	out := buf.String()
	assert.Contains(t, out, "Courtney Brown")
	assert.Contains(t, out, "COMMANDERS")
}

func TestWriteFileIsAtomic(t *testing.T) {
	p := filepath.Join(t.TempDir(), "merged.json")
	require.NoError(t, WriteFile(p, FormatForPath(p), sampleTable()))
	_, err := os.Stat(p + ".tmp")
	assert.True(t, os.IsNotExist(err))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.True(t, json.Valid(b))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	_, err = ParseFormat("xml")
	assert.Error(t, err)
	assert.Equal(t, FormatJSON, DetectFormat(FormatJSON))
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatCSV, FormatForPath("out.csv"))
	assert.Equal(t, FormatYAML, FormatForPath("out.yml"))
	assert.Equal(t, FormatTable, FormatForPath("out.txt"))
	assert.Equal(t, FormatCSV, FormatForPath("out"))
}
