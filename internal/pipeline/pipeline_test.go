package pipeline_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/draftlink-cli/internal/logging"
	"github.com/KaramelBytes/draftlink-cli/internal/merge"
	"github.com/KaramelBytes/draftlink-cli/internal/metrics"
	"github.com/KaramelBytes/draftlink-cli/internal/pipeline"
	"github.com/KaramelBytes/draftlink-cli/internal/record"
	"github.com/KaramelBytes/draftlink-cli/internal/source"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func quiet() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestRunMatchesOnlyTheSameYear(t *testing.T) {
	dir := t.TempDir()
	draft := write(t, dir, "draft.csv", "Year,Round,Overall,Name,School,Position,Team\n"+
		"2000,1,4,Sam Jones,Boston College,QB,TEAM\n"+
		"2001,2,40,Sam Jones,Boston College,QB,BEARS\n")
	combine := write(t, dir, "combine.csv", "Player,Pos,School,Ht,Wt,40yd,Vertical,Bench,Broad Jump,3Cone,Shuttle,draft_year\n"+
		"Sam Jones,QB,Boston Col.,6-2,220,4.7,,,,,,2000\n")

	res, err := pipeline.Run(context.Background(), pipeline.Options{
		DraftPath: draft, CombinePath: combine, Logger: quiet(),
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.Table.Len())
	assert.NotEmpty(t, res.RunID)

	r2000, r2001 := res.Table.Records[0], res.Table.Records[1]
	assert.Equal(t, 2000, r2000.Year)
	assert.Equal(t, record.Int(74), r2000.Height)
	assert.Equal(t, record.Float(220), r2000.Weight)
	assert.Equal(t, "COMMANDERS", r2000.Team)

	assert.Equal(t, 2001, r2001.Year)
	assert.False(t, r2001.Present())
	assert.Equal(t, "BEARS", r2001.Team)

	assert.Equal(t, 1, res.Link.SchoolsChanged)
	assert.Equal(t, 1, res.NormalizeDraft.TeamsRenamed)
	assert.Len(t, res.Durations, 4)
}

func TestRunRecordsMetrics(t *testing.T) {
	dir := t.TempDir()
	draft := write(t, dir, "draft.csv", "Year,Round,Overall,Name,School,Position,Team\n"+
		"2010,1,5,Twin,Iowa,OT,RAMS\n")
	combine := write(t, dir, "combine.csv", "Player,Pos,School,Ht,Wt,40yd,Vertical,Bench,Broad Jump,3Cone,Shuttle,draft_year\n"+
		"Twin,OT,Iowa,6-6,310,,,,,,,2010\n"+
		"Twin,OT,Iowa,bad,300,,,,,,,2010\n")

	rec := metrics.New()
	res, err := pipeline.Run(context.Background(), pipeline.Options{
		DraftPath: draft, CombinePath: combine, Logger: quiet(), Metrics: rec,
	})
	require.NoError(t, err)
	require.Len(t, res.Collisions, 1)
	assert.Equal(t, record.Float(310), res.Table.Records[0].Weight)

	p := filepath.Join(dir, "run.prom")
	require.NoError(t, rec.WriteTextfile(p))
	n, err := testutil.GatherAndCount(rec.Registry(), "draftlink_merge_collisions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunLeavesYearlessRowsUnlinked(t *testing.T) {
	dir := t.TempDir()
	draft := write(t, dir, "draft.csv", "Year,Round,Overall,Name,School,Position,Team\n"+
		"N/A,1,1,John Smith,Ohio State,WR,BEARS\n")
	combine := write(t, dir, "combine.csv", "Player,School,draft_year,Pos,Ht,Wt,40yd,Vertical,Bench,Broad Jump,3Cone,Shuttle\n"+
		"John Smith,Toledo,,WR,5-10,180,,,,,,\n")

	res, err := pipeline.Run(context.Background(), pipeline.Options{
		DraftPath: draft, CombinePath: combine, Logger: quiet(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Link.DraftMatched)
	assert.Equal(t, 0, res.Link.CombineRewritten)
	require.Equal(t, 1, res.Table.Len())
	r := res.Table.Records[0]
	assert.False(t, r.Matched())
	assert.False(t, r.Weight.Valid)
	assert.False(t, r.Height.Valid)
}

func TestRunStrictPolicy(t *testing.T) {
	dir := t.TempDir()
	draft := write(t, dir, "draft.csv", "Year,Round,Overall,Name,School,Position,Team\n"+
		"2010,1,5,Twin,Iowa,OT,RAMS\n")
	combine := write(t, dir, "combine.csv", "Player,Pos,School,Ht,Wt,40yd,Vertical,Bench,Broad Jump,3Cone,Shuttle,draft_year\n"+
		"Twin,OT,Iowa,6-6,310,,,,,,,2010\n"+
		"Twin,OT,Iowa,6-6,300,,,,,,,2010\n")

	var buf bytes.Buffer
	l := logging.New(logging.Config{Format: "json", Output: &buf})
	_, err := pipeline.Run(context.Background(), pipeline.Options{
		DraftPath: draft, CombinePath: combine, Logger: &l, DedupPolicy: merge.PolicyStrict,
	})
	require.ErrorIs(t, err, merge.ErrKeyCollision)
	assert.Contains(t, buf.String(), "duplicate key dropped")
}

func TestRunMalformedSource(t *testing.T) {
	dir := t.TempDir()
	draft := write(t, dir, "draft.csv", "Year,Name\n2000,A\n")
	combine := write(t, dir, "combine.csv", "Player\n")
	_, err := pipeline.Run(context.Background(), pipeline.Options{DraftPath: draft, CombinePath: combine, Logger: quiet()})
	require.ErrorIs(t, err, source.ErrMalformedSource)
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pipeline.Run(ctx, pipeline.Options{Logger: quiet()})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunRejectsRenameCycle(t *testing.T) {
	_, err := pipeline.Run(context.Background(), pipeline.Options{
		TeamRenames: map[string]string{"A": "B", "B": "A"}, Logger: quiet(),
	})
	require.Error(t, err)
}
