package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/draftlink-cli/internal/merge"
	"github.com/KaramelBytes/draftlink-cli/internal/pipeline"
)

func TestNewSaveLoad(t *testing.T) {
	res := &pipeline.Result{
		RunID:       "4b7c1a52-1111-4e0b-9e88-0c3f2a1e9d10",
		StartedAt:   time.Date(2024, 4, 25, 20, 0, 0, 0, time.UTC),
		DraftPath:   "draft.csv",
		CombinePath: "combine.csv",
		Policy:      merge.PolicyFirst,
		Load:        pipeline.LoadStats{DraftRows: 10, CombineRows: 8, DraftWarnings: []string{"w"}, DraftWarningCount: 1},
		Merge:       merge.Stats{JoinRows: 11, Dropped: 1, OutputRows: 10},
		Collisions:  []merge.Collision{{}},
		Durations:   map[string]time.Duration{"load": 2 * time.Millisecond},
	}
	m := New(res)
	m.AddOutput("table", "merged.csv")

	dir := filepath.Join(t.TempDir(), "runs")
	path := filepath.Join(dir, "manifest.json")
	if err := m.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.RunID != res.RunID || !got.CreatedAt.Equal(res.StartedAt) {
		t.Fatalf("identity mismatch: %+v", got)
	}
	if len(got.Inputs) != 2 || got.Inputs[0].Rows != 10 || got.Inputs[0].Warnings != 1 || got.Inputs[1].Rows != 8 {
		t.Fatalf("inputs = %+v", got.Inputs)
	}
	if got.Stats.Merge.JoinRows != 11 || got.Collisions != 1 {
		t.Fatalf("stats = %+v collisions=%d", got.Stats.Merge, got.Collisions)
	}
	if got.Durations["load"] != "2ms" {
		t.Fatalf("durations = %v", got.Durations)
	}
	if len(got.Outputs) != 1 || !strings.HasSuffix(got.Outputs[0].Path, "merged.csv") {
		t.Fatalf("outputs = %+v", got.Outputs)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil || !strings.Contains(err.Error(), "manifest not found") {
		t.Fatalf("err = %v", err)
	}
}
