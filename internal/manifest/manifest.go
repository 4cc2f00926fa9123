// Package manifest records what a run read, what it produced and how the
// stages went, as a JSON file next to the outputs.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/KaramelBytes/draftlink-cli/internal/link"
	"github.com/KaramelBytes/draftlink-cli/internal/merge"
	"github.com/KaramelBytes/draftlink-cli/internal/normalize"
	"github.com/KaramelBytes/draftlink-cli/internal/pipeline"
	"github.com/KaramelBytes/draftlink-cli/internal/source"
	"github.com/KaramelBytes/draftlink-cli/internal/utils"
)

// Input describes one source file.
type Input struct {
	Source   string `json:"source"`
	Path     string `json:"path"`
	Rows     int    `json:"rows"`
	Warnings int    `json:"warnings"`
}

// Output is a file written by the run.
type Output struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// Stats groups the per-stage counters.
type Stats struct {
	Normalize struct {
		Draft   normalize.DraftStats   `json:"draft"`
		Combine normalize.CombineStats `json:"combine"`
	} `json:"normalize"`
	Link  link.Stats  `json:"link"`
	Merge merge.Stats `json:"merge"`
}

// Manifest is the persisted record of one run.
type Manifest struct {
	RunID       string            `json:"run_id"`
	CreatedAt   time.Time         `json:"created_at"`
	DedupPolicy string            `json:"dedup_policy"`
	Inputs      []Input           `json:"inputs"`
	Outputs     []Output          `json:"outputs,omitempty"`
	Stats       Stats             `json:"stats"`
	Collisions  int               `json:"collisions"`
	Durations   map[string]string `json:"durations"`
}

// New builds a manifest from a finished run.
func New(res *pipeline.Result) *Manifest {
	m := &Manifest{
		RunID:       res.RunID,
		CreatedAt:   res.StartedAt,
		DedupPolicy: string(res.Policy),
		Inputs: []Input{
			{Source: source.SourceDraft, Path: res.DraftPath, Rows: res.Load.DraftRows, Warnings: res.Load.DraftWarningCount},
			{Source: source.SourceCombine, Path: res.CombinePath, Rows: res.Load.CombineRows, Warnings: res.Load.CombineWarningCount},
		},
		Collisions: len(res.Collisions),
		Durations:  make(map[string]string, len(res.Durations)),
	}
	m.Stats.Normalize.Draft = res.NormalizeDraft
	m.Stats.Normalize.Combine = res.NormalizeCombine
	m.Stats.Link = res.Link
	m.Stats.Merge = res.Merge
	for stage, d := range res.Durations {
		m.Durations[stage] = d.String()
	}
	return m
}

// AddOutput records a written file.
func (m *Manifest) AddOutput(kind, path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	m.Outputs = append(m.Outputs, Output{Kind: kind, Path: path})
	sort.SliceStable(m.Outputs, func(i, j int) bool { return m.Outputs[i].Kind < m.Outputs[j].Kind })
}

// Save writes the manifest atomically.
func (m *Manifest) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("create manifest dir: %w", err)
		}
	}
	b, err := utils.PrettyJSON(m)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(path, b)
}

// Load reads a manifest written by Save.
func Load(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("manifest not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
