// Package pipeline runs the load, normalize, link and merge stages in order.
// Each stage returns a new table; earlier tables are never modified.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KaramelBytes/draftlink-cli/internal/link"
	"github.com/KaramelBytes/draftlink-cli/internal/logging"
	"github.com/KaramelBytes/draftlink-cli/internal/merge"
	"github.com/KaramelBytes/draftlink-cli/internal/metrics"
	"github.com/KaramelBytes/draftlink-cli/internal/normalize"
	"github.com/KaramelBytes/draftlink-cli/internal/record"
	"github.com/KaramelBytes/draftlink-cli/internal/source"
)

// Options configures a run.
type Options struct {
	DraftPath   string
	CombinePath string
	// TeamRenames maps old franchise labels to current ones; nil uses the defaults.
	TeamRenames map[string]string
	// Delimiter of both inputs; 0 picks by file extension.
	Delimiter   rune
	DedupPolicy merge.Policy
	// Logger defaults to the logger in the context.
	Logger  *zerolog.Logger
	Metrics *metrics.Recorder
}

// LoadStats describes the inputs.
type LoadStats struct {
	DraftRows   int
	CombineRows int
	// Warning lists are capped; the counts are not.
	DraftWarnings       []string
	CombineWarnings     []string
	DraftWarningCount   int
	CombineWarningCount int
}

// Result is the merged table with the statistics of every stage.
type Result struct {
	RunID       string
	StartedAt   time.Time
	DraftPath   string
	CombinePath string
	Policy      merge.Policy

	Load             LoadStats
	NormalizeDraft   normalize.DraftStats
	NormalizeCombine normalize.CombineStats
	Link             link.Stats
	Merge            merge.Stats
	Collisions       []merge.Collision
	Durations        map[string]time.Duration

	Table *record.Table
}

// Run executes the pipeline. Any stage failure aborts the run. The context
// is checked between stages.
func Run(ctx context.Context, opt Options) (*Result, error) {
	log := opt.Logger
	if log == nil {
		log = logging.FromContext(ctx)
	}
	policy := opt.DedupPolicy
	if policy == "" {
		policy = merge.PolicyFirst
	}
	renames := opt.TeamRenames
	if renames == nil {
		renames = normalize.DefaultTeamRenames()
	}
	aliases, err := normalize.NewTeamAliases(renames)
	if err != nil {
		return nil, fmt.Errorf("build team aliases: %w", err)
	}

	res := &Result{
		RunID:       uuid.NewString(),
		StartedAt:   time.Now().UTC(),
		DraftPath:   opt.DraftPath,
		CombinePath: opt.CombinePath,
		Policy:      policy,
		Durations:   make(map[string]time.Duration, 4),
	}
	l := log.With().Str("run_id", res.RunID).Logger()
	rec := opt.Metrics

	stage := func(name string, fn func() error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.Debug().Str("stage", name).Msg("stage start")
		start := time.Now()
		if err := fn(); err != nil {
			l.Debug().Str("stage", name).Err(err).Msg("stage failed")
			return err
		}
		d := time.Since(start)
		res.Durations[name] = d
		rec.StageDuration(name, d)
		l.Debug().Str("stage", name).Dur("took", d).Msg("stage done")
		return nil
	}

	srcOpt := source.Options{Delimiter: opt.Delimiter}
	var (
		draft   *record.DraftTable
		combine *record.CombineTable
	)
	if err := stage(metrics.StageLoad, func() error {
		var err error
		if draft, err = source.LoadDraft(opt.DraftPath, srcOpt); err != nil {
			return fmt.Errorf("load draft: %w", err)
		}
		if combine, err = source.LoadCombine(opt.CombinePath, srcOpt); err != nil {
			return fmt.Errorf("load combine: %w", err)
		}
		res.Load = LoadStats{
			DraftRows:           len(draft.Records),
			CombineRows:         len(combine.Records),
			DraftWarnings:       draft.Warnings,
			CombineWarnings:     combine.Warnings,
			DraftWarningCount:   draft.WarningCount,
			CombineWarningCount: combine.WarningCount,
		}
		rec.RowsLoaded(source.SourceDraft, len(draft.Records))
		rec.RowsLoaded(source.SourceCombine, len(combine.Records))
		for _, w := range draft.Warnings {
			l.Warn().Str("source", source.SourceDraft).Msg(w)
		}
		for _, w := range combine.Warnings {
			l.Warn().Str("source", source.SourceCombine).Msg(w)
		}
		l.Info().Int("draft_rows", len(draft.Records)).Int("combine_rows", len(combine.Records)).Msg("loaded sources")
		return nil
	}); err != nil {
		return nil, err
	}

	if err := stage(metrics.StageNormalize, func() error {
		draft, res.NormalizeDraft = normalize.Draft(draft, aliases)
		combine, res.NormalizeCombine = normalize.Combine(combine)
		rec.HeightsMissing(res.NormalizeCombine.HeightsMissing)
		l.Info().
			Int("teams_renamed", res.NormalizeDraft.TeamsRenamed).
			Int("heights_decoded", res.NormalizeCombine.HeightsDecoded).
			Int("heights_missing", res.NormalizeCombine.HeightsMissing).
			Msg("normalized")
		return nil
	}); err != nil {
		return nil, err
	}

	if err := stage(metrics.StageLink, func() error {
		combine, res.Link = link.Schools(draft, combine)
		rec.Linked(res.Link.CombineRewritten, res.Link.Conflicts)
		l.Info().
			Int("draft_matched", res.Link.DraftMatched).
			Int("combine_rewritten", res.Link.CombineRewritten).
			Int("schools_changed", res.Link.SchoolsChanged).
			Int("conflicts", res.Link.Conflicts).
			Msg("linked schools")
		return nil
	}); err != nil {
		return nil, err
	}

	if err := stage(metrics.StageMerge, func() error {
		m, err := merge.Merge(draft, combine, merge.Options{Policy: policy})
		if err != nil {
			var ce *merge.CollisionError
			if errors.As(err, &ce) {
				logCollisions(&l, ce.Collisions)
				rec.Merged(0, len(ce.Collisions))
			}
			return fmt.Errorf("merge: %w", err)
		}
		res.Merge = m.Stats
		res.Collisions = m.Collisions
		res.Table = m.Table
		rec.Merged(m.Stats.JoinRows, len(m.Collisions))
		logCollisions(&l, m.Collisions)
		l.Info().
			Int("join_rows", m.Stats.JoinRows).
			Int("dropped", m.Stats.Dropped).
			Int("rows", m.Stats.OutputRows).
			Int("matched", m.Stats.Matched).
			Msg("merged")
		return nil
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func logCollisions(l *zerolog.Logger, cs []merge.Collision) {
	for _, c := range cs {
		l.Warn().
			Str("name", c.Key.Name).
			Str("school", c.Key.School).
			Int("year", c.Key.Year).
			Int("kept_draft_id", c.KeptDraftID).
			Int("kept_combine_id", c.KeptCombineID).
			Int("dropped_draft_id", c.DroppedDraftID).
			Int("dropped_combine_id", c.DroppedCombineID).
			Bool("fan_out", c.FanOut()).
			Msg("duplicate key dropped")
	}
}
