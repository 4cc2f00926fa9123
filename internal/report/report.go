// Package report renders Markdown summaries of a pipeline run and of the
// draft analyses.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	md "github.com/nao1215/markdown"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/KaramelBytes/draftlink-cli/internal/analysis"
	"github.com/KaramelBytes/draftlink-cli/internal/metrics"
	"github.com/KaramelBytes/draftlink-cli/internal/pipeline"
)

// maxCollisionRows caps the collision table; the total is always reported.
const maxCollisionRows = 50

var title = cases.Title(language.English)

// Linkage summarizes each stage of a run, its counts and the dropped rows.
func Linkage(res *pipeline.Result) (string, error) {
	var b strings.Builder
	m := md.NewMarkdown(&b)
	m.H1("Draft and Combine Linkage").
		PlainTextf("Run %s started %s.", md.Code(res.RunID), res.StartedAt.Format(time.RFC3339)).
		LF().
		BulletList(
			fmt.Sprintf("Draft source: %s (%d rows)", res.DraftPath, res.Load.DraftRows),
			fmt.Sprintf("Combine source: %s (%d rows)", res.CombinePath, res.Load.CombineRows),
			fmt.Sprintf("Dedup policy: %s", res.Policy),
		)

	stages := []struct {
		name string
		rows [][]string
	}{
		{metrics.StageLoad, [][]string{
			{"Draft rows", itoa(res.Load.DraftRows)},
			{"Combine rows", itoa(res.Load.CombineRows)},
			{"Loader warnings", itoa(res.Load.DraftWarningCount + res.Load.CombineWarningCount)},
		}},
		{metrics.StageNormalize, [][]string{
			{"Teams renamed", itoa(res.NormalizeDraft.TeamsRenamed)},
			{"Heights decoded", itoa(res.NormalizeCombine.HeightsDecoded)},
			{"Heights missing", itoa(res.NormalizeCombine.HeightsMissing)},
		}},
		{metrics.StageLink, [][]string{
			{"Draft rows matched", itoa(res.Link.DraftMatched)},
			{"Combine rows rewritten", itoa(res.Link.CombineRewritten)},
			{"Schools changed", itoa(res.Link.SchoolsChanged)},
			{"Conflicting claims", itoa(res.Link.Conflicts)},
		}},
		{metrics.StageMerge, [][]string{
			{"Rows after join", itoa(res.Merge.JoinRows)},
			{"Fan-out rows", itoa(res.Merge.FanOut)},
			{"Rows dropped", itoa(res.Merge.Dropped)},
			{"Output rows", itoa(res.Merge.OutputRows)},
			{"With measurements", itoa(res.Merge.Matched)},
			{"Without measurements", itoa(res.Merge.Unmatched)},
		}},
	}
	for _, s := range stages {
		m.H2(title.String(s.name))
		if d, ok := res.Durations[s.name]; ok {
			m.PlainTextf("Took %s.", d.Round(time.Microsecond))
		}
		m.LF().Table(md.TableSet{Header: []string{"Measure", "Value"}, Rows: s.rows})
	}

	m.H2("Dropped Duplicates")
	if len(res.Collisions) == 0 {
		m.PlainText("No key collisions.")
	} else {
		rows := make([][]string, 0, min(len(res.Collisions), maxCollisionRows))
		for i, c := range res.Collisions {
			if i == maxCollisionRows {
				break
			}
			kind := "duplicate draft key"
			if c.FanOut() {
				kind = "fan-out"
			}
			rows = append(rows, []string{
				c.Key.Name, c.Key.School, itoa(c.Key.Year), kind,
				sourceID(c.KeptDraftID, c.KeptCombineID), sourceID(c.DroppedDraftID, c.DroppedCombineID),
			})
		}
		m.PlainTextf("%d rows dropped; the first row in load order was kept.", len(res.Collisions)).
			LF().
			Table(md.TableSet{Header: []string{"Name", "School", "Year", "Kind", "Kept", "Dropped"}, Rows: rows})
		if len(res.Collisions) > maxCollisionRows {
			m.PlainTextf("Showing the first %d.", maxCollisionRows)
		}
	}

	if w := append(append([]string(nil), res.Load.DraftWarnings...), res.Load.CombineWarnings...); len(w) > 0 {
		m.H2("Loader Warnings").BulletList(w...)
	}
	if err := m.Build(); err != nil {
		return "", fmt.Errorf("build linkage report: %w", err)
	}
	return b.String(), nil
}

// Analysis collects the results rendered by Analyses.
type Analysis struct {
	Describe        *analysis.Report
	PositionMeans   []analysis.GroupMean
	FirstRoundMeans []analysis.GroupMean
	FirstRound      []analysis.Count
	YearlyMeans     []analysis.GroupMean
	TopSchools      []analysis.SchoolCount
	Cohorts         map[string][]analysis.Count
	Regressions     []*analysis.Regression
}

// Analyses renders the draft analyses. Empty sections are omitted.
func Analyses(a *Analysis) (string, error) {
	var b strings.Builder
	m := md.NewMarkdown(&b)
	m.H1("Draft Analysis")

	if a.Describe != nil {
		m.H2("Dataset").CodeBlocks(md.SyntaxHighlightNone, strings.TrimRight(a.Describe.Markdown(), "\n"))
	}
	meanTable(m, "Average Overall Pick by Position", []string{"Position"}, a.PositionMeans)
	meanTable(m, "Average Overall Pick by Position, First Round", []string{"Position"}, a.FirstRoundMeans)
	if len(a.FirstRound) > 0 {
		m.H2("First Round Picks by Position").Table(countTable("Position", a.FirstRound))
	}
	meanTable(m, "Average Overall Pick by Year and Position", []string{"Year", "Position"}, a.YearlyMeans)

	if len(a.TopSchools) > 0 {
		rows := make([][]string, len(a.TopSchools))
		for i, s := range a.TopSchools {
			rows[i] = []string{s.School, itoa(s.Overall), itoa(s.FirstRound)}
		}
		m.H2("Top Schools").Table(md.TableSet{Header: []string{"School", "Selections", "First Round"}, Rows: rows})
	}

	if len(a.Cohorts) > 0 {
		names := make([]string, 0, len(a.Cohorts))
		for n := range a.Cohorts {
			names = append(names, n)
		}
		sort.Strings(names)
		m.H2("Positions Drafted by Team Cohort")
		for _, n := range names {
			m.H3(title.String(strings.ReplaceAll(n, "_", " ")))
			if len(a.Cohorts[n]) == 0 {
				m.PlainText("No picks.")
				continue
			}
			m.Table(countTable("Position", a.Cohorts[n]))
		}
	}

	for _, r := range a.Regressions {
		m.H2(fmt.Sprintf("OLS: %s (%s)", r.Y, r.Filter)).
			PlainTextf("N = %d, R² = %.4f, adjusted R² = %.4f, residual df = %d.", r.N, r.R2, r.AdjR2, r.DF).
			LF()
		rows := make([][]string, len(r.Terms))
		for i, c := range r.Terms {
			rows[i] = []string{c.Name, ftoa(c.Estimate), ftoa(c.StdErr), fmt.Sprintf("%.3f", c.T), fmt.Sprintf("%.4f", c.P)}
		}
		m.Table(md.TableSet{Header: []string{"Term", "Estimate", "Std. Error", "t", "P>|t|"}, Rows: rows})
	}

	if err := m.Build(); err != nil {
		return "", fmt.Errorf("build analysis report: %w", err)
	}
	return b.String(), nil
}

func meanTable(m *md.Markdown, heading string, groups []string, means []analysis.GroupMean) {
	if len(means) == 0 {
		return
	}
	rows := make([][]string, len(means))
	for i, g := range means {
		row := append([]string(nil), g.Group...)
		rows[i] = append(row, fmt.Sprintf("%.1f", g.Mean), itoa(g.N))
	}
	header := append(append([]string(nil), groups...), "Mean", "N")
	m.H2(heading).Table(md.TableSet{Header: header, Rows: rows})
}

func countTable(label string, counts []analysis.Count) md.TableSet {
	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{c.Value, itoa(c.N)}
	}
	return md.TableSet{Header: []string{label, "Count"}, Rows: rows}
}

func sourceID(draftID, combineID int) string {
	if combineID < 0 {
		return fmt.Sprintf("draft #%d", draftID)
	}
	return fmt.Sprintf("draft #%d, combine #%d", draftID, combineID)
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'g', 6, 64) }
