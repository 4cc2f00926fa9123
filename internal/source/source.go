// Package source reads the draft and combine sources into typed tables.
//
// The loader checks schemas only. Cell values are parsed into typed fields
// without validation: a cell that does not parse becomes zero (integers) or
// missing (measurements) and the row is kept.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/KaramelBytes/draftlink-cli/internal/record"
)

const (
	SourceDraft   = "draft"
	SourceCombine = "combine"

	// maxWarnings caps the per-table warning list; the remainder is summarized.
	maxWarnings = 20
)

// Options controls how the sources are read.
type Options struct {
	// Delimiter for both sources. If 0, chosen by file extension (".tsv" is tab, else comma).
	Delimiter rune
}

// LoadDraft reads source A from path.
func LoadDraft(path string, opt Options) (*record.DraftTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open draft source: %w", err)
	}
	defer f.Close()
	return ReadDraft(f, path, withDelimiter(opt, path))
}

// LoadCombine reads source B from path.
func LoadCombine(path string, opt Options) (*record.CombineTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open combine source: %w", err)
	}
	defer f.Close()
	return ReadCombine(f, path, withDelimiter(opt, path))
}

// ReadDraft parses source A from r. name is used for error messages only.
func ReadDraft(r io.Reader, name string, opt Options) (*record.DraftTable, error) {
	cr := newReader(r, opt)
	hdr, err := readHeader(cr, SourceDraft, name, record.DraftColumns)
	if err != nil {
		return nil, err
	}
	t := &record.DraftTable{Path: name}
	required := make(map[int]bool, len(record.DraftColumns))
	for _, c := range record.DraftColumns {
		required[hdr.index[c]] = true
	}
	var extraIdx []int
	for i, h := range hdr.names {
		if required[i] || h == "" {
			continue
		}
		t.ExtraColumns = append(t.ExtraColumns, h)
		extraIdx = append(extraIdx, i)
	}

	w := &warnings{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read draft row %d: %w", line, err)
		}
		cell := hdr.cells(rec)
		year, ok := parseInt(cell(record.ColYear), line, record.ColYear, w)
		d := record.DraftRecord{
			ID:          len(t.Records),
			Year:        year,
			YearMissing: !ok,
			Name:        cell(record.ColName),
			School:      cell(record.ColSchool),
			Position:    cell(record.ColPosition),
			Team:        cell(record.ColTeam),
		}
		d.Round, _ = parseInt(cell(record.ColRound), line, record.ColRound, w)
		d.Overall, _ = parseInt(cell(record.ColOverall), line, record.ColOverall, w)
		if len(extraIdx) > 0 {
			d.Extra = make([]string, len(extraIdx))
			for j, idx := range extraIdx {
				if idx < len(rec) {
					d.Extra[j] = rec[idx]
				}
			}
		}
		t.Records = append(t.Records, d)
	}
	t.Warnings, t.WarningCount = w.list(), w.count()
	return t, nil
}

// ReadCombine parses source B from r. name is used for error messages only.
func ReadCombine(r io.Reader, name string, opt Options) (*record.CombineTable, error) {
	cr := newReader(r, opt)
	hdr, err := readHeader(cr, SourceCombine, name, record.CombineColumns)
	if err != nil {
		return nil, err
	}
	t := &record.CombineTable{Path: name}
	w := &warnings{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read combine row %d: %w", line, err)
		}
		cell := hdr.cells(rec)
		c := record.CombineRecord{
			ID:        len(t.Records),
			Player:    cell(record.ColPlayer),
			School:    cell(record.ColSchool),
			Position:  cell(record.ColPos),
			RawHeight: cell(record.ColHeight),
			Measurements: record.Measurements{
				Weight:    record.ParseFloat(cell(record.ColWeight)),
				Forty:     record.ParseFloat(cell(record.ColForty)),
				Vertical:  record.ParseFloat(cell(record.ColVertical)),
				Bench:     record.ParseFloat(cell(record.ColBench)),
				BroadJump: record.ParseFloat(cell(record.ColBroadJump)),
				ThreeCone: record.ParseFloat(cell(record.ColThreeCone)),
				Shuttle:   record.ParseFloat(cell(record.ColShuttle)),
			},
		}
		// Undrafted participants have no draft year; that is not a warning.
		if y := cell(record.ColDraftYear); y != "" {
			var ok bool
			c.DraftYear, ok = parseInt(y, line, record.ColDraftYear, w)
			c.DraftYearMissing = !ok
		} else {
			c.DraftYearMissing = true
		}
		t.Records = append(t.Records, c)
	}
	t.Warnings, t.WarningCount = w.list(), w.count()
	return t, nil
}

func withDelimiter(opt Options, path string) Options {
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	return opt
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

func newReader(r io.Reader, opt Options) *csv.Reader {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}
	return cr
}

type header struct {
	names []string
	index map[string]int
}

func readHeader(cr *csv.Reader, src, name string, required []string) (*header, error) {
	raw, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &MalformedSourceError{Source: src, Path: name, Missing: append([]string(nil), required...)}
		}
		return nil, fmt.Errorf("read %s header: %w", src, err)
	}
	h := &header{names: make([]string, len(raw)), index: make(map[string]int, len(raw))}
	folded := make(map[string]int, len(raw))
	for i, n := range raw {
		n = strings.TrimSpace(n)
		if i == 0 {
			n = strings.TrimPrefix(n, "\ufeff")
		}
		h.names[i] = n
		if n == "" {
			continue
		}
		if _, dup := h.index[n]; !dup {
			h.index[n] = i
		}
		if _, dup := folded[strings.ToLower(n)]; !dup {
			folded[strings.ToLower(n)] = i
		}
	}
	var missing []string
	for _, c := range required {
		if _, ok := h.index[c]; ok {
			continue
		}
		if i, ok := folded[strings.ToLower(c)]; ok {
			h.index[c] = i
			continue
		}
		missing = append(missing, c)
	}
	if len(missing) > 0 {
		return nil, &MalformedSourceError{Source: src, Path: name, Missing: missing}
	}
	return h, nil
}

// cells returns a lookup of trimmed cell text by column name for rec.
// Short rows read as empty cells.
func (h *header) cells(rec []string) func(string) string {
	return func(col string) string {
		i, ok := h.index[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
}

// parseInt accepts integer text and integral float text ("2015.0"). Anything
// else is reported as zero and not ok.
func parseInt(s string, line int, col string, w *warnings) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return int(f), true
	}
	w.add(fmt.Sprintf("row %d: %s %q is not an integer", line, col, s))
	return 0, false
}

type warnings struct {
	items   []string
	dropped int
}

func (w *warnings) add(msg string) {
	if len(w.items) >= maxWarnings {
		w.dropped++
		return
	}
	w.items = append(w.items, msg)
}

func (w *warnings) count() int { return len(w.items) + w.dropped }

func (w *warnings) list() []string {
	if w.dropped > 0 {
		return append(w.items, fmt.Sprintf("%d more warnings suppressed", w.dropped))
	}
	return w.items
}
