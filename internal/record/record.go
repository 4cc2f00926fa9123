// Package record defines the draft, combine, and merged player tables shared by
// every pipeline stage.
package record

import "fmt"

// Source A (draft picks) column names.
const (
	ColYear     = "Year"
	ColRound    = "Round"
	ColOverall  = "Overall"
	ColName     = "Name"
	ColSchool   = "School"
	ColPosition = "Position"
	ColTeam     = "Team"
)

// Source B (combine) column names. School is shared with source A.
const (
	ColPlayer    = "Player"
	ColDraftYear = "draft_year"
	ColPos       = "Pos"
	ColHeight    = "Ht"
	ColWeight    = "Wt"
	ColForty     = "40yd"
	ColVertical  = "Vertical"
	ColBench     = "Bench"
	ColBroadJump = "Broad Jump"
	ColThreeCone = "3Cone"
	ColShuttle   = "Shuttle"
)

// DraftColumns lists the required source A columns in output order.
var DraftColumns = []string{ColYear, ColRound, ColOverall, ColName, ColSchool, ColPosition, ColTeam}

// CombineColumns lists the required source B columns.
var CombineColumns = []string{
	ColPlayer, ColSchool, ColDraftYear, ColPos,
	ColHeight, ColWeight, ColForty, ColVertical, ColBench, ColBroadJump, ColThreeCone, ColShuttle,
}

// MeasurementColumns lists the combine measurement columns carried into the
// merged table, in output order.
var MeasurementColumns = []string{
	ColHeight, ColWeight, ColForty, ColVertical, ColBench, ColBroadJump, ColThreeCone, ColShuttle,
}

// DraftRecord is one drafted player from source A.
type DraftRecord struct {
	// ID is the zero-based load order of the row and never changes.
	ID       int
	Year     int
	Round    int
	Overall  int
	Name     string
	School   string
	Position string
	Team     string
	// Extra holds pass-through columns verbatim, aligned with DraftTable.ExtraColumns.
	Extra []string
	// YearMissing marks an empty or unparseable Year. Such rows never link or join.
	YearMissing bool
}

// Key returns the composite natural key of the record.
func (d DraftRecord) Key() Key { return Key{Name: d.Name, School: d.School, Year: d.Year} }

// Measurements are the optional combine drill results.
type Measurements struct {
	Height    NullInt   `json:"Ht"`
	Weight    NullFloat `json:"Wt"`
	Forty     NullFloat `json:"40yd"`
	Vertical  NullFloat `json:"Vertical"`
	Bench     NullFloat `json:"Bench"`
	BroadJump NullFloat `json:"Broad Jump"`
	ThreeCone NullFloat `json:"3Cone"`
	Shuttle   NullFloat `json:"Shuttle"`
}

// Present reports whether any measurement is present.
func (m Measurements) Present() bool {
	return m.Height.Valid || m.Weight.Valid || m.Forty.Valid || m.Vertical.Valid ||
		m.Bench.Valid || m.BroadJump.Valid || m.ThreeCone.Valid || m.Shuttle.Valid
}

// CombineRecord is one combine participant from source B.
type CombineRecord struct {
	ID        int
	Player    string
	DraftYear int
	School    string
	Position  string
	// RawHeight is the "<feet>-<inches>" text; Measurements.Height is filled by the normalizer.
	RawHeight string
	// DraftYearMissing marks an undrafted participant or an unparseable draft_year.
	DraftYearMissing bool
	Measurements
}

// MatchKey returns the (name, year) pair the linker indexes on.
func (c CombineRecord) MatchKey() NameYear { return NameYear{Name: c.Player, Year: c.DraftYear} }

// Key returns the composite natural key used by the join.
func (c CombineRecord) Key() Key { return Key{Name: c.Player, School: c.School, Year: c.DraftYear} }

// Key is the (name, school, year) join key.
type Key struct {
	Name   string
	School string
	Year   int
}

func (k Key) String() string { return fmt.Sprintf("%s|%s|%d", k.Name, k.School, k.Year) }

// NameYear is the (name, year) pair used for school reconciliation.
type NameYear struct {
	Name string
	Year int
}

// DraftTable is the staged source A table.
type DraftTable struct {
	Path         string
	ExtraColumns []string
	Records      []DraftRecord
	Warnings     []string
	// WarningCount includes warnings suppressed from Warnings.
	WarningCount int
}

// Clone returns a deep copy so a stage can return a new table without
// touching its input.
func (t *DraftTable) Clone() *DraftTable {
	out := &DraftTable{
		Path:         t.Path,
		ExtraColumns: append([]string(nil), t.ExtraColumns...),
		Records:      make([]DraftRecord, len(t.Records)),
		Warnings:     append([]string(nil), t.Warnings...),
		WarningCount: t.WarningCount,
	}
	for i, r := range t.Records {
		r.Extra = append([]string(nil), r.Extra...)
		out.Records[i] = r
	}
	return out
}

// CombineTable is the staged source B table.
type CombineTable struct {
	Path     string
	Records  []CombineRecord
	Warnings []string
	// WarningCount includes warnings suppressed from Warnings.
	WarningCount int
}

// Clone returns a copy of the table. CombineRecord has no reference fields,
// so a slice copy is deep.
func (t *CombineTable) Clone() *CombineTable {
	return &CombineTable{
		Path:         t.Path,
		Records:      append([]CombineRecord(nil), t.Records...),
		Warnings:     append([]string(nil), t.Warnings...),
		WarningCount: t.WarningCount,
	}
}

// MergedRecord is one row of the pipeline output. Source A fields are
// authoritative; source B contributes only measurements.
type MergedRecord struct {
	DraftID   int
	CombineID int // -1 when no combine row matched
	Year      int
	Round     int
	Overall   int
	Name      string
	School    string
	Position  string
	Team      string
	Extra     []string
	// YearMissing carries DraftRecord.YearMissing; Year then renders empty.
	YearMissing bool
	Measurements
}

// Key returns the composite natural key of the merged row.
func (m MergedRecord) Key() Key { return Key{Name: m.Name, School: m.School, Year: m.Year} }

// Matched reports whether a combine row was joined.
func (m MergedRecord) Matched() bool { return m.CombineID >= 0 }
