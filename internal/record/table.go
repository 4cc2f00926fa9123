package record

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a single merged-table cell. Num is valid only for numeric columns
// with a present value.
type Value struct {
	Text string
	Num  NullFloat
}

// Field describes one output column.
type Field struct {
	Name    string
	Numeric bool
	get     func(*MergedRecord) Value
}

// Get reads the field from a record.
func (f Field) Get(r *MergedRecord) Value { return f.get(r) }

// Table is the merged output. It is not modified after the merger returns it.
type Table struct {
	ExtraColumns []string
	Records      []MergedRecord
	fields       []Field
	index        map[string]int
}

// NewTable builds a merged table whose schema is the draft columns, the
// draft pass-through columns, then the measurement columns.
func NewTable(extra []string, records []MergedRecord) *Table {
	t := &Table{ExtraColumns: append([]string(nil), extra...), Records: records}
	t.fields = buildFields(t.ExtraColumns)
	t.index = make(map[string]int, len(t.fields))
	for i, f := range t.fields {
		t.index[strings.ToLower(f.Name)] = i
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Records) }

// Fields returns the ordered schema.
func (t *Table) Fields() []Field { return t.fields }

// Columns returns the ordered column names.
func (t *Table) Columns() []string {
	out := make([]string, len(t.fields))
	for i, f := range t.fields {
		out[i] = f.Name
	}
	return out
}

// Field looks up a column by name, case-insensitively.
func (t *Table) Field(name string) (Field, error) {
	i, ok := t.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Field{}, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return t.fields[i], nil
}

// Row renders the i-th record as text cells in column order. Missing values
// are empty strings.
func (t *Table) Row(i int) []string {
	r := &t.Records[i]
	out := make([]string, len(t.fields))
	for j, f := range t.fields {
		out[j] = f.get(r).Text
	}
	return out
}

func buildFields(extra []string) []Field {
	intField := func(name string, pick func(*MergedRecord) int) Field {
		return Field{Name: name, Numeric: true, get: func(r *MergedRecord) Value {
			v := pick(r)
			return Value{Text: strconv.Itoa(v), Num: Float(float64(v))}
		}}
	}
	textField := func(name string, pick func(*MergedRecord) string) Field {
		return Field{Name: name, get: func(r *MergedRecord) Value { return Value{Text: pick(r)} }}
	}
	floatField := func(name string, pick func(*MergedRecord) NullFloat) Field {
		return Field{Name: name, Numeric: true, get: func(r *MergedRecord) Value {
			v := pick(r)
			return Value{Text: v.String(), Num: v}
		}}
	}

	fields := []Field{
		{Name: ColYear, Numeric: true, get: func(r *MergedRecord) Value {
			if r.YearMissing {
				return Value{}
			}
			return Value{Text: strconv.Itoa(r.Year), Num: Float(float64(r.Year))}
		}},
		intField(ColRound, func(r *MergedRecord) int { return r.Round }),
		intField(ColOverall, func(r *MergedRecord) int { return r.Overall }),
		textField(ColName, func(r *MergedRecord) string { return r.Name }),
		textField(ColSchool, func(r *MergedRecord) string { return r.School }),
		textField(ColPosition, func(r *MergedRecord) string { return r.Position }),
		textField(ColTeam, func(r *MergedRecord) string { return r.Team }),
	}
	for i, name := range extra {
		idx := i
		fields = append(fields, textField(name, func(r *MergedRecord) string {
			if idx < len(r.Extra) {
				return r.Extra[idx]
			}
			return ""
		}))
	}
	fields = append(fields,
		Field{Name: ColHeight, Numeric: true, get: func(r *MergedRecord) Value {
			v, ok := r.Height.Float()
			if !ok {
				return Value{}
			}
			return Value{Text: r.Height.String(), Num: Float(v)}
		}},
		floatField(ColWeight, func(r *MergedRecord) NullFloat { return r.Weight }),
		floatField(ColForty, func(r *MergedRecord) NullFloat { return r.Forty }),
		floatField(ColVertical, func(r *MergedRecord) NullFloat { return r.Vertical }),
		floatField(ColBench, func(r *MergedRecord) NullFloat { return r.Bench }),
		floatField(ColBroadJump, func(r *MergedRecord) NullFloat { return r.BroadJump }),
		floatField(ColThreeCone, func(r *MergedRecord) NullFloat { return r.ThreeCone }),
		floatField(ColShuttle, func(r *MergedRecord) NullFloat { return r.Shuttle }),
	)
	return fields
}
