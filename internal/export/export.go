// Package export writes the merged table as CSV, JSON, YAML or a terminal table.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/draftlink-cli/internal/record"
	"github.com/KaramelBytes/draftlink-cli/internal/utils"
)

// Format is an output encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// ParseFormat converts s to a Format. Empty is allowed and means auto-detect.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatCSV, FormatJSON, FormatYAML, FormatTable, "":
		return f, nil
	}
	return "", fmt.Errorf("invalid format %q: must be one of: csv, json, yaml, table", s)
}

// FormatForPath picks a format from a file extension, falling back to CSV.
func FormatForPath(path string) Format {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".json"):
		return FormatJSON
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return FormatYAML
	case strings.HasSuffix(lower, ".txt"):
		return FormatTable
	}
	return FormatCSV
}

// DetectFormat returns explicit when set, a table on a terminal, CSV otherwise.
func DetectFormat(explicit Format) Format {
	if explicit != "" {
		return explicit
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return FormatTable
	}
	return FormatCSV
}

// Write encodes t to w in format f.
func Write(w io.Writer, f Format, t *record.Table) error {
	switch f {
	case FormatCSV, "":
		return WriteCSV(w, t)
	case FormatJSON:
		return WriteJSON(w, t)
	case FormatYAML:
		return WriteYAML(w, t)
	case FormatTable:
		return WriteTable(w, t)
	}
	return fmt.Errorf("unsupported format %q", f)
}

// WriteFile encodes t and atomically replaces path.
func WriteFile(path string, f Format, t *record.Table) error {
	var buf bytes.Buffer
	if err := Write(&buf, f, t); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// WriteCSV writes a header row then one row per record. Missing values are
// empty cells.
func WriteCSV(w io.Writer, t *record.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range t.Records {
		if err := cw.Write(t.Row(i)); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteJSON writes an array of objects whose keys follow the column order.
// Missing measurements are null.
func WriteJSON(w io.Writer, t *record.Table) error {
	fields := t.Fields()
	var buf bytes.Buffer
	buf.WriteString("[")
	for i := range t.Records {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  {")
		for j, f := range fields {
			if j > 0 {
				buf.WriteString(", ")
			}
			k, _ := json.Marshal(f.Name)
			buf.Write(k)
			buf.WriteString(": ")
			v, err := json.Marshal(jsonValue(f, f.Get(&t.Records[i])))
			if err != nil {
				return fmt.Errorf("marshal %s: %w", f.Name, err)
			}
			buf.Write(v)
		}
		buf.WriteString("}")
	}
	if len(t.Records) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("]\n")
	_, err := w.Write(buf.Bytes())
	return err
}

func jsonValue(f record.Field, v record.Value) any {
	if !f.Numeric {
		return v.Text
	}
	if x, ok := v.Num.Float(); ok {
		return x
	}
	return nil
}

// WriteYAML writes a sequence of mappings whose keys follow the column order.
func WriteYAML(w io.Writer, t *record.Table) error {
	fields := t.Fields()
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for i := range t.Records {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for _, f := range fields {
			v := f.Get(&t.Records[i])
			val := &yaml.Node{Kind: yaml.ScalarNode}
			switch {
			case !f.Numeric:
				val.Tag, val.Value = "!!str", v.Text
			case v.Num.Valid:
				val.Tag, val.Value = "!!float", v.Text
				if !strings.ContainsAny(v.Text, ".eE") {
					val.Tag = "!!int"
				}
			default:
				val.Tag, val.Value = "!!null", "null"
			}
			m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Name}, val)
		}
		seq.Content = append(seq.Content, m)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(seq); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// WriteTable renders t for a terminal, numeric columns right-aligned.
func WriteTable(w io.Writer, t *record.Table) error {
	fields := t.Fields()
	align := make([]tw.Align, len(fields))
	headers := make([]any, len(fields))
	for i, f := range fields {
		headers[i] = f.Name
		align[i] = tw.AlignLeft
		if f.Numeric {
			align[i] = tw.AlignRight
		}
	}
	config := tablewriter.Config{}
	config.Row.Alignment = tw.CellAlignment{PerColumn: align}

	table := tablewriter.NewTable(w, tablewriter.WithConfig(config))
	table.Header(headers...)
	for i := range t.Records {
		row := t.Row(i)
		cells := make([]any, len(row))
		for j, c := range row {
			cells[j] = c
		}
		if err := table.Append(cells...); err != nil {
			return fmt.Errorf("append row %d: %w", i+1, err)
		}
	}
	return table.Render()
}
