// Package codec converts flat rows to and from comma-separated text using
// the quoting conventions of common spreadsheet tools.
package codec

import (
	"errors"
	"strings"
)

// ErrMalformedInput indicates text that does not hold a header plus at
// least one data line.
var ErrMalformedInput = errors.New("malformed delimited input")

// Column binds a row key to its header label.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Row is a flat record keyed by column key.
type Row map[string]string

// Encode renders rows as a header line followed by one line per row. Every
// field is quoted; embedded quotes are doubled. Lines are separated by a
// single newline with none after the last line.
func Encode(rows []Row, columns []Column) string {
	var b strings.Builder

	for i, col := range columns {
		if i > 0 {
			b.WriteByte(',')
		}
		writeQuoted(&b, col.Label)
	}

	for _, row := range rows {
		b.WriteByte('\n')
		for i, col := range columns {
			if i > 0 {
				b.WriteByte(',')
			}
			writeQuoted(&b, row[col.Key])
		}
	}

	return b.String()
}

func writeQuoted(b *strings.Builder, value string) {
	b.WriteByte('"')
	b.WriteString(strings.ReplaceAll(value, `"`, `""`))
	b.WriteByte('"')
}

// Decode parses text and maps every line after the header onto columns by
// position. Cells beyond the configured columns are ignored; columns beyond
// the end of a line stay empty.
func Decode(text string, columns []Column) ([]Row, error) {
	lines := Parse(text)
	if len(lines) < 2 {
		return nil, ErrMalformedInput
	}

	rows := make([]Row, 0, len(lines)-1)
	for _, fields := range lines[1:] {
		row := make(Row, len(columns))
		for i, col := range columns {
			if i < len(fields) {
				row[col.Key] = fields[i]
			} else {
				row[col.Key] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
