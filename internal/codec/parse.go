package codec

import "strings"

// Parse splits text into lines of fields. Quoted fields may contain commas,
// newlines and doubled quotes. Carriage returns outside quotes are dropped.
// Lines for which IsBlankRow reports true are skipped.
func Parse(text string) [][]string {
	var (
		lines  [][]string
		fields []string
		field  strings.Builder
		quoted bool
	)

	endField := func() {
		fields = append(fields, field.String())
		field.Reset()
	}
	endLine := func() {
		endField()
		if !IsBlankRow(fields) {
			lines = append(lines, fields)
		}
		fields = nil
	}

	for i := 0; i < len(text); i++ {
		c := text[i]

		if quoted {
			if c == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					field.WriteByte('"')
					i++
				} else {
					quoted = false
				}
				continue
			}
			field.WriteByte(c)
			continue
		}

		switch c {
		case '"':
			quoted = true
		case ',':
			endField()
		case '\r':
		case '\n':
			endLine()
		default:
			field.WriteByte(c)
		}
	}

	if field.Len() > 0 || len(fields) > 0 {
		endLine()
	}

	return lines
}

// IsBlankRow reports whether every field is empty after trimming
// surrounding whitespace. Parse uses it to drop stray blank lines; it also
// drops data lines whose cells are all blank.
func IsBlankRow(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
