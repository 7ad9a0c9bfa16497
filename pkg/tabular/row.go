package tabular

import "strings"

// RawRow is one data row keyed by header column. Lookups ignore case and
// surrounding whitespace in the column name.
type RawRow struct {
	// Line is the 1-based line in the file. The header is line 1.
	Line int

	values map[string]string
}

// NewRow builds a row from column/value pairs.
func NewRow(line int, values map[string]string) RawRow {
	m := make(map[string]string, len(values))
	for k, v := range values {
		m[columnKey(k)] = v
	}
	return RawRow{Line: line, values: m}
}

func rowFromRecord(line int, header, record []string) RawRow {
	m := make(map[string]string, len(header))
	for i, h := range header {
		if h == "" {
			continue
		}
		v := ""
		if i < len(record) {
			v = record[i]
		}
		key := columnKey(h)
		if _, dup := m[key]; dup {
			continue
		}
		m[key] = v
	}
	return RawRow{Line: line, values: m}
}

// Get returns the raw cell for column, or "" when the column is absent.
func (r RawRow) Get(column string) string {
	return r.values[columnKey(column)]
}

// Has reports whether the header carried column.
func (r RawRow) Has(column string) bool {
	_, ok := r.values[columnKey(column)]
	return ok
}

func columnKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
