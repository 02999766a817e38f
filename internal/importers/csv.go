package importers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// column names a CSV field and the header spellings accepted for it.
type column struct {
	name    string
	aliases []string
}

type csvRow struct {
	line   int
	record []string
}

// csvTable is a parsed CSV body addressed by column name.
type csvTable struct {
	index map[string]int
	rows  []csvRow
}

// readCSV reads the header and every non-blank record. Headers are matched
// case-insensitively against each column's name and aliases; when none match
// the file is treated as positional in column order, which is how older
// exports without a recognisable header are laid out.
func readCSV(r io.Reader, columns []column) (*csvTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	t := &csvTable{index: make(map[string]int)}
	for i, h := range header {
		h = normalizeHeader(h)
		for _, col := range columns {
			if _, seen := t.index[col.name]; !seen && col.matches(h) {
				t.index[col.name] = i
			}
		}
	}
	if len(t.index) == 0 {
		for i, col := range columns {
			t.index[col.name] = i
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		if isBlank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		t.rows = append(t.rows, csvRow{line: line, record: record})
	}

	return t, nil
}

func (t *csvTable) has(name string) bool {
	_, ok := t.index[name]
	return ok
}

func (t *csvTable) value(row csvRow, name string) string {
	if idx, ok := t.index[name]; ok && idx < len(row.record) {
		return strings.TrimSpace(row.record[idx])
	}
	return ""
}

func (c column) matches(h string) bool {
	if h == c.name {
		return true
	}
	for _, a := range c.aliases {
		if h == a {
			return true
		}
	}
	return false
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.ReplaceAll(h, " ", "_")
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
