// pkg/table/csv.go
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ecotraits/curate/pkg/model"
)

// ReadOptions controls delimited-file parsing
type ReadOptions struct {
	Delimiter rune // Field delimiter, ',' when zero
	TrimCells bool // Trim surrounding whitespace from every cell
}

// Read parses a delimited table from r. The first record is the header and
// defines the column order. Cells come back as strings; empty cells are
// stored as nil so downstream checks can tell "missing" from "blank".
func Read(r io.Reader, name string, opts ReadOptions) (*Table, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1 // column-count mismatches are findings, not parse errors

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	t := New(name, columns)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record at line %d: %w", line+1, err)
		}
		line++

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if i >= len(record) {
				row[col] = nil
				continue
			}
			cell := record[i]
			if opts.TrimCells {
				cell = strings.TrimSpace(cell)
			}
			if cell == "" {
				row[col] = nil
			} else {
				row[col] = cell
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// ReadFile reads a delimited table from disk, naming it after the file
func ReadFile(path string, opts ReadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Read(f, name, opts)
}

// Write serializes the table to w with the given delimiter. Cells are
// written in canonical string form; nil cells become empty fields, so
// Write followed by Read yields an equal table.
func (t *Table) Write(w io.Writer, delimiter rune) error {
	writer := csv.NewWriter(w)
	if delimiter != 0 {
		writer.Comma = delimiter
	}

	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		for j, col := range t.Columns {
			record[j] = model.ValueString(row[col])
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile writes the table to disk
func (t *Table) WriteFile(path string, delimiter rune) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := t.Write(f, delimiter); err != nil {
		return err
	}
	return f.Sync()
}
