package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/KaramelBytes/wrangle-cli/internal/utils"
)

// CSVOptions controls CSV decoding.
type CSVOptions struct {
	// Delimiter for CSV. If 0, chosen from the file name (tab for .tsv, comma otherwise).
	Delimiter rune
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
}

// ReadCSV decodes a CSV stream with a header row. Empty fields become nulls.
func ReadCSV(src io.Reader, opt CSVOptions) (*Table, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	if opt.Delimiter != 0 {
		r.Comma = opt.Delimiter
	}

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return New()
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	var records [][]string
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", line-1, err)
		}
		if opt.MaxRows > 0 && len(records) >= opt.MaxRows {
			break
		}
		records = append(records, rec)
	}
	return FromRecords(names, records)
}

// FromRecords builds a table from raw cell text, typing each column as a
// whole. A column holds numbers (or booleans) only when every non-null cell
// parses as that kind; otherwise all of its non-null cells stay text, so codes
// like "0100" next to "010C" keep their leading zeros. Missing trailing
// fields are null.
func FromRecords(names []string, records [][]string) (*Table, error) {
	t, err := New(names...)
	if err != nil {
		return nil, err
	}
	ncol := len(names)
	rows := make([][]Value, len(records))
	for i, rec := range records {
		row := make([]Value, ncol)
		for j := 0; j < ncol && j < len(rec); j++ {
			row[j] = ParseValue(rec[j])
		}
		rows[i] = row
	}
	for j := 0; j < ncol; j++ {
		if columnKind(rows, j) != KindString {
			continue
		}
		for i, rec := range records {
			if j < len(rec) && !rows[i][j].IsNull() {
				rows[i][j] = Str(strings.TrimSpace(rec[j]))
			}
		}
	}
	t.rows = rows
	return t, nil
}

// columnKind is the single kind shared by the non-null cells of column j,
// KindString when they disagree, or KindNull when there are none.
func columnKind(rows [][]Value, j int) Kind {
	kind := KindNull
	for _, row := range rows {
		k := row[j].Kind()
		if k == KindNull || k == kind {
			continue
		}
		if kind != KindNull || k == KindString {
			return KindString
		}
		kind = k
	}
	return kind
}

// ReadCSVFile opens and decodes a CSV file.
func ReadCSVFile(path string, opt CSVOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = SniffDelimiter(path)
	}
	t, err := ReadCSV(f, opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// WriteCSV encodes the table with a header row. Nulls are written as empty fields.
func WriteCSV(dst io.Writer, t *Table) error {
	w := csv.NewWriter(dst)
	if err := w.Write(t.cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(t.cols))
	for i, row := range t.rows {
		for j, v := range row {
			rec[j] = v.String()
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteCSVFile writes the table to path atomically.
func WriteCSVFile(path string, t *Table) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// SniffDelimiter picks a delimiter from the file name.
func SniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
