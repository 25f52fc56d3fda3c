package exports

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Sheet1"

// ExportCSV writes a header row and the given rows. Every value is quoted,
// inner quotes are doubled and lines are joined by CRLF.
func ExportCSV(w io.Writer, columns []string, rows [][]string) error {
	var buf bytes.Buffer
	writeQuotedLine(&buf, columns)
	for _, row := range rows {
		buf.WriteString("\r\n")
		writeQuotedLine(&buf, row)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func writeQuotedLine(buf *bytes.Buffer, values []string) {
	for i, v := range values {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(v, `"`, `""`))
		buf.WriteByte('"')
	}
}

// ExportJSON writes records as a JSON array indented with two spaces.
func ExportJSON(w io.Writer, records interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// ExportXLSX writes a single-sheet workbook with a bold header row.
func ExportXLSX(w io.Writer, columns []string, rows [][]string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(xlsxSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if len(columns) > 0 {
		last, err := excelize.ColumnNumberToName(len(columns))
		if err != nil {
			return err
		}
		if err := f.SetColWidth(xlsxSheet, "A", last, 20); err != nil {
			return err
		}
	}
	return f.Write(w)
}

// Row is one parsed import line. Values are addressed by normalized header.
type Row struct {
	Line   int
	values map[string]string
}

// Get returns the trimmed value under the header, or "" when the column is absent.
func (r Row) Get(header string) string {
	return strings.TrimSpace(r.values[NormalizeHeader(header)])
}

// Has reports whether the line carried a non-blank value for header.
func (r Row) Has(header string) bool {
	return r.Get(header) != ""
}

// ImportResult counts good rows and lists per-line failures.
type ImportResult struct {
	Success int      `json:"success"`
	Errors  []string `json:"errors"`
}

// RowFunc handles one import row.
type RowFunc func(row Row) error

// NormalizeHeader lower-cases a header and replaces spaces with underscores.
func NormalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

// ImportCSV reads headers from the first line and hands every following
// non-blank line to fn, positionally mapped onto those headers. A failing
// line is recorded as "line N: reason" and the import carries on.
func ImportCSV(r io.Reader, fn RowFunc) ImportResult {
	result := ImportResult{Errors: []string{}}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rawHeaders, err := reader.Read()
	if errors.Is(err, io.EOF) {
		result.Errors = append(result.Errors, "line 1: missing header row")
		return result
	}
	if err != nil {
		result.Errors = append(result.Errors, lineError(1, err))
		return result
	}
	headers := make([]string, len(rawHeaders))
	for i, h := range rawHeaders {
		headers[i] = NormalizeHeader(strings.TrimPrefix(h, "\ufeff"))
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.Errors = append(result.Errors, lineError(parseErr.StartLine, parseErr.Err))
				continue
			}
			result.Errors = append(result.Errors, err.Error())
			break
		}
		line, _ := reader.FieldPos(0)
		if isBlank(record) {
			continue
		}

		row := Row{Line: line, values: make(map[string]string, len(headers))}
		for i, h := range headers {
			if i < len(record) {
				row.values[h] = record[i]
			}
		}
		if err := fn(row); err != nil {
			result.Errors = append(result.Errors, lineError(line, err))
			continue
		}
		result.Success++
	}
	return result
}

func lineError(line int, err error) string {
	return fmt.Sprintf("line %d: %s", line, err.Error())
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
