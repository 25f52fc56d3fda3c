package exports

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportCSVQuotesEveryValue(t *testing.T) {
	var buf bytes.Buffer
	err := ExportCSV(&buf, []string{"ID", "Title"}, [][]string{
		{"1", `Say "hi"`},
		{"2", "plain"},
	})
	require.NoError(t, err)

	want := "\"ID\",\"Title\"\r\n\"1\",\"Say \"\"hi\"\"\"\r\n\"2\",\"plain\""
	assert.Equal(t, want, buf.String())
}

func TestExportCSVHeaderOnlyWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, contractColumns, nil))
	assert.Equal(t,
		`"ID","Contract Number","Title","Type","Status","Customer","Value","Start Date","End Date"`,
		buf.String())
}

func TestCSVRoundTrip(t *testing.T) {
	columns := []string{"ID", "Company Name", "Notes"}
	rows := [][]string{
		{"a1", "Acme, Inc.", `He said "go"`},
		{"a2", "Müller GmbH", "two\nlines"},
		{"a3", "", "trailing comma,"},
	}

	var first bytes.Buffer
	require.NoError(t, ExportCSV(&first, columns, rows))

	parsed := make([][]string, 0)
	result := ImportCSV(bytes.NewReader(first.Bytes()), func(row Row) error {
		parsed = append(parsed, []string{row.Get("id"), row.Get("company_name"), row.Get("notes")})
		return nil
	})
	require.Empty(t, result.Errors)
	assert.Equal(t, 3, result.Success)

	var second bytes.Buffer
	require.NoError(t, ExportCSV(&second, columns, parsed))
	assert.Equal(t, first.String(), second.String())
}

func TestImportCSVRecordsFailuresAndContinues(t *testing.T) {
	input := "Name,Email\n" +
		"Ada,ada@example.com\n" +
		"\n" +
		"Bob,bad\n" +
		"Cy,cy@example.com\n"

	var seen []int
	result := ImportCSV(strings.NewReader(input), func(row Row) error {
		seen = append(seen, row.Line)
		if !strings.Contains(row.Get("email"), "@") {
			return errors.New("invalid email")
		}
		return nil
	})

	assert.Equal(t, 2, result.Success)
	assert.Equal(t, []string{"line 4: invalid email"}, result.Errors)
	assert.Equal(t, []int{2, 4, 5}, seen)
}

func TestImportCSVToleratesShortAndLongRows(t *testing.T) {
	input := "First Name,Last Name\nAda\nGrace,Hopper,extra\n"

	var names []string
	result := ImportCSV(strings.NewReader(input), func(row Row) error {
		names = append(names, row.Get("first_name")+"|"+row.Get("last_name"))
		return nil
	})

	assert.Equal(t, 2, result.Success)
	assert.Equal(t, []string{"Ada|", "Grace|Hopper"}, names)
}

func TestImportCSVEmptyInput(t *testing.T) {
	result := ImportCSV(strings.NewReader(""), func(Row) error { return nil })
	assert.Equal(t, 0, result.Success)
	assert.Equal(t, []string{"line 1: missing header row"}, result.Errors)
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "expected_close_date", NormalizeHeader(" Expected Close Date "))
	assert.Equal(t, "id", NormalizeHeader("ID"))
}

func TestExportJSONIndentsWithTwoSpaces(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, []map[string]string{{"id": "1"}}))

	assert.Equal(t, "[\n  {\n    \"id\": \"1\"\n  }\n]\n", buf.String())
	var decoded []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
}

func TestExportXLSXWritesHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportXLSX(&buf, []string{"ID", "Name"}, [][]string{{"1", "Ada"}, {"2", "Grace"}}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(xlsxSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ID", "Name"}, {"1", "Ada"}, {"2", "Grace"}}, rows)
}
