package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"fieldlog/internal/core"
)

const (
	csvDelimiter = ';'
	csvNewline   = "\n"
)

// CSVHeader is the fixed first row of every export.
var CSVHeader = []string{"data", "tipo", "quantidade", "observacoes"}

// BOM is the UTF-8 byte order mark prepended to materialized CSV files so
// spreadsheet tools detect the encoding. It never appears in the CSV text.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVRow is one exported line after parsing.
type CSVRow struct {
	Date      string
	TypeLabel string
	Quantity  int
	Notes     string
}

// BuildCSV renders records, in the order given, as semicolon separated text.
// Every field is quoted and embedded quotes are doubled; line breaks inside
// notes become single spaces.
func BuildCSV(records []core.ActivityRecord) string {
	var b strings.Builder
	writeCSVLine(&b, CSVHeader)
	for _, r := range records {
		b.WriteString(csvNewline)
		writeCSVLine(&b, []string{
			r.Date,
			r.Type.Label(),
			strconv.Itoa(r.Quantity),
			flattenNotes(r.Notes),
		})
	}
	return b.String()
}

func writeCSVLine(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(csvDelimiter)
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
}

var notesFlattener = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func flattenNotes(s string) string {
	return notesFlattener.Replace(s)
}

// WriteCSVFile writes the BOM followed by the CSV text bytes, unchanged.
func WriteCSVFile(w io.Writer, text string) error {
	if _, err := w.Write(BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	if _, err := io.WriteString(w, text); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// FileBytes returns the on-disk representation of a CSV text.
func FileBytes(text string) []byte {
	out := make([]byte, 0, len(BOM)+len(text))
	out = append(out, BOM...)
	return append(out, text...)
}

// ExportFilename names the download for a company.
func ExportFilename(company core.CompanyID) string {
	return string(company) + "_registros.csv"
}

// ParseCSV reads an export back into rows. A leading BOM is tolerated and
// the header row is checked and skipped.
func ParseCSV(text string) ([]CSVRow, error) {
	text = strings.TrimPrefix(text, string(BOM))
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = csvDelimiter
	r.FieldsPerRecord = len(CSVHeader)

	lines, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("read csv: missing header")
	}
	for i, h := range CSVHeader {
		if lines[0][i] != h {
			return nil, fmt.Errorf("read csv: unexpected header column %d %q", i, lines[0][i])
		}
	}

	rows := make([]CSVRow, 0, len(lines)-1)
	for n, line := range lines[1:] {
		qty, err := strconv.Atoi(line[2])
		if err != nil {
			return nil, fmt.Errorf("read csv: line %d quantity %q: %w", n+2, line[2], err)
		}
		rows = append(rows, CSVRow{Date: line[0], TypeLabel: line[1], Quantity: qty, Notes: line[3]})
	}
	return rows, nil
}
