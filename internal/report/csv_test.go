package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldlog/internal/core"
)

func TestBuildCSVBasic(t *testing.T) {
	records := []core.ActivityRecord{
		{ID: "1", Date: "2025-08-01", Type: core.Prune, Quantity: 2, Notes: "ok"},
		{ID: "2", Date: "2025-08-02", Type: core.Spacer, Quantity: 3, Notes: "ok"},
	}

	text := BuildCSV(records)
	lines := strings.Split(text, "\n")

	require.Len(t, lines, 3)
	assert.Equal(t, `"data";"tipo";"quantidade";"observacoes"`, lines[0])
	assert.Equal(t, `"2025-08-01";"Poda de Árvore";"2";"ok"`, lines[1])
	assert.Equal(t, `"2025-08-02";"Instalação Espaçador";"3";"ok"`, lines[2])
}

func TestBuildCSVHasNoBOM(t *testing.T) {
	text := BuildCSV([]core.ActivityRecord{{ID: "1", Date: "2025-08-01", Type: core.Prune}})

	assert.False(t, strings.HasPrefix(text, "\ufeff"))
	assert.False(t, bytes.HasPrefix([]byte(text), BOM))
}

func TestBuildCSVEmptyIsHeaderOnly(t *testing.T) {
	assert.Equal(t, `"data";"tipo";"quantidade";"observacoes"`, BuildCSV(nil))
}

func TestBuildCSVEscaping(t *testing.T) {
	records := []core.ActivityRecord{
		{ID: "1", Date: "2025-08-01", Type: core.Prune, Quantity: 1, Notes: `say "hi"`},
		{ID: "2", Date: "2025-08-01", Type: core.Prune, Quantity: 1, Notes: "line one\nline two\r\nline three"},
		{ID: "3", Date: "2025-08-01", Type: core.Prune, Quantity: 1, Notes: "a;b"},
	}

	lines := strings.Split(BuildCSV(records), "\n")

	require.Len(t, lines, 4)
	assert.Equal(t, `"2025-08-01";"Poda de Árvore";"1";"say ""hi"""`, lines[1])
	assert.Equal(t, `"2025-08-01";"Poda de Árvore";"1";"line one line two line three"`, lines[2])
	assert.Equal(t, `"2025-08-01";"Poda de Árvore";"1";"a;b"`, lines[3])
}

func TestCSVRoundTrip(t *testing.T) {
	var records []core.ActivityRecord
	for i := 0; i < 25; i++ {
		at := core.Prune
		if i%3 == 0 {
			at = core.Spacer
		}
		records = append(records, core.ActivityRecord{
			ID:       fmt.Sprint(i),
			Date:     core.NewDate(2025, 1, 1).AddDays(i * 7).String(),
			Type:     at,
			Quantity: i * 11,
			Notes:    fmt.Sprintf("row %d \"quoted\";\nsecond line", i),
		})
	}

	rows, err := ParseCSV(BuildCSV(records))

	require.NoError(t, err)
	require.Len(t, rows, len(records))
	for i, r := range records {
		assert.Equal(t, r.Date, rows[i].Date)
		assert.Equal(t, r.Type.Label(), rows[i].TypeLabel)
		assert.Equal(t, r.Quantity, rows[i].Quantity)
		assert.Equal(t, strings.ReplaceAll(r.Notes, "\n", " "), rows[i].Notes)
	}
}

func TestParseCSVToleratesBOMAndRejectsBadHeader(t *testing.T) {
	text := BuildCSV([]core.ActivityRecord{{ID: "1", Date: "2025-08-01", Type: core.Prune, Quantity: 4}})

	rows, err := ParseCSV(string(FileBytes(text)))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].Quantity)

	_, err = ParseCSV(`"a";"b";"c";"d"`)
	assert.Error(t, err)
}

func TestWriteCSVFilePrependsBOM(t *testing.T) {
	text := BuildCSV([]core.ActivityRecord{{ID: "1", Date: "2025-08-01", Type: core.Prune, Quantity: 2, Notes: "ok"}})
	var buf bytes.Buffer

	require.NoError(t, WriteCSVFile(&buf, text))

	out := buf.Bytes()
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, out[:3])
	assert.Equal(t, text, string(out[3:]))
	assert.Equal(t, out, FileBytes(text))
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "EMS_registros.csv", ExportFilename(core.EMS))
}
