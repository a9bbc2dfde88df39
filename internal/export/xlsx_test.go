package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/greenloan/validator-cli/internal/model"
	"github.com/greenloan/validator-cli/internal/store"
)

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.xlsx")
	created := time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)

	summaries := []store.ReportSummary{
		{
			DocID: "DOC-1", FileName: "offer.pdf", Pages: 3,
			TrafficLight: model.LightGreen,
			Evidence:     83, Consistency: 100, Feasibility: 100,
			RedFlags: 0, CreatedAt: created,
		},
		{
			DocID: "DOC-2", FileName: "risky.pdf", Pages: 12,
			TrafficLight: model.LightRed,
			Evidence:     33, Consistency: 40, Feasibility: 50,
			RedFlags: 5, CreatedAt: created,
		},
	}

	require.NoError(t, WriteXLSX(summaries, path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	assert.Equal(t, "Reports", sheet.Name)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, "Doc ID", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "DOC-1", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "GREEN", sheet.Rows[1].Cells[3].String())
	assert.Equal(t, "DOC-2", sheet.Rows[2].Cells[0].String())
	assert.Equal(t, "RED", sheet.Rows[2].Cells[3].String())

	flags, err := sheet.Rows[2].Cells[7].Int()
	require.NoError(t, err)
	assert.Equal(t, 5, flags)
}

func TestWriteXLSX_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteXLSX(nil, path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets[0].Rows, 1) // header only
}
