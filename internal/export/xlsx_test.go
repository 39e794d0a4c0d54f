package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/yamagen-seiki/plantrack/internal/model"
)

func d(s string) model.Date { return model.ParseDate(s) }

func sampleRecords() []model.UnifiedRecord {
	return []model.UnifiedRecord{
		{
			Seq:               1,
			ParentOrderNumber: "2000001",
			ParentItemText:    "親アセンブリ",
			OrderNumber:       "1000001",
			ItemCode:          "C-100",
			ItemText:          "シャフト",
			RequiredDate:      d("2024-06-18"),
			PlannedStart:      d("2024-06-01"),
			PlannedEnd:        d("2024-06-20"),
			PlannedQty:        12,
			Progress:          model.StageProcess,
			Department:        "PC1",
			ProductionType:    model.TypeInHouse,
			Compliance:        model.StatusUnfinished,
		},
		{
			Seq:                2,
			OrderNumber:        "1000002",
			PlannedQty:         1.5,
			Progress:           model.StageExcluded,
			CompletedOn:        d("2024-06-10"),
			BaselinePlannedEnd: d("2024-06-12"),
			ProductionType:     model.TypeOther,
			Compliance:         model.StatusCompliant,
		},
	}
}

func TestWriteFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.xlsx")
	require.NoError(t, WriteFile(path, sampleRecords()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)

	sheet, ok := f.Sheet[SheetName]
	require.True(t, ok, "sheet %q must exist", SheetName)
	require.Len(t, sheet.Rows, 3) // header + 2 records

	head := sheet.Rows[0]
	require.Len(t, head.Cells, len(headers))
	assert.Equal(t, "No", head.Cells[0].String())
	assert.Equal(t, "所要日", head.Cells[7].String())
	assert.Equal(t, "遵守状況", head.Cells[16].String())

	first := sheet.Rows[1]
	assert.Equal(t, "1", first.Cells[0].String())
	assert.Equal(t, "1000001", first.Cells[4].String())
	assert.Equal(t, "シャフト", first.Cells[6].String())
	assert.Equal(t, "2024-06-18", first.Cells[7].String())
	assert.Equal(t, "12", first.Cells[10].String())
	assert.Equal(t, "工程", first.Cells[11].String())
	assert.Equal(t, "内製", first.Cells[15].String())
	assert.Equal(t, "未完成", first.Cells[16].String())

	second := sheet.Rows[2]
	assert.Equal(t, "", second.Cells[7].String()) // no required date
	assert.Equal(t, "1.5", second.Cells[10].String())
	assert.Equal(t, "対象外", second.Cells[11].String())
	assert.Equal(t, "2024-06-10", second.Cells[12].String())
	assert.Equal(t, "遵守", second.Cells[16].String())
}

func TestWriteFile_EmptyDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteFile(path, nil))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet := f.Sheet[SheetName]
	require.NotNil(t, sheet)
	require.Len(t, sheet.Rows, 1) // header only
}
