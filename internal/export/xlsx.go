// Package export renders the unified dataset as the spreadsheet the
// planning team circulates: one sheet, fixed column order, Japanese
// headers matching the dashboard table.
package export

import (
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/yamagen-seiki/plantrack/internal/model"
)

// SheetName is the single worksheet's title.
const SheetName = "生産計画データ"

// headers is the fixed output column order.
var headers = []string{
	"No",
	"親指図番号",
	"親品目コード",
	"親品目テキスト",
	"子指図番号",
	"子品目コード",
	"子品目テキスト",
	"所要日",
	"子指図計画開始日",
	"子指図計画終了日",
	"計画数量",
	"進捗",
	"完了日",
	"基準計画終了日",
	"子MRP管理者",
	"生産タイプ",
	"遵守状況",
}

// Write renders the records as an xlsx workbook onto w.
func Write(w io.Writer, records []model.UnifiedRecord) error {
	f, err := build(records)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}

// WriteFile renders the records as an xlsx workbook at path.
func WriteFile(path string, records []model.UnifiedRecord) error {
	f, err := build(records)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func build(records []model.UnifiedRecord) (*xlsx.File, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return nil, eris.Wrap(err, "export: add sheet")
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}

	head := sheet.AddRow()
	for _, h := range headers {
		head.AddCell().Value = h
	}

	for _, r := range records {
		cells := rowValues(r)
		row := sheet.AddRow()
		for i, v := range cells {
			row.AddCell().Value = v
			if n := utf8.RuneCountInString(v); n > widths[i] {
				widths[i] = n
			}
		}
	}

	// Width follows the longest cell in the column, like the dashboard's
	// download did.
	for i, w := range widths {
		sheet.SetColWidth(i, i, float64(w))
	}
	return f, nil
}

func rowValues(r model.UnifiedRecord) []string {
	return []string{
		strconv.Itoa(r.Seq),
		r.ParentOrderNumber,
		r.ParentItemCode,
		r.ParentItemText,
		r.OrderNumber,
		r.ItemCode,
		r.ItemText,
		r.RequiredDate.String(),
		r.PlannedStart.String(),
		r.PlannedEnd.String(),
		strconv.FormatFloat(r.PlannedQty, 'f', -1, 64),
		r.Progress.Label(),
		r.CompletedOn.String(),
		r.BaselinePlannedEnd.String(),
		r.Department,
		r.ProductionType.Label(),
		r.Compliance.Label(),
	}
}
