// Package feed parses the SAP TSV exports that drive reconciliation:
// the production order list (ZP02) and the component requirement list
// (ZP51N). Exports come out of the GUI as Shift-JIS; columns are
// addressed by header name, so export layout changes don't break the
// import as long as the named columns survive.
package feed

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/yamagen-seiki/plantrack/internal/model"
)

// Encoding selects the character encoding of a feed file.
type Encoding string

const (
	EncodingShiftJIS Encoding = "shift-jis"
	EncodingUTF8     Encoding = "utf-8"
)

// ZP02 column headers.
const (
	colOrderNumber       = "指図番号"
	colParentOrderNumber = "親指図番号"
	colParentItemCode    = "親品目コード"
	colParentItemText    = "親品目テキスト"
	colItemCode          = "品目コード"
	colItemText          = "品目テキスト"
	colPlannedStart      = "計画開始"
	colPlannedEnd        = "計画終了"
	colRemainingQty      = "完成残数"
	colDepartment        = "MRP管理者"
	colStatus            = "ステータス"
	colCompletedOn       = "DLV日付"
)

// ZP51N column headers.
const (
	colChildOrderNumber = "子指図番号"
	colRequiredDate     = "所要日"
	colChildDepartment  = "子MRP管理者"
	colChildProcess     = "工程(子)"
	colMarkC            = "C"
	colMarkA            = "A"
	colMarkOther        = "C,A以外"
	colInspection       = "検査"
)

// ParseOrders reads a ZP02 export. Rows without an order number are
// skipped; malformed dates and quantities degrade to zero values rather
// than failing the import.
func ParseOrders(r io.Reader, enc Encoding) ([]model.OrderRecord, error) {
	rows, header, err := readTable(r, enc)
	if err != nil {
		return nil, eris.Wrap(err, "feed: read zp02")
	}
	if err := header.require(colOrderNumber); err != nil {
		return nil, eris.Wrap(err, "feed: zp02 header")
	}

	orders := make([]model.OrderRecord, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		number := header.get(row, colOrderNumber)
		if number == "" {
			skipped++
			continue
		}
		orders = append(orders, model.OrderRecord{
			OrderNumber:       number,
			ParentOrderNumber: header.get(row, colParentOrderNumber),
			ParentItemCode:    header.get(row, colParentItemCode),
			ParentItemText:    header.get(row, colParentItemText),
			ItemCode:          header.get(row, colItemCode),
			ItemText:          header.get(row, colItemText),
			PlannedStart:      model.ParseDate(header.get(row, colPlannedStart)),
			PlannedEnd:        model.ParseDate(header.get(row, colPlannedEnd)),
			RemainingQty:      parseQty(header.get(row, colRemainingQty)),
			Department:        header.get(row, colDepartment),
			Status:            header.get(row, colStatus),
			CompletedOn:       model.ParseDate(header.get(row, colCompletedOn)),
		})
	}
	if skipped > 0 {
		zap.L().Warn("zp02 rows without order number skipped", zap.Int("rows", skipped))
	}
	return orders, nil
}

// ParseRequirements reads a ZP51N export. Rows are kept as-is; the
// summarizer downstream drops rows without an order number or required
// date, so the parser stays permissive.
func ParseRequirements(r io.Reader, enc Encoding) ([]model.RequirementRecord, error) {
	rows, header, err := readTable(r, enc)
	if err != nil {
		return nil, eris.Wrap(err, "feed: read zp51n")
	}
	if err := header.require(colChildOrderNumber); err != nil {
		return nil, eris.Wrap(err, "feed: zp51n header")
	}

	reqs := make([]model.RequirementRecord, 0, len(rows))
	for _, row := range rows {
		reqs = append(reqs, model.RequirementRecord{
			OrderNumber:       header.get(row, colChildOrderNumber),
			RequiredDate:      model.ParseDate(header.get(row, colRequiredDate)),
			Department:        header.get(row, colChildDepartment),
			Process:           header.get(row, colChildProcess),
			MarkC:             header.get(row, colMarkC),
			MarkA:             header.get(row, colMarkA),
			MarkOther:         header.get(row, colMarkOther),
			Inspection:        header.get(row, colInspection),
			ParentOrderNumber: header.get(row, colParentOrderNumber),
		})
	}
	return reqs, nil
}

// ReadOrdersFile opens and parses a ZP02 export from disk.
func ReadOrdersFile(path string, enc Encoding) ([]model.OrderRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: open %s", path)
	}
	defer f.Close()
	return ParseOrders(f, enc)
}

// ReadRequirementsFile opens and parses a ZP51N export from disk.
func ReadRequirementsFile(path string, enc Encoding) ([]model.RequirementRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: open %s", path)
	}
	defer f.Close()
	return ParseRequirements(f, enc)
}

// headerIndex maps column names to their position in the header row.
type headerIndex map[string]int

func (h headerIndex) require(cols ...string) error {
	for _, c := range cols {
		if _, ok := h[c]; !ok {
			return eris.Errorf("missing column %q", c)
		}
	}
	return nil
}

// get returns the trimmed cell for a named column, or "" when the
// column is absent or the row is short.
func (h headerIndex) get(row []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func readTable(r io.Reader, enc Encoding) ([][]string, headerIndex, error) {
	if enc == EncodingShiftJIS {
		r = transform.NewReader(r, japanese.ShiftJIS.NewDecoder())
	}

	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err == io.EOF {
		return nil, nil, eris.New("empty file")
	}
	if err != nil {
		return nil, nil, eris.Wrap(err, "header row")
	}

	header := make(headerIndex, len(head))
	for i, name := range head {
		header[strings.TrimSpace(stripBOM(name))] = i
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, eris.Wrap(err, "data row")
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}

// parseQty converts an SAP quantity cell. Exports use thousands
// separators; unparseable cells degrade to zero.
func parseQty(s string) float64 {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
