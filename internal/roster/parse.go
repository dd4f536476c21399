package roster

import (
	"bytes"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"attendance-portal/internal/model"
)

// Header names after normalization.
const (
	ColSNo     = "S.NO"
	ColRollNo  = "ROLL NO"
	ColName    = "STUDENT NAME"
	ColBranch  = "BRANCH"
	ColYear    = "YEAR"
	ColContact = "CONTACT"
)

// RequiredColumns must all be present in the header row.
var RequiredColumns = []string{ColSNo, ColRollNo, ColName, ColBranch, ColYear}

// NormalizeHeader trims and uppercases a header cell for comparison.
func NormalizeHeader(h string) string {
	return strings.ToUpper(strings.TrimSpace(h))
}

// Parse reads the first sheet of an xlsx workbook into students.
// It is all-or-nothing: any bad row fails the whole sheet.
func Parse(data []byte) ([]model.Student, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Err: errors.New("workbook has no sheets")}
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return FromRows(rows)
}

// FromRows maps a header row plus data rows onto students.
func FromRows(rows [][]string) ([]model.Student, error) {
	var header []string
	if len(rows) > 0 {
		header = rows[0]
	}
	index := make(map[string]int, len(header))
	found := make([]string, 0, len(header))
	for i, h := range header {
		name := NormalizeHeader(h)
		found = append(found, name)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing, Found: found}
	}

	contactIdx, hasContact := index[ColContact]
	students := make([]model.Student, 0, len(rows))
	for r := 1; r < len(rows); r++ {
		row := rows[r]
		if blank(row) {
			continue
		}
		cell := func(col string) string { return at(row, index[col]) }
		line := r + 1

		sno, err := toInt(cell(ColSNo))
		if err != nil {
			return nil, &ParseError{Err: &TypeCastError{Row: line, Column: ColSNo, Value: cell(ColSNo), Want: "integer"}}
		}
		year, err := toInt(cell(ColYear))
		if err != nil {
			return nil, &ParseError{Err: &TypeCastError{Row: line, Column: ColYear, Value: cell(ColYear), Want: "integer"}}
		}
		roll := strings.TrimSpace(cell(ColRollNo))
		if roll == "" {
			return nil, &ParseError{Err: &TypeCastError{Row: line, Column: ColRollNo, Value: "", Want: "non-empty string"}}
		}

		st := model.Student{
			SNo:        sno,
			RollNumber: roll,
			Name:       strings.TrimSpace(cell(ColName)),
			Branch:     strings.TrimSpace(cell(ColBranch)),
			Year:       year,
		}
		if hasContact {
			if c := strings.TrimSpace(at(row, contactIdx)); c != "" {
				st.Contact = &c
			}
		}
		students = append(students, st)
	}
	return students, nil
}

// toInt accepts integers and integral-looking floats; fractional values truncate.
// Values outside the int range are rejected.
func toInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err == nil {
		return n, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, errors.New("out of range")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("not a number")
	}
	if f >= float64(math.MaxInt) || f < float64(math.MinInt) {
		return 0, errors.New("out of range")
	}
	return int(f), nil
}

func at(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
