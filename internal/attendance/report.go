package attendance

import (
	"context"

	"github.com/xuri/excelize/v2"

	"attendance-portal/internal/apperr"
	"attendance-portal/internal/metrics"
	"attendance-portal/internal/model"
)

// MaxRecords caps list and export reads. Rows past it are not returned.
const MaxRecords = 5000

const (
	ExportFilename    = "attendance_report.xlsx"
	ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportSheet       = "Attendance"
)

// ExportColumns is the header row of an export. The record id is never written.
var ExportColumns = []string{
	"student_roll_number", "date", "branch", "year", "status", "marked_by", "updated_at", "created_at",
}

// Analytics summarizes a filter. TotalStudents counts the roster for the
// branch/year only and ignores the date.
type Analytics struct {
	TotalStudents int64 `json:"total_students"`
	PresentCount  int64 `json:"present_count"`
	AbsentCount   int64 `json:"absent_count"`
}

func (s *Service) normalize(f model.Filter) model.Filter {
	if f.Date != nil {
		d := s.dateKey.Normalize(*f.Date)
		f.Date = &d
	}
	return f
}

// List returns matching records. Rows past the first MaxRecords are never
// returned, whatever the page.
func (s *Service) List(ctx context.Context, f model.Filter, p model.Page) ([]model.AttendanceRecord, error) {
	p, ok := p.Within(MaxRecords)
	if !ok {
		return []model.AttendanceRecord{}, nil
	}
	return s.store.FindAttendance(ctx, s.normalize(f), p)
}

// Export renders matching records as an xlsx workbook.
func (s *Service) Export(ctx context.Context, f model.Filter) ([]byte, error) {
	records, err := s.store.FindAttendance(ctx, s.normalize(f), model.Page{Limit: MaxRecords})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperr.NotFound("No attendance data found for export")
	}
	data, err := Render(records)
	if err != nil {
		return nil, err
	}
	metrics.Exports.Inc()
	return data, nil
}

// Render writes records to a single-sheet workbook, one row per record.
func Render(records []model.AttendanceRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, err
	}
	header := make([]any, len(ExportColumns))
	for i, c := range ExportColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			r.StudentRollNumber, r.Date, r.Branch, r.Year, string(r.Status), r.MarkedBy, r.UpdatedAt, r.CreatedAt,
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Analyze counts the roster for the branch/year and attendance by status.
func (s *Service) Analyze(ctx context.Context, f model.Filter) (Analytics, error) {
	f = s.normalize(f)
	total, err := s.store.CountStudents(ctx, model.Filter{Branch: f.Branch, Year: f.Year})
	if err != nil {
		return Analytics{}, err
	}
	counts, err := s.store.CountAttendanceByStatus(ctx, f)
	if err != nil {
		return Analytics{}, err
	}
	return Analytics{
		TotalStudents: total,
		PresentCount:  counts[model.StatusPresent],
		AbsentCount:   counts[model.StatusAbsent],
	}, nil
}
