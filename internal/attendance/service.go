package attendance

import (
	"context"
	"strings"
	"time"

	"attendance-portal/internal/apperr"
	"attendance-portal/internal/metrics"
	"attendance-portal/internal/model"
)

// Mark is one student's entry in a submission. Empty Branch and zero Year
// fall back to the submission-level values.
type Mark struct {
	StudentRollNumber string `json:"student_roll_number" binding:"required"`
	Status            string `json:"status" binding:"required,attendance_status"`
	Branch            string `json:"branch"`
	Year              int    `json:"year"`
}

// Submission is a batch of marks for a single date.
type Submission struct {
	Date           string `json:"date" binding:"required"`
	Branch         string `json:"branch"`
	Year           int    `json:"year"`
	AttendanceData []Mark `json:"attendance_data" binding:"dive"`
}

// Result is returned after a submission is written.
type Result struct {
	Message     string    `json:"message"`
	Date        time.Time `json:"date"`
	MarkedCount int       `json:"marked_count"`
}

// Store is the persistence the attendance service needs.
type Store interface {
	// UpsertAttendance applies every op keyed by (roll number, date).
	UpsertAttendance(ctx context.Context, ops []model.Upsert) error
	FindAttendance(ctx context.Context, f model.Filter, p model.Page) ([]model.AttendanceRecord, error)
	CountAttendanceByStatus(ctx context.Context, f model.Filter) (map[model.Status]int64, error)
	CountStudents(ctx context.Context, f model.Filter) (int64, error)
}

// Service reconciles submissions into upserts and answers reporting queries.
type Service struct {
	store   Store
	dateKey DateKey
	now     func() time.Time
}

// NewService creates a service backed by store.
func NewService(store Store, dateKey DateKey) *Service {
	return &Service{store: store, dateKey: dateKey, now: time.Now}
}

// Effective resolves the branch and year persisted for a mark.
func Effective(m Mark, batchBranch string, batchYear int) (string, int) {
	branch := m.Branch
	if branch == "" {
		branch = batchBranch
	}
	year := m.Year
	if year <= 0 {
		year = batchYear
	}
	return branch, year
}

// Plan turns a submission into one upsert per mark. All ops share at.
// Nothing is written; an invalid mark fails the whole plan.
func (s *Service) Plan(sub Submission, who model.Identity, at time.Time) (time.Time, []model.Upsert, error) {
	date, err := ParseDate(sub.Date)
	if err != nil {
		return time.Time{}, nil, err
	}
	key := s.dateKey.Normalize(date)

	ops := make([]model.Upsert, 0, len(sub.AttendanceData))
	for i, m := range sub.AttendanceData {
		roll := strings.TrimSpace(m.StudentRollNumber)
		if roll == "" {
			return time.Time{}, nil, apperr.Validation("attendance_data[%d]: student_roll_number is required", i)
		}
		status, err := model.ParseStatus(m.Status)
		if err != nil {
			return time.Time{}, nil, apperr.Validation("attendance_data[%d]: %v", i, err)
		}
		branch, year := Effective(m, sub.Branch, sub.Year)
		ops = append(ops, model.Upsert{
			RollNumber: roll,
			Date:       key,
			Branch:     branch,
			Year:       year,
			Status:     status,
			MarkedBy:   who.ID,
			At:         at,
		})
	}
	return date, ops, nil
}

// Mark writes a submission as a single batch. The returned count is the
// number of upserts issued, whether or not they changed anything.
func (s *Service) Mark(ctx context.Context, sub Submission, who model.Identity) (Result, error) {
	date, ops, err := s.Plan(sub, who, s.now().UTC())
	if err != nil {
		metrics.AttendanceBatches.WithLabelValues("rejected").Inc()
		return Result{}, err
	}
	if len(ops) > 0 {
		if err := s.store.UpsertAttendance(ctx, ops); err != nil {
			metrics.AttendanceBatches.WithLabelValues("failed").Inc()
			return Result{}, err
		}
	}
	metrics.AttendanceBatches.WithLabelValues("ok").Inc()
	metrics.AttendanceUpserts.Add(float64(len(ops)))
	return Result{
		Message:     "Attendance marked successfully",
		Date:        date,
		MarkedCount: len(ops),
	}, nil
}
