package roster

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"attendance-portal/internal/apperr"
	"attendance-portal/internal/metrics"
	"attendance-portal/internal/model"
)

// MaxListed caps a student listing.
const MaxListed = 1000

// Store is the persistence the roster needs. InsertStudent returns
// model.ErrDuplicate when the roll number is already registered.
type Store interface {
	InsertStudent(ctx context.Context, s model.Student) error
	FindStudents(ctx context.Context, f model.Filter, p model.Page) ([]model.Student, error)
}

// Service imports and lists students.
type Service struct {
	store Store
}

// NewService creates a roster service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// AcceptsFilename reports whether an upload name looks like a spreadsheet.
func AcceptsFilename(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xls":
		return true
	}
	return false
}

// Import parses the workbook and inserts every student whose roll number is
// new. Existing students are left untouched. It returns the number added.
// Inserts are not transactional: a store failure keeps earlier inserts.
func (s *Service) Import(ctx context.Context, filename string, data []byte) (int, error) {
	if !AcceptsFilename(filename) {
		return 0, apperr.Validation("Invalid file format. Please upload an Excel file.")
	}
	students, err := Parse(data)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, st := range students {
		err := s.store.InsertStudent(ctx, st)
		switch {
		case err == nil:
			added++
		case errors.Is(err, model.ErrDuplicate):
			metrics.StudentsSkipped.Inc()
		default:
			return added, err
		}
	}
	metrics.StudentsImported.Add(float64(added))
	return added, nil
}

// List returns students matching the branch/year filter. Rows past the first
// MaxListed are never returned, whatever the page.
func (s *Service) List(ctx context.Context, f model.Filter, p model.Page) ([]model.Student, error) {
	f.Date = nil
	p, ok := p.Within(MaxListed)
	if !ok {
		return []model.Student{}, nil
	}
	return s.store.FindStudents(ctx, f, p)
}
