package attendance

import (
	"context"
	"time"

	"attendance-portal/internal/model"
)

type recordKey struct {
	roll string
	date int64
}

// memStore is a minimal Store used by the package tests.
type memStore struct {
	records  map[recordKey]model.AttendanceRecord
	students []model.Student
	batches  int
	err      error
}

func newMemStore() *memStore {
	return &memStore{records: map[recordKey]model.AttendanceRecord{}}
}

func (m *memStore) UpsertAttendance(_ context.Context, ops []model.Upsert) error {
	if m.err != nil {
		return m.err
	}
	m.batches++
	for _, op := range ops {
		k := recordKey{op.RollNumber, op.Date.UnixNano()}
		rec, ok := m.records[k]
		if !ok {
			rec = model.AttendanceRecord{StudentRollNumber: op.RollNumber, Date: op.Date, CreatedAt: op.At}
		}
		rec.Branch, rec.Year, rec.Status, rec.MarkedBy, rec.UpdatedAt = op.Branch, op.Year, op.Status, op.MarkedBy, op.At
		m.records[k] = rec
	}
	return nil
}

func (m *memStore) match(r model.AttendanceRecord, f model.Filter) bool {
	if f.Date != nil && !r.Date.Equal(*f.Date) {
		return false
	}
	return (f.Branch == "" || r.Branch == f.Branch) && (f.Year == 0 || r.Year == f.Year)
}

func (m *memStore) FindAttendance(_ context.Context, f model.Filter, p model.Page) ([]model.AttendanceRecord, error) {
	var out []model.AttendanceRecord
	for _, r := range m.records {
		if m.match(r, f) {
			out = append(out, r)
		}
	}
	if p.Limit > 0 && len(out) > p.Limit {
		out = out[:p.Limit]
	}
	return out, nil
}

func (m *memStore) CountAttendanceByStatus(_ context.Context, f model.Filter) (map[model.Status]int64, error) {
	out := map[model.Status]int64{}
	for _, r := range m.records {
		if m.match(r, f) {
			out[r.Status]++
		}
	}
	return out, nil
}

func (m *memStore) CountStudents(_ context.Context, f model.Filter) (int64, error) {
	var n int64
	for _, s := range m.students {
		if (f.Branch == "" || s.Branch == f.Branch) && (f.Year == 0 || s.Year == f.Year) {
			n++
		}
	}
	return n, nil
}

func (m *memStore) get(roll string, date time.Time) (model.AttendanceRecord, bool) {
	r, ok := m.records[recordKey{roll, date.UnixNano()}]
	return r, ok
}

// clock returns a now func that advances by step on every call.
func clock(start time.Time, step time.Duration) func() time.Time {
	t := start.Add(-step)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}
