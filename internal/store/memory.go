package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"attendance-portal/internal/model"
)

type attendanceKey struct {
	roll string
	date int64
}

func keyOf(roll string, date time.Time) attendanceKey {
	return attendanceKey{roll: roll, date: date.UnixNano()}
}

// Memory is a process-local backend used for development and tests.
// A batch upsert holds the lock for its whole run and is therefore atomic.
type Memory struct {
	mu         sync.RWMutex
	students   map[string]model.Student
	attendance map[attendanceKey]model.AttendanceRecord
	users      map[string]model.User
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		students:   make(map[string]model.Student),
		attendance: make(map[attendanceKey]model.AttendanceRecord),
		users:      make(map[string]model.User),
	}
}

func matchStudent(s model.Student, f model.Filter) bool {
	return (f.Branch == "" || s.Branch == f.Branch) && (f.Year == 0 || s.Year == f.Year)
}

func matchRecord(r model.AttendanceRecord, f model.Filter) bool {
	if f.Date != nil && !r.Date.Equal(*f.Date) {
		return false
	}
	return (f.Branch == "" || r.Branch == f.Branch) && (f.Year == 0 || r.Year == f.Year)
}

func window[T any](items []T, p model.Page) []T {
	if p.Offset >= len(items) {
		return items[:0]
	}
	items = items[p.Offset:]
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}

// InsertStudent adds a student unless the roll number is taken.
func (m *Memory) InsertStudent(_ context.Context, s model.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[s.RollNumber]; ok {
		return model.ErrDuplicate
	}
	s.ID = uuid.NewString()
	m.students[s.RollNumber] = s
	return nil
}

// FindStudents lists students by branch/year ordered by S.No.
func (m *Memory) FindStudents(_ context.Context, f model.Filter, p model.Page) ([]model.Student, error) {
	m.mu.RLock()
	res := []model.Student{}
	for _, s := range m.students {
		if matchStudent(s, f) {
			res = append(res, s)
		}
	}
	m.mu.RUnlock()
	sort.Slice(res, func(i, j int) bool {
		if res[i].SNo != res[j].SNo {
			return res[i].SNo < res[j].SNo
		}
		return res[i].RollNumber < res[j].RollNumber
	})
	return window(res, p), nil
}

// CountStudents counts students by branch/year.
func (m *Memory) CountStudents(_ context.Context, f model.Filter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, s := range m.students {
		if matchStudent(s, f) {
			n++
		}
	}
	return n, nil
}

// UpsertAttendance applies every op keyed by (roll number, date).
func (m *Memory) UpsertAttendance(ctx context.Context, ops []model.Upsert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range ops {
		k := keyOf(op.RollNumber, op.Date)
		rec, ok := m.attendance[k]
		if !ok {
			rec = model.AttendanceRecord{
				ID:                uuid.NewString(),
				StudentRollNumber: op.RollNumber,
				Date:              op.Date,
				CreatedAt:         op.At,
			}
		}
		rec.Branch = op.Branch
		rec.Year = op.Year
		rec.Status = op.Status
		rec.MarkedBy = op.MarkedBy
		rec.UpdatedAt = op.At
		m.attendance[k] = rec
	}
	return nil
}

// FindAttendance lists records newest date first.
func (m *Memory) FindAttendance(_ context.Context, f model.Filter, p model.Page) ([]model.AttendanceRecord, error) {
	m.mu.RLock()
	res := []model.AttendanceRecord{}
	for _, r := range m.attendance {
		if matchRecord(r, f) {
			res = append(res, r)
		}
	}
	m.mu.RUnlock()
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Date.Equal(res[j].Date) {
			return res[i].Date.After(res[j].Date)
		}
		return res[i].StudentRollNumber < res[j].StudentRollNumber
	})
	return window(res, p), nil
}

// CountAttendanceByStatus groups matching records by status.
func (m *Memory) CountAttendanceByStatus(_ context.Context, f model.Filter) (map[model.Status]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[model.Status]int64{}
	for _, r := range m.attendance {
		if matchRecord(r, f) {
			out[r.Status]++
		}
	}
	return out, nil
}

// InsertUser creates an account unless the username is taken.
func (m *Memory) InsertUser(_ context.Context, u model.User) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Username]; ok {
		return model.User{}, model.ErrDuplicate
	}
	u.ID = uuid.NewString()
	m.users[u.Username] = u
	return u, nil
}

// FindUserByUsername returns nil when there is no such user.
func (m *Memory) FindUserByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// HasAdmin reports whether any admin account exists.
func (m *Memory) HasAdmin(context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Role == model.RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

// SetDisabled toggles an account's disabled flag.
func (m *Memory) SetDisabled(username string, disabled bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if ok {
		u.Disabled = disabled
		m.users[username] = u
	}
	return ok
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *Memory) Close(context.Context) error { return nil }
