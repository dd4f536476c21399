package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"attendance-portal/internal/model"
)

// where accumulates positional filter clauses.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func (w *where) page(p model.Page) string {
	q := ""
	if p.Limit > 0 {
		w.args = append(w.args, p.Limit)
		q += " LIMIT $" + strconv.Itoa(len(w.args))
	}
	if p.Offset > 0 {
		w.args = append(w.args, p.Offset)
		q += " OFFSET $" + strconv.Itoa(len(w.args))
	}
	return q
}

func filterClauses(f model.Filter, withDate bool) *where {
	w := &where{}
	if withDate && f.Date != nil {
		w.add("date = ?", *f.Date)
	}
	if f.Branch != "" {
		w.add("branch = ?", f.Branch)
	}
	if f.Year != 0 {
		w.add("year = ?", f.Year)
	}
	return w
}

// ---------- Students ----------

// InsertStudent adds a student unless the roll number is taken.
func (p *Postgres) InsertStudent(ctx context.Context, s model.Student) error {
	var id string
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO students (id, s_no, roll_number, name, branch, year, contact)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (roll_number) DO NOTHING
		RETURNING id
	`, uuid.NewString(), s.SNo, s.RollNumber, s.Name, s.Branch, s.Year, s.Contact).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrDuplicate
	}
	return err
}

// FindStudents lists students by branch/year.
func (p *Postgres) FindStudents(ctx context.Context, f model.Filter, pg model.Page) ([]model.Student, error) {
	w := filterClauses(f, false)
	query := `SELECT id, s_no, roll_number, name, branch, year, contact FROM students` +
		w.String() + ` ORDER BY s_no, roll_number`
	query += w.page(pg)

	rows, err := p.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []model.Student{}
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.SNo, &s.RollNumber, &s.Name, &s.Branch, &s.Year, &s.Contact); err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// CountStudents counts students by branch/year.
func (p *Postgres) CountStudents(ctx context.Context, f model.Filter) (int64, error) {
	w := filterClauses(f, false)
	var n int64
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`+w.String(), w.args...).Scan(&n)
	return n, err
}

// ---------- Attendance ----------

// UpsertAttendance applies the batch inside one transaction, so either every
// op lands or none does.
func (p *Postgres) UpsertAttendance(ctx context.Context, ops []model.Upsert) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO attendance (id, student_roll_number, date, branch, year, status, marked_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (student_roll_number, date) DO UPDATE SET
			branch = EXCLUDED.branch,
			year = EXCLUDED.year,
			status = EXCLUDED.status,
			marked_by = EXCLUDED.marked_by,
			updated_at = EXCLUDED.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, op := range ops {
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), op.RollNumber, op.Date, op.Branch, op.Year, string(op.Status), op.MarkedBy, op.At); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// FindAttendance lists records newest date first.
func (p *Postgres) FindAttendance(ctx context.Context, f model.Filter, pg model.Page) ([]model.AttendanceRecord, error) {
	w := filterClauses(f, true)
	query := `SELECT id, student_roll_number, date, branch, year, status, marked_by, created_at, updated_at FROM attendance` +
		w.String() + ` ORDER BY date DESC, student_roll_number`
	query += w.page(pg)

	rows, err := p.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []model.AttendanceRecord{}
	for rows.Next() {
		var r model.AttendanceRecord
		var status string
		if err := rows.Scan(&r.ID, &r.StudentRollNumber, &r.Date, &r.Branch, &r.Year, &status, &r.MarkedBy, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.Status = model.Status(status)
		res = append(res, r)
	}
	return res, rows.Err()
}

// CountAttendanceByStatus groups matching records by status.
func (p *Postgres) CountAttendanceByStatus(ctx context.Context, f model.Filter) (map[model.Status]int64, error) {
	w := filterClauses(f, true)
	rows, err := p.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM attendance`+w.String()+` GROUP BY status`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[model.Status]int64{}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[model.Status(status)] = n
	}
	return out, rows.Err()
}

// ---------- Users ----------

// InsertUser creates an account unless the username is taken.
func (p *Postgres) InsertUser(ctx context.Context, u model.User) (model.User, error) {
	u.ID = uuid.NewString()
	var id string
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO users (id, username, email, full_name, password_hash, role, disabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (username) DO NOTHING
		RETURNING id
	`, u.ID, u.Username, u.Email, u.FullName, u.PasswordHash, string(u.Role), u.Disabled).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, model.ErrDuplicate
	}
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

// FindUserByUsername returns nil when there is no such user.
func (p *Postgres) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, username, email, full_name, password_hash, role, disabled
		FROM users WHERE username = $1
	`, username)
	var u model.User
	var role string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash, &role, &u.Disabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}

// HasAdmin reports whether any admin account exists.
func (p *Postgres) HasAdmin(ctx context.Context) (bool, error) {
	var ok bool
	err := p.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE role = 'admin')`).Scan(&ok)
	return ok, err
}
