package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDuplicate is returned by stores when an insert hits a unique key.
var ErrDuplicate = errors.New("duplicate key")

// Status is the attendance state recorded for a student on a date.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

// ParseStatus accepts the canonical spelling case-insensitively.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "present":
		return StatusPresent, nil
	case "absent":
		return StatusAbsent, nil
	}
	return "", fmt.Errorf("invalid status %q: want Present or Absent", s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent:
		return true
	}
	return false
}

// Role is the authorization level of a user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
)

// ParseRole maps a role name onto the closed set; empty means teacher.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "teacher":
		return RoleTeacher, nil
	case "admin":
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("invalid role %q: want admin or teacher", s)
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher:
		return true
	}
	return false
}

// Student is one roster entry. RollNumber is the natural key.
type Student struct {
	ID         string  `json:"_id,omitempty"`
	SNo        int     `json:"s_no"`
	RollNumber string  `json:"roll_number"`
	Name       string  `json:"name"`
	Branch     string  `json:"branch"`
	Year       int     `json:"year"`
	Contact    *string `json:"contact"`
}

// AttendanceRecord is keyed by (StudentRollNumber, Date).
type AttendanceRecord struct {
	ID                string    `json:"_id,omitempty"`
	Date              time.Time `json:"date"`
	Branch            string    `json:"branch"`
	Year              int       `json:"year"`
	StudentRollNumber string    `json:"student_roll_number"`
	Status            Status    `json:"status"`
	MarkedBy          string    `json:"marked_by"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// User is an account able to sign in.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	Disabled     bool   `json:"disabled"`
}

// Identity is the authenticated caller as seen by the core.
type Identity struct {
	ID       string
	Username string
	Role     Role
}

// Filter narrows attendance and roster queries. Zero values mean "any".
type Filter struct {
	Date   *time.Time
	Branch string
	Year   int
}

// Page bounds a find. Offset is the number of matching rows to skip.
type Page struct {
	Limit  int
	Offset int
}

// Clamp bounds a page to max rows; a zero limit means max.
func (p Page) Clamp(max int) Page {
	if p.Limit <= 0 || p.Limit > max {
		p.Limit = max
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Within clamps the page and trims it to the first max rows overall. It
// reports false when the page starts at or past max.
func (p Page) Within(max int) (Page, bool) {
	p = p.Clamp(max)
	if p.Offset >= max {
		return p, false
	}
	if p.Offset+p.Limit > max {
		p.Limit = max - p.Offset
	}
	return p, true
}

// Upsert is one (roll number, date) keyed write produced by the reconciler.
type Upsert struct {
	RollNumber string
	Date       time.Time
	Branch     string
	Year       int
	Status     Status
	MarkedBy   string
	At         time.Time
}
