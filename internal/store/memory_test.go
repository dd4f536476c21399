package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance-portal/internal/config"
	"attendance-portal/internal/model"
)

func TestMemoryStudents(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.InsertStudent(ctx, model.Student{SNo: 2, RollNumber: "R2", Branch: "CSE", Year: 1}))
	require.NoError(t, m.InsertStudent(ctx, model.Student{SNo: 1, RollNumber: "R1", Branch: "CSE", Year: 1}))
	require.NoError(t, m.InsertStudent(ctx, model.Student{SNo: 3, RollNumber: "R3", Branch: "ECE", Year: 1}))
	assert.ErrorIs(t, m.InsertStudent(ctx, model.Student{RollNumber: "R1"}), model.ErrDuplicate)

	got, err := m.FindStudents(ctx, model.Filter{Branch: "CSE"}, model.Page{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "R1", got[0].RollNumber)
	assert.NotEmpty(t, got[0].ID)

	got, err = m.FindStudents(ctx, model.Filter{}, model.Page{Limit: 1, Offset: 2})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "R3", got[0].RollNumber)

	got, err = m.FindStudents(ctx, model.Filter{}, model.Page{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, got)

	n, err := m.CountStudents(ctx, model.Filter{Year: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestMemoryUpsertAttendance(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	d1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, m.UpsertAttendance(ctx, []model.Upsert{
		{RollNumber: "R1", Date: d1, Branch: "CSE", Year: 2, Status: model.StatusPresent, MarkedBy: "u1", At: t0},
		{RollNumber: "R2", Date: d1, Branch: "CSE", Year: 2, Status: model.StatusAbsent, MarkedBy: "u1", At: t0},
		{RollNumber: "R1", Date: d2, Branch: "CSE", Year: 2, Status: model.StatusPresent, MarkedBy: "u1", At: t0},
	}))
	t1 := t0.Add(time.Hour)
	require.NoError(t, m.UpsertAttendance(ctx, []model.Upsert{
		{RollNumber: "R2", Date: d1, Branch: "CSE", Year: 2, Status: model.StatusPresent, MarkedBy: "u2", At: t1},
	}))

	all, err := m.FindAttendance(ctx, model.Filter{}, model.Page{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Date.Equal(d2), "newest date first")

	onDay, err := m.FindAttendance(ctx, model.Filter{Date: &d1}, model.Page{})
	require.NoError(t, err)
	require.Len(t, onDay, 2)
	r2 := onDay[1]
	assert.Equal(t, "R2", r2.StudentRollNumber)
	assert.Equal(t, model.StatusPresent, r2.Status)
	assert.Equal(t, "u2", r2.MarkedBy)
	assert.Equal(t, t0, r2.CreatedAt)
	assert.Equal(t, t1, r2.UpdatedAt)

	counts, err := m.CountAttendanceByStatus(ctx, model.Filter{Date: &d1})
	require.NoError(t, err)
	assert.Equal(t, map[model.Status]int64{model.StatusPresent: 2}, counts)
}

func TestMemoryUpsertCanceled(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.UpsertAttendance(ctx, []model.Upsert{{RollNumber: "R1", Date: time.Now()}})
	assert.ErrorIs(t, err, context.Canceled)
	all, _ := m.FindAttendance(context.Background(), model.Filter{}, model.Page{})
	assert.Empty(t, all)
}

func TestMemoryUsers(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	has, err := m.HasAdmin(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	u, err := m.InsertUser(ctx, model.User{Username: "root", Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	_, err = m.InsertUser(ctx, model.User{Username: "root"})
	assert.ErrorIs(t, err, model.ErrDuplicate)

	has, err = m.HasAdmin(ctx)
	require.NoError(t, err)
	assert.True(t, has)

	missing, err := m.FindUserByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.True(t, m.SetDisabled("root", true))
	assert.False(t, m.SetDisabled("nobody", true))
	found, err := m.FindUserByUsername(ctx, "root")
	require.NoError(t, err)
	assert.True(t, found.Disabled)
}

func TestOpenMemory(t *testing.T) {
	b, err := Open(context.Background(), config.App{StoreBackend: config.BackendMemory})
	require.NoError(t, err)
	assert.NoError(t, b.Ping(context.Background()))
	assert.NoError(t, b.Close(context.Background()))

	_, err = Open(context.Background(), config.App{StoreBackend: "sqlite"})
	assert.Error(t, err)
}
