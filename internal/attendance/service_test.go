package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance-portal/internal/apperr"
	"attendance-portal/internal/model"
)

var teacher = model.Identity{ID: "u-1", Username: "teacher1", Role: model.RoleTeacher}

func TestEffective(t *testing.T) {
	b, y := Effective(Mark{}, "CSE", 2)
	assert.Equal(t, "CSE", b)
	assert.Equal(t, 2, y)

	b, y = Effective(Mark{Branch: "ECE", Year: 3}, "CSE", 2)
	assert.Equal(t, "ECE", b)
	assert.Equal(t, 3, y)

	b, y = Effective(Mark{Branch: "ECE"}, "CSE", 2)
	assert.Equal(t, "ECE", b)
	assert.Equal(t, 2, y)
}

func TestPlan(t *testing.T) {
	svc := NewService(newMemStore(), DateExact)
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	date, ops, err := svc.Plan(Submission{
		Date:   "2024-03-01T08:30:00Z",
		Branch: "CSE",
		Year:   2,
		AttendanceData: []Mark{
			{StudentRollNumber: " R1 ", Status: "present"},
			{StudentRollNumber: "R2", Status: "Absent", Branch: "ECE", Year: 3},
		},
	}, teacher, at)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC), date.UTC())
	require.Len(t, ops, 2)

	assert.Equal(t, model.Upsert{
		RollNumber: "R1", Date: date, Branch: "CSE", Year: 2,
		Status: model.StatusPresent, MarkedBy: "u-1", At: at,
	}, ops[0])
	assert.Equal(t, "ECE", ops[1].Branch)
	assert.Equal(t, 3, ops[1].Year)
	assert.Equal(t, model.StatusAbsent, ops[1].Status)
}

func TestPlanRejects(t *testing.T) {
	svc := NewService(newMemStore(), DateExact)
	cases := map[string]Submission{
		"bad date":   {Date: "yesterday"},
		"bad status": {Date: "2024-03-01", AttendanceData: []Mark{{StudentRollNumber: "R1", Status: "Late"}}},
		"empty roll": {Date: "2024-03-01", AttendanceData: []Mark{{StudentRollNumber: "  ", Status: "Present"}}},
	}
	for name, sub := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := svc.Plan(sub, teacher, time.Now())
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestMarkIsIdempotent(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, DateExact)
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = clock(start, time.Minute)
	ctx := context.Background()

	sub := Submission{
		Date: "2024-03-01T00:00:00Z", Branch: "CSE", Year: 2,
		AttendanceData: []Mark{{StudentRollNumber: "R1", Status: "Present"}},
	}
	res, err := svc.Mark(ctx, sub, teacher)
	require.NoError(t, err)
	assert.Equal(t, 1, res.MarkedCount)
	assert.Equal(t, "Attendance marked successfully", res.Message)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	first, ok := store.get("R1", day)
	require.True(t, ok)

	_, err = svc.Mark(ctx, sub, teacher)
	require.NoError(t, err)
	assert.Len(t, store.records, 1)

	second, _ := store.get("R1", day)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, start, first.UpdatedAt)
	assert.Equal(t, start.Add(time.Minute), second.UpdatedAt)
	assert.Equal(t, first.Status, second.Status)
}

func TestMarkLastWriteWins(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, DateExact)
	ctx := context.Background()

	_, err := svc.Mark(ctx, Submission{Date: "2024-03-01", AttendanceData: []Mark{{StudentRollNumber: "R1", Status: "Present"}}}, teacher)
	require.NoError(t, err)
	other := model.Identity{ID: "u-2", Role: model.RoleAdmin}
	_, err = svc.Mark(ctx, Submission{Date: "2024-03-01", AttendanceData: []Mark{{StudentRollNumber: "R1", Status: "Absent"}}}, other)
	require.NoError(t, err)

	rec, ok := store.get("R1", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, model.StatusAbsent, rec.Status)
	assert.Equal(t, "u-2", rec.MarkedBy)
}

func TestMarkEmptyBatch(t *testing.T) {
	store := newMemStore()
	res, err := NewService(store, DateExact).Mark(context.Background(), Submission{Date: "2024-03-01"}, teacher)
	require.NoError(t, err)
	assert.Zero(t, res.MarkedCount)
	assert.Zero(t, store.batches)
}

func TestMarkInvalidWritesNothing(t *testing.T) {
	store := newMemStore()
	_, err := NewService(store, DateExact).Mark(context.Background(), Submission{
		Date: "2024-03-01",
		AttendanceData: []Mark{
			{StudentRollNumber: "R1", Status: "Present"},
			{StudentRollNumber: "R2", Status: "Excused"},
		},
	}, teacher)
	require.Error(t, err)
	assert.Empty(t, store.records)
}

func TestMarkStoreFailure(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("connection reset")
	_, err := NewService(store, DateExact).Mark(context.Background(), Submission{
		Date:           "2024-03-01",
		AttendanceData: []Mark{{StudentRollNumber: "R1", Status: "Present"}},
	}, teacher)
	assert.EqualError(t, err, "connection reset")
}

func TestMarkDayKeyMergesTimestamps(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, DateDay)
	ctx := context.Background()

	for _, d := range []string{"2024-03-01T08:00:00", "2024-03-01T17:45:00"} {
		_, err := svc.Mark(ctx, Submission{Date: d, AttendanceData: []Mark{{StudentRollNumber: "R1", Status: "Present"}}}, teacher)
		require.NoError(t, err)
	}
	assert.Len(t, store.records, 1)
}
