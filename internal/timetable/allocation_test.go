package timetable

import (
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeRecord() RawRecord {
	return RawRecord{
		FieldActivityType: "Lab",
		FieldGroup:        "CC",
		FieldActivity:     "3",
		FieldDescription:  "Computer lab",
		FieldDay:          "Mon",
		FieldTime:         "14:00",
		FieldSemester:     "Semester 1",
		FieldCampus:       "Camperdown/Darlington",
		FieldLocation:     "J12.01.114",
		FieldDuration:     "2 hrs",
		FieldWeeks:        "2-13",
		FieldSeats:        "12",
	}
}

func TestProjectAllocation(t *testing.T) {
	got, err := ProjectAllocation(completeRecord())
	require.NoError(t, err)

	want := &Allocation{
		ActivityType: Lab,
		Group:        "CC",
		Activity:     3,
		Description:  "Computer lab",
		Day:          Monday,
		Time:         Clock{14, 0},
		Semester:     SemesterOne,
		Campus:       "Camperdown/Darlington",
		Location:     "J12.01.114",
		Duration:     "2 hrs",
		Weeks:        "2-13",
		Seats:        12,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("allocation mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectAllocation_SizeMismatch(t *testing.T) {
	short := completeRecord()
	delete(short, FieldWeeks)

	long := completeRecord()
	long["Notes"] = "extra"

	for _, rec := range []RawRecord{short, long} {
		_, err := ProjectAllocation(rec)
		var tableErr *TableError
		require.True(t, errors.As(err, &tableErr), "got %v", err)
		assert.Equal(t, SchemaSize, tableErr.Expected)
		assert.Equal(t, rec.Len(), tableErr.Actual)
		assert.Empty(t, tableErr.Key)
	}
}

func TestProjectAllocation_MissingKey(t *testing.T) {
	rec := completeRecord()
	delete(rec, FieldSeats)
	rec["Seats left"] = "4"

	_, err := ProjectAllocation(rec)
	var tableErr *TableError
	require.True(t, errors.As(err, &tableErr))
	assert.Equal(t, FieldSeats, tableErr.Key)
}

func TestProjectAllocation_MalformedFields(t *testing.T) {
	tests := []struct {
		field string
		value string
	}{
		{FieldActivityType, "lab"},
		{FieldActivity, "three"},
		{FieldActivity, "-3"},
		{FieldDay, "Mondays"},
		{FieldTime, "25:00"},
		{FieldSemester, "Semester 4"},
		{FieldSeats, "70000"},
		{FieldSeats, ""},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s=%q", tt.field, tt.value), func(t *testing.T) {
			rec := completeRecord()
			rec[tt.field] = tt.value
			a, err := ProjectAllocation(rec)
			assert.Nil(t, a)
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestProjectAllocation_NumericParseCause(t *testing.T) {
	rec := completeRecord()
	rec[FieldSeats] = "lots"
	_, err := ProjectAllocation(rec)
	var numErr *strconv.NumError
	assert.True(t, errors.As(err, &numErr))
}

func TestRawRecord_PutIsIdempotent(t *testing.T) {
	rec := RawRecord{}
	for _, k := range SchemaFields[:6] {
		rec.Put(k, completeRecord()[k])
	}
	// A retried read replays the first rows before continuing.
	for _, k := range SchemaFields {
		rec.Put(k, completeRecord()[k])
	}

	assert.True(t, rec.Complete())
	if diff := cmp.Diff(completeRecord(), rec); diff != "" {
		t.Fatalf("record changed after replay (-want +got):\n%s", diff)
	}
}

func TestQuery(t *testing.T) {
	after := Clock{12, 0}
	q, err := NewQuery("COMP1234", SemesterAny, Monday, Lab, 3, &after)
	require.NoError(t, err)

	assert.Equal(t, "COMP1234", q.UnitCode())
	got, ok := q.StartAfter()
	require.True(t, ok)
	assert.Equal(t, after, got)

	// Mutating the caller's value must not leak into the query.
	after.Hour = 1
	got, _ = q.StartAfter()
	assert.Equal(t, uint8(12), got.Hour)

	_, err = NewQuery("COMP12", SemesterAny, Monday, Lab, 3, nil)
	assert.ErrorIs(t, err, ErrParse)
	_, err = NewQuery("COMP1234", SemesterAny, Day(9), Lab, 3, nil)
	assert.ErrorIs(t, err, ErrParse)
	_, err = NewQuery("COMP1234", Semester(5), Monday, Lab, 3, nil)
	assert.ErrorIs(t, err, ErrParse)
	_, err = NewQuery("COMP1234", SemesterAny, Monday, ActivityType(0), 3, nil)
	assert.ErrorIs(t, err, ErrParse)
}

func TestQuery_Accepts(t *testing.T) {
	noon := Clock{12, 0}
	q, err := NewQuery("COMP1234", SemesterAny, Monday, Lab, 3, &noon)
	require.NoError(t, err)

	a, err := ProjectAllocation(completeRecord())
	require.NoError(t, err)
	assert.True(t, q.Accepts(a))

	early := *a
	early.Time = Clock{9, 0}
	assert.False(t, q.Accepts(&early))

	full := *a
	full.Seats = 0
	assert.False(t, q.Accepts(&full))
	assert.False(t, q.Accepts(nil))
}
