package timetable

import (
	"fmt"
	"strconv"
)

// Allocation is a resolved timetable record for one scheduled activity
// session, including its remaining seat count.
type Allocation struct {
	ActivityType ActivityType
	Group        string
	Activity     uint64
	Description  string

	Day  Day
	Time Clock

	Semester Semester
	Campus   string
	Location string

	Duration string
	Weeks    string
	Seats    uint16
}

// ProjectAllocation converts a complete RawRecord into an Allocation. Any
// size mismatch, missing key or malformed value fails the whole projection.
func ProjectAllocation(rec RawRecord) (*Allocation, error) {
	if !rec.Complete() {
		return nil, &TableError{Expected: SchemaSize, Actual: rec.Len()}
	}

	var (
		a   Allocation
		raw string
		err error
	)

	if raw, err = rec.get(FieldActivityType); err != nil {
		return nil, err
	}
	if a.ActivityType, err = ParseActivityType(raw); err != nil {
		return nil, err
	}

	if a.Group, err = rec.get(FieldGroup); err != nil {
		return nil, err
	}

	if raw, err = rec.get(FieldActivity); err != nil {
		return nil, err
	}
	if a.Activity, err = strconv.ParseUint(raw, 10, 64); err != nil {
		return nil, &ParseError{Field: "activity", Value: raw, Err: err}
	}

	if a.Description, err = rec.get(FieldDescription); err != nil {
		return nil, err
	}

	if raw, err = rec.get(FieldDay); err != nil {
		return nil, err
	}
	if a.Day, err = ParseDay(raw); err != nil {
		return nil, err
	}

	if raw, err = rec.get(FieldTime); err != nil {
		return nil, err
	}
	if a.Time, err = ParseClock(raw); err != nil {
		return nil, err
	}

	if raw, err = rec.get(FieldSemester); err != nil {
		return nil, err
	}
	if a.Semester, err = ParseSemester(raw); err != nil {
		return nil, err
	}

	if a.Campus, err = rec.get(FieldCampus); err != nil {
		return nil, err
	}
	if a.Location, err = rec.get(FieldLocation); err != nil {
		return nil, err
	}
	if a.Duration, err = rec.get(FieldDuration); err != nil {
		return nil, err
	}
	if a.Weeks, err = rec.get(FieldWeeks); err != nil {
		return nil, err
	}

	if raw, err = rec.get(FieldSeats); err != nil {
		return nil, err
	}
	seats, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return nil, &ParseError{Field: "seats", Value: raw, Err: err}
	}
	a.Seats = uint16(seats)

	return &a, nil
}

func (a *Allocation) String() string {
	return fmt.Sprintf("%s %d (%s) %s %s at %s, %d seats",
		a.ActivityType, a.Activity, a.Group, a.Day.Short(), a.Time, a.Location, a.Seats)
}
