// Package timetable holds the domain model of the seat finder: the query a
// user asks, the raw key/value record scraped from an activity's detail
// table, and the typed Allocation projected from it.
package timetable

import (
	"fmt"
	"regexp"
)

var unitCodePattern = regexp.MustCompile(`^[A-Za-z]{4}\d{4}$`)

// ValidUnitCode reports whether s looks like a unit code (four letters, four
// digits).
func ValidUnitCode(s string) bool { return unitCodePattern.MatchString(s) }

// Query is one resolution request. Build it with NewQuery; the zero value is
// not a valid query.
type Query struct {
	unitCode     string
	semester     Semester
	day          Day
	activityType ActivityType
	activity     uint64
	startAfter   *Clock
}

// NewQuery validates and assembles a query. startAfter may be nil.
func NewQuery(unitCode string, semester Semester, day Day, activityType ActivityType, activity uint64, startAfter *Clock) (Query, error) {
	if !ValidUnitCode(unitCode) {
		return Query{}, &ParseError{Field: "unit code", Value: unitCode}
	}
	if !semester.Valid() {
		return Query{}, &ParseError{Field: "semester", Value: semester.String()}
	}
	if !day.Valid() {
		return Query{}, &ParseError{Field: "day", Value: day.String()}
	}
	if !activityType.Valid() {
		return Query{}, &ParseError{Field: "activity type", Value: activityType.String()}
	}
	q := Query{
		unitCode:     unitCode,
		semester:     semester,
		day:          day,
		activityType: activityType,
		activity:     activity,
	}
	if startAfter != nil {
		c := *startAfter
		q.startAfter = &c
	}
	return q, nil
}

func (q Query) UnitCode() string { return q.unitCode }
func (q Query) Semester() Semester { return q.semester }
func (q Query) Day() Day { return q.day }
func (q Query) ActivityType() ActivityType { return q.activityType }
func (q Query) Activity() uint64 { return q.activity }

// StartAfter returns the earliest-start filter, if any.
func (q Query) StartAfter() (Clock, bool) {
	if q.startAfter == nil {
		return Clock{}, false
	}
	return *q.startAfter, true
}

// Accepts reports whether a matched allocation satisfies the query's
// remaining filters: available seats and, when set, the earliest start.
func (q Query) Accepts(a *Allocation) bool {
	if a == nil || a.Seats == 0 {
		return false
	}
	if after, ok := q.StartAfter(); ok && a.Time.Before(after) {
		return false
	}
	return true
}

func (q Query) String() string {
	s := fmt.Sprintf("%s %s %s %d (%s)", q.unitCode, q.activityType, q.day, q.activity, q.semester)
	if after, ok := q.StartAfter(); ok {
		s += " after " + after.String()
	}
	return s
}
