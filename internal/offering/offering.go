// Package offering picks which scheduling variant of a unit to activate.
//
// The timetable lists a unit's variants as labels such as "COMP1234-S1C-ND-CC".
// The leading unit code must match the query; the session token that follows
// carries the semester ("S1", "S2C", ...) or the label spells it out as
// "Semester N". Everything here is pure: no document access, no logging.
package offering

import (
	"errors"
	"regexp"
	"strings"

	"seatfinder/internal/timetable"
)

var (
	labelPattern       = regexp.MustCompile(`^([A-Za-z]{4}\d{4})-(\w+)(.*)$`)
	semesterKeyPattern = regexp.MustCompile(`Semester (\d+)`)
)

// Label is a parsed offering label.
type Label struct {
	Raw      string
	UnitCode string
	Session  string
	Semester timetable.Semester
}

// ParseLabel splits a label into unit code and session token and extracts
// its semester. A label without the unit/session shape is a ParseError; one
// without a recognisable semester is an OfferingError with
// ReasonSemesterFormat.
func ParseLabel(raw string) (Label, error) {
	l, err := splitLabel(raw)
	if err != nil {
		return Label{}, err
	}
	sem, ok := semesterIndicator(l.Session, raw)
	if !ok {
		return l, &timetable.OfferingError{Reason: timetable.ReasonSemesterFormat, Unit: l.UnitCode, Label: raw}
	}
	l.Semester = sem
	return l, nil
}

func splitLabel(raw string) (Label, error) {
	m := labelPattern.FindStringSubmatch(raw)
	if m == nil {
		return Label{}, &timetable.ParseError{Field: "offering label", Value: raw}
	}
	return Label{Raw: raw, UnitCode: m[1], Session: m[2]}, nil
}

// semesterIndicator reads a leading "S<digit>" from the session token, or a
// "Semester N" phrase anywhere in the label. A label names semester 1 or 2,
// never the wildcard.
func semesterIndicator(session, raw string) (timetable.Semester, bool) {
	if len(session) >= 2 && session[0] == 'S' && session[1] >= '0' && session[1] <= '9' {
		return labelSemester(string(session[1]))
	}
	m := semesterKeyPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	return labelSemester(m[1])
}

func labelSemester(digits string) (timetable.Semester, bool) {
	switch digits {
	case "1":
		return timetable.SemesterOne, true
	case "2":
		return timetable.SemesterTwo, true
	default:
		return 0, false
	}
}

// ValidateLabel checks a single candidate against the query: shape, then
// unit code, then semester.
func ValidateLabel(q timetable.Query, raw string) error {
	raw = strings.TrimSpace(raw)
	l, err := ParseLabel(raw)
	var malformed *timetable.ParseError
	if errors.As(err, &malformed) {
		return err
	}
	if l.UnitCode != q.UnitCode() {
		return &timetable.OfferingError{Reason: timetable.ReasonNoValidOffering, Unit: q.UnitCode(), Label: raw}
	}
	if err != nil {
		return err
	}
	if !l.Semester.Matches(q.Semester()) {
		return &timetable.OfferingError{
			Reason:   timetable.ReasonSemesterMismatch,
			Unit:     q.UnitCode(),
			Label:    raw,
			Expected: q.Semester(),
			Actual:   l.Semester,
		}
	}
	return nil
}

// Select returns the index of the offering to activate. With a single
// candidate its validation error is returned as is; with several, the first
// candidate in display order that validates wins.
func Select(q timetable.Query, labels []string) (int, error) {
	switch len(labels) {
	case 0:
		return -1, &timetable.OfferingError{Reason: timetable.ReasonNoOfferings, Unit: q.UnitCode()}
	case 1:
		if err := ValidateLabel(q, labels[0]); err != nil {
			return -1, err
		}
		return 0, nil
	}

	for i, raw := range labels {
		if ValidateLabel(q, raw) == nil {
			return i, nil
		}
	}
	return -1, &timetable.OfferingError{Reason: timetable.ReasonNoValidOffering, Unit: q.UnitCode()}
}
