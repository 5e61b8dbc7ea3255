package timetable

import (
	"strconv"
	"strings"
)

// Semester identifies a teaching period. SemesterAny is the wildcard: it
// matches every concrete semester in Matches but is otherwise a distinct
// value.
type Semester uint8

const (
	SemesterAny Semester = iota
	SemesterOne
	SemesterTwo
)

const semesterKeyPrefix = "Semester "

// SemesterFromCode converts the numeric form (0 = Any, 1, 2).
func SemesterFromCode(code int) (Semester, error) {
	if code < int(SemesterAny) || code > int(SemesterTwo) {
		return 0, &ParseError{Field: "semester", Value: strconv.Itoa(code)}
	}
	return Semester(code), nil
}

// ParseSemester accepts "0", "1", "2", "Semester N" or "Any".
func ParseSemester(s string) (Semester, error) {
	if s == "Any" {
		return SemesterAny, nil
	}
	digits := s
	if rest, ok := strings.CutPrefix(s, semesterKeyPrefix); ok {
		digits = rest
	}
	n, err := strconv.ParseUint(digits, 10, 8)
	if err != nil {
		return 0, &ParseError{Field: "semester", Value: s}
	}
	sem, err := SemesterFromCode(int(n))
	if err != nil {
		return 0, &ParseError{Field: "semester", Value: s}
	}
	return sem, nil
}

// Matches reports whether two semesters are compatible: equal, or either one
// is the wildcard.
func (s Semester) Matches(other Semester) bool {
	return s == other || s == SemesterAny || other == SemesterAny
}

func (s Semester) Valid() bool { return s <= SemesterTwo }

func (s Semester) Code() int { return int(s) }

// Spellings lists every accepted spelling, canonical first.
func (s Semester) Spellings() []string {
	switch s {
	case SemesterAny:
		return []string{"Any", "0", "Semester 0"}
	case SemesterOne:
		return []string{"Semester 1", "1"}
	case SemesterTwo:
		return []string{"Semester 2", "2"}
	}
	return nil
}

func (s Semester) String() string {
	if !s.Valid() {
		return "Semester(" + strconv.Itoa(int(s)) + ")"
	}
	return s.Spellings()[0]
}
