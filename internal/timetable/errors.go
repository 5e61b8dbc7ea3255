package timetable

import (
	"errors"
	"fmt"
)

// Sentinel categories. Every typed error below reports itself as one of these
// through errors.Is, so callers can branch on the category without caring
// about the concrete type.
var (
	ErrParse    = errors.New("parse error")
	ErrTable    = errors.New("table error")
	ErrOffering = errors.New("offering error")
)

// ParseError reports a malformed field value, a failed pattern match or a
// malformed configuration value.
type ParseError struct {
	Field string // logical field, e.g. "day" or "offering label"
	Value string // offending input
	Err   error  // underlying cause (strconv error, etc), may be nil
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("parse %s: %q is not recognised", e.Field, e.Value)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// TableError reports a record of the wrong size or one that lacks a
// required key. Key is empty for size mismatches.
type TableError struct {
	Expected int
	Actual   int
	Key      string
}

func (e *TableError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("allocation table is missing row %q", e.Key)
	}
	return fmt.Sprintf("allocation table has %d distinct rows, expected %d", e.Actual, e.Expected)
}

func (e *TableError) Is(target error) bool { return target == ErrTable }

// OfferingReason classifies an OfferingError.
type OfferingReason int

const (
	ReasonNoOfferings OfferingReason = iota + 1
	ReasonNoValidOffering
	ReasonSemesterFormat
	ReasonSemesterMismatch
)

// OfferingError reports why no scheduling variant of a unit could be used.
type OfferingError struct {
	Reason   OfferingReason
	Unit     string
	Label    string
	Expected Semester
	Actual   Semester
}

func (e *OfferingError) Error() string {
	switch e.Reason {
	case ReasonNoOfferings:
		return fmt.Sprintf("no sessions found for %q", e.Unit)
	case ReasonSemesterFormat:
		return fmt.Sprintf("offering %q of %q has no recognisable semester", e.Label, e.Unit)
	case ReasonSemesterMismatch:
		return fmt.Sprintf("expected semester %s, found semester %s in %q", e.Expected, e.Actual, e.Label)
	default:
		return fmt.Sprintf("no valid sessions found for %q", e.Unit)
	}
}

func (e *OfferingError) Is(target error) bool { return target == ErrOffering }
