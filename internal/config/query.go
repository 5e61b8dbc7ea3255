package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"seatfinder/internal/timetable"

	"gopkg.in/yaml.v3"
)

// Scalar holds a YAML scalar verbatim, so "day: 1" and "day: Monday" both
// decode.
type Scalar string

func (s *Scalar) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number or string", value.Line)
	}
	*s = Scalar(strings.TrimSpace(value.Value))
	return nil
}

// QueryConfig is one query document.
type QueryConfig struct {
	UnitCode     string  `yaml:"unit_code" json:"unit_code" validate:"required"`
	Semester     Scalar  `yaml:"semester,omitempty" json:"semester,omitempty"`
	Day          Scalar  `yaml:"day" json:"day" validate:"required"`
	ActivityType string  `yaml:"activity_type" json:"activity_type" validate:"required"`
	Activity     *uint64 `yaml:"activity" json:"activity" validate:"required"`
	StartAfter   string  `yaml:"start_after,omitempty" json:"start_after,omitempty"`
	// Start is an alias of StartAfter.
	Start string `yaml:"start,omitempty" json:"start,omitempty"`
}

// Build parses the document into a timetable.Query. Semester defaults to
// the wildcard; day is a number 1-7 or a day name.
func (q QueryConfig) Build() (timetable.Query, error) {
	if q.Activity == nil {
		return timetable.Query{}, &timetable.ParseError{Field: "activity", Err: errors.New("missing")}
	}

	semester := timetable.SemesterAny
	if q.Semester != "" {
		s, err := timetable.ParseSemester(string(q.Semester))
		if err != nil {
			return timetable.Query{}, err
		}
		semester = s
	}

	day, err := parseDay(string(q.Day))
	if err != nil {
		return timetable.Query{}, err
	}

	activityType, err := timetable.ParseActivityType(q.ActivityType)
	if err != nil {
		return timetable.Query{}, err
	}

	var after *timetable.Clock
	if raw := firstNonEmpty(q.StartAfter, q.Start); raw != "" {
		c, err := timetable.ParseClock(raw)
		if err != nil {
			return timetable.Query{}, err
		}
		after = &c
	}

	return timetable.NewQuery(q.UnitCode, semester, day, activityType, *q.Activity, after)
}

func parseDay(s string) (timetable.Day, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return timetable.DayFromCode(n)
	}
	return timetable.ParseDay(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// BuildQueries builds every query, reporting each malformed one by position.
func (c *Config) BuildQueries() ([]timetable.Query, error) {
	queries := make([]timetable.Query, 0, len(c.Queries))
	var errs []error
	for i, qc := range c.Queries {
		q, err := qc.Build()
		if err != nil {
			errs = append(errs, fmt.Errorf("queries[%d] (%s): %w", i, qc.UnitCode, err))
			continue
		}
		queries = append(queries, q)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return queries, nil
}
