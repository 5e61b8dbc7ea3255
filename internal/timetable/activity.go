package timetable

import "strconv"

// ActivityType is the closed set of activity labels the timetable shows in
// its "Activity Type" row.
type ActivityType uint8

const (
	Assessment ActivityType = iota + 1
	CompulsoryLecture
	Fieldwork
	Film
	Lab
	Lecture
	Online
	OnlineLive
	Optional
	Other
	Practical
	Presentation
	Seminar
	Studio
	Tutorial
	Workshop
)

// activityLabels maps each type to its accepted labels, canonical first.
// Matching is exact: labels are case and phrase sensitive.
var activityLabels = [...][]string{
	Assessment:        {"Assessment", "Assesment"},
	CompulsoryLecture: {"Compulsory Lecture"},
	Fieldwork:         {"Fieldwork"},
	Film:              {"Film"},
	Lab:               {"Lab"},
	Lecture:           {"Lecture"},
	Online:            {"Online"},
	OnlineLive:        {"Online (live)"},
	Optional:          {"Optional"},
	Other:             {"Other"},
	Practical:         {"Practical"},
	Presentation:      {"Presentation"},
	Seminar:           {"Seminar"},
	Studio:            {"Studio"},
	Tutorial:          {"Tutorial"},
	Workshop:          {"Workshop"},
}

var activityByLabel = func() map[string]ActivityType {
	m := make(map[string]ActivityType)
	for _, a := range AllActivityTypes() {
		for _, label := range a.Spellings() {
			m[label] = a
		}
	}
	return m
}()

// AllActivityTypes returns every activity type in code order.
func AllActivityTypes() []ActivityType {
	all := make([]ActivityType, 0, len(activityLabels)-1)
	for a := Assessment; a <= Workshop; a++ {
		all = append(all, a)
	}
	return all
}

// ParseActivityType matches a label exactly.
func ParseActivityType(s string) (ActivityType, error) {
	a, ok := activityByLabel[s]
	if !ok {
		return 0, &ParseError{Field: "activity type", Value: s}
	}
	return a, nil
}

func (a ActivityType) Valid() bool { return a >= Assessment && a <= Workshop }

func (a ActivityType) Code() int { return int(a) }

func (a ActivityType) Spellings() []string {
	if !a.Valid() {
		return nil
	}
	return append([]string(nil), activityLabels[a]...)
}

// FilterLabel is the label the timetable uses for the activity type's filter
// checkbox.
func (a ActivityType) FilterLabel() string {
	return a.String()
}

func (a ActivityType) String() string {
	if !a.Valid() {
		return "ActivityType(" + strconv.Itoa(int(a)) + ")"
	}
	return activityLabels[a][0]
}
