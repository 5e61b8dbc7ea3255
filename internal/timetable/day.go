package timetable

import "strconv"

// Day is a weekday column of the timetable grid. The numeric code is the ISO
// weekday (Monday = 1) and doubles as the grid column index.
type Day uint8

const (
	Monday Day = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// dayNames holds the full name and abbreviation for each day, indexed by code.
var dayNames = [...][2]string{
	Monday:    {"Monday", "Mon"},
	Tuesday:   {"Tuesday", "Tue"},
	Wednesday: {"Wednesday", "Wed"},
	Thursday:  {"Thursday", "Thu"},
	Friday:    {"Friday", "Fri"},
	Saturday:  {"Saturday", "Sat"},
	Sunday:    {"Sunday", "Sun"},
}

var daysBySpelling = func() map[string]Day {
	m := make(map[string]Day, 2*len(dayNames))
	for _, d := range AllDays() {
		for _, s := range d.Spellings() {
			m[s] = d
		}
	}
	return m
}()

// AllDays returns every day in code order.
func AllDays() []Day {
	return []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// DayFromCode converts an ISO weekday number (1-7).
func DayFromCode(code int) (Day, error) {
	if code < int(Monday) || code > int(Sunday) {
		return 0, &ParseError{Field: "day", Value: strconv.Itoa(code)}
	}
	return Day(code), nil
}

// ParseDay accepts a full day name or its three-letter abbreviation.
func ParseDay(s string) (Day, error) {
	d, ok := daysBySpelling[s]
	if !ok {
		return 0, &ParseError{Field: "day", Value: s}
	}
	return d, nil
}

func (d Day) Valid() bool { return d >= Monday && d <= Sunday }

// Code returns the ISO weekday number.
func (d Day) Code() int { return int(d) }

// Spellings lists every accepted spelling, canonical first.
func (d Day) Spellings() []string {
	if !d.Valid() {
		return nil
	}
	return []string{dayNames[d][0], dayNames[d][1]}
}

func (d Day) Short() string {
	if !d.Valid() {
		return "Day(" + strconv.Itoa(int(d)) + ")"
	}
	return dayNames[d][1]
}

func (d Day) String() string {
	if !d.Valid() {
		return "Day(" + strconv.Itoa(int(d)) + ")"
	}
	return dayNames[d][0]
}
