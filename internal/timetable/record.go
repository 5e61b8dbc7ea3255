package timetable

import "sort"

// SchemaSize is the number of distinct rows an activity's detail table has.
const SchemaSize = 12

// Field names of the activity detail table, as displayed.
const (
	FieldActivityType = "Activity Type"
	FieldGroup        = "Group"
	FieldActivity     = "Activity"
	FieldDescription  = "Description"
	FieldDay          = "Day"
	FieldTime         = "Time"
	FieldSemester     = "Semester"
	FieldCampus       = "Campus"
	FieldLocation     = "Location"
	FieldDuration     = "Duration"
	FieldWeeks        = "Weeks"
	FieldSeats        = "Seats"
)

// SchemaFields lists the required keys in display order.
var SchemaFields = [SchemaSize]string{
	FieldActivityType, FieldGroup, FieldActivity, FieldDescription,
	FieldDay, FieldTime, FieldSemester, FieldCampus,
	FieldLocation, FieldDuration, FieldWeeks, FieldSeats,
}

// RawRecord is the unordered key/value extraction of an activity detail
// table before projection.
type RawRecord map[string]string

// Put inserts or overwrites key. Re-inserting a key seen earlier (as happens
// when a table read is retried) leaves the record's size unchanged.
func (r RawRecord) Put(key, value string) {
	r[key] = value
}

func (r RawRecord) Len() int { return len(r) }

// Complete reports whether the record holds exactly SchemaSize keys.
func (r RawRecord) Complete() bool { return len(r) == SchemaSize }

// Keys returns the record's keys sorted, for logs and diagnostics.
func (r RawRecord) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r RawRecord) get(key string) (string, error) {
	v, ok := r[key]
	if !ok {
		return "", &TableError{Expected: SchemaSize, Actual: len(r), Key: key}
	}
	return v, nil
}
