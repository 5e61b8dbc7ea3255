package search

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"seatfinder/internal/surface"
	"seatfinder/internal/surface/surfacetest"
	"seatfinder/internal/timetable"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testLocators = GridLocators{
	Slot:       `//*[@id="grid"]/div[{day}]/*[{row}]`,
	DetailRows: `//*[@id="details"]/tbody/*`,
	Back:       `//*[@id="details"]/button`,
}

type detail struct {
	activity int
	seats    int
	time     string
}

// table renders a complete 12-row detail table.
func (d detail) table() []*surfacetest.Element {
	tm := d.time
	if tm == "" {
		tm = "09:00"
	}
	return surfacetest.Rows(
		timetable.FieldActivityType, "Lab",
		timetable.FieldGroup, "A",
		timetable.FieldActivity, strconv.Itoa(d.activity),
		timetable.FieldDescription, "Computer Lab",
		timetable.FieldDay, "Mon",
		timetable.FieldTime, tm,
		timetable.FieldSemester, "1",
		timetable.FieldCampus, "Camperdown/Darlington",
		timetable.FieldLocation, "SNH Learning Studio 2003",
		timetable.FieldDuration, "2 hrs",
		timetable.FieldWeeks, "1-13",
		timetable.FieldSeats, strconv.Itoa(d.seats),
	)
}

// halfRendered is d's table with row i missing its value cell.
func (d detail) halfRendered(i int) []*surfacetest.Element {
	rows := d.table()
	rows[i] = surfacetest.HalfRenderedRow(timetable.SchemaFields[i])
	return rows
}

func surfaceRows(rows []*surfacetest.Element) []surface.Element {
	out := make([]surface.Element, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

// scriptedSource returns reads[n] after n reloads; the last read repeats.
type scriptedSource struct {
	reads     [][]*surfacetest.Element
	reloads   int
	reloadErr error
}

func (s *scriptedSource) Rows(ctx context.Context) ([]surface.Element, error) {
	n := s.reloads
	if n >= len(s.reads) {
		n = len(s.reads) - 1
	}
	return surfaceRows(s.reads[n]), nil
}

func (s *scriptedSource) Reload(ctx context.Context) error {
	s.reloads++
	return s.reloadErr
}

func query(t *testing.T, activity uint64, after *timetable.Clock) timetable.Query {
	t.Helper()
	q, err := timetable.NewQuery("COMP1234", timetable.SemesterAny, timetable.Monday, timetable.Lab, activity, after)
	require.NoError(t, err)
	return q
}

// =============================================================================
// EXTRACTOR
// =============================================================================

func TestExtract_Complete(t *testing.T) {
	src := &scriptedSource{reads: [][]*surfacetest.Element{detail{activity: 3, seats: 12}.table()}}

	rec, err := NewExtractor(DefaultRetryPolicy()).Extract(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, timetable.SchemaSize, rec.Len())
	assert.Equal(t, "3", rec[timetable.FieldActivity])
	assert.Equal(t, 0, src.reloads)
}

// A transient malformed read followed by a good one yields the full record.
func TestExtract_RecoversFromTransientRead(t *testing.T) {
	d := detail{activity: 3, seats: 12}
	src := &scriptedSource{reads: [][]*surfacetest.Element{d.halfRendered(4), d.table()}}

	rec, err := NewExtractor(DefaultRetryPolicy()).Extract(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, src.reloads)

	want := timetable.RawRecord{}
	for _, row := range d.table() {
		want.Put(row.Kids[0].Content, row.Kids[1].Content)
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

// Keys read before a reload are kept and overwritten by later reads.
func TestExtract_RetainsKeysAcrossReloads(t *testing.T) {
	first := detail{activity: 3, seats: 5}.table()
	first[6] = surfacetest.HalfRenderedRow(timetable.FieldSemester)
	// After the reload the table only shows rows 6.. in full; rows 0-5 are
	// stale but the extractor resumes at row 6 and never re-reads them.
	second := detail{activity: 3, seats: 4}.table()
	for i := 0; i < 6; i++ {
		second[i] = surfacetest.HalfRenderedRow(timetable.SchemaFields[i])
	}
	src := &scriptedSource{reads: [][]*surfacetest.Element{first, second}}

	rec, err := NewExtractor(DefaultRetryPolicy()).Extract(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, timetable.SchemaSize, rec.Len())
	assert.Equal(t, "4", rec[timetable.FieldSeats])
	assert.Equal(t, "Lab", rec[timetable.FieldActivityType])
}

func TestExtract_ShortTableReloads(t *testing.T) {
	d := detail{activity: 1, seats: 1}
	src := &scriptedSource{reads: [][]*surfacetest.Element{d.table()[:5], d.table()}}

	rec, err := NewExtractor(DefaultRetryPolicy()).Extract(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, rec.Complete())
	assert.Equal(t, 1, src.reloads)
}

func TestExtract_EmptyKeySkipped(t *testing.T) {
	rows := detail{activity: 3, seats: 12}.table()
	rows[2] = surfacetest.Row("   ", "3")
	src := &scriptedSource{reads: [][]*surfacetest.Element{rows}}

	_, err := NewExtractor(DefaultRetryPolicy()).Extract(context.Background(), src)
	var te *timetable.TableError
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.Equal(t, timetable.SchemaSize, te.Expected)
	assert.Equal(t, 11, te.Actual)
	assert.Equal(t, 0, src.reloads, "an empty key is not a structural failure")
}

func TestExtract_DuplicateKeyIsSizeMismatch(t *testing.T) {
	rows := detail{activity: 3, seats: 12}.table()
	rows[11] = surfacetest.Row(timetable.FieldGroup, "B")
	src := &scriptedSource{reads: [][]*surfacetest.Element{rows}}

	_, err := NewExtractor(DefaultRetryPolicy()).Extract(context.Background(), src)
	assert.ErrorIs(t, err, timetable.ErrTable)
	assert.EqualError(t, err, "allocation table has 11 distinct rows, expected 12")
}

func TestExtract_RetriesExhausted(t *testing.T) {
	broken := detail{activity: 3, seats: 12}.halfRendered(0)
	src := &scriptedSource{reads: [][]*surfacetest.Element{broken}}

	_, err := NewExtractor(RetryPolicy{MaxReloads: 3}).Extract(context.Background(), src)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, 3, src.reloads)
}

func TestExtract_NoReloadsPolicy(t *testing.T) {
	src := &scriptedSource{reads: [][]*surfacetest.Element{detail{}.halfRendered(0)}}

	_, err := NewExtractor(RetryPolicy{MaxReloads: -1}).Extract(context.Background(), src)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, 0, src.reloads)
}

func TestExtract_ReloadFailureIsFatal(t *testing.T) {
	boom := errors.New("back button gone")
	src := &scriptedSource{reads: [][]*surfacetest.Element{detail{}.halfRendered(0)}, reloadErr: boom}

	_, err := NewExtractor(DefaultRetryPolicy()).Extract(context.Background(), src)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrRetriesExhausted)
}

func TestExtract_ReadErrorsAreStructural(t *testing.T) {
	d := detail{activity: 2, seats: 2}
	first := d.table()
	first[3] = &surfacetest.Element{ChildrenErr: surfacetest.ErrDetached}
	second := d.table()
	second[5] = surfacetest.Row(timetable.FieldTime, "")
	second[5].Kids[1].TextErr = surfacetest.ErrDetached
	src := &scriptedSource{reads: [][]*surfacetest.Element{first, second, d.table()}}

	rec, err := NewExtractor(DefaultRetryPolicy()).Extract(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, rec.Complete())
	assert.Equal(t, 2, src.reloads)
}

func TestExtract_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &scriptedSource{reads: [][]*surfacetest.Element{detail{}.table()}}

	_, err := NewExtractor(DefaultRetryPolicy()).Extract(ctx, src)
	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// CONTROLLER
// =============================================================================

func bindColumn(doc *surfacetest.Document, slots ...surfacetest.Slot) *surfacetest.Grid {
	return surfacetest.BindGrid(doc, surfacetest.GridLocators{
		Slot: testLocators.Slot,
		Rows: testLocators.DetailRows,
		Back: testLocators.Back,
	}, timetable.Monday.Code(), slots)
}

func slots(details ...detail) []surfacetest.Slot {
	out := make([]surfacetest.Slot, len(details))
	for i, d := range details {
		out[i] = surfacetest.Slot{Reads: [][]*surfacetest.Element{d.table()}}
	}
	return out
}

func search(t *testing.T, doc *surfacetest.Document, q timetable.Query) (*timetable.Allocation, error) {
	t.Helper()
	c := NewController(NewExtractor(DefaultRetryPolicy()))
	return c.Search(context.Background(), NewDocumentGrid(doc, testLocators), q)
}

func TestSearch_Found(t *testing.T) {
	doc := surfacetest.NewDocument()
	grid := bindColumn(doc, slots(
		detail{activity: 1, seats: 4}, detail{activity: 2, seats: 4},
		detail{activity: 3, seats: 12},
		detail{activity: 4, seats: 4}, detail{activity: 5, seats: 4},
	)...)

	alloc, err := search(t, doc, query(t, 3, nil))
	require.NoError(t, err)
	require.NotNil(t, alloc)
	assert.Equal(t, uint64(3), alloc.Activity)
	assert.Equal(t, uint16(12), alloc.Seats)
	assert.Equal(t, timetable.Lab, alloc.ActivityType)
	assert.Equal(t, 3, grid.Opened(), "scan stops at the first match")
	assert.Equal(t, 2, grid.BackButton.Activations())
}

func TestSearch_FullIsAbsent(t *testing.T) {
	doc := surfacetest.NewDocument()
	grid := bindColumn(doc, slots(
		detail{activity: 1, seats: 4}, detail{activity: 2, seats: 4},
		detail{activity: 3, seats: 0},
		detail{activity: 4, seats: 4}, detail{activity: 5, seats: 4},
	)...)

	alloc, err := search(t, doc, query(t, 3, nil))
	require.NoError(t, err)
	assert.Nil(t, alloc)
	assert.Equal(t, 3, grid.Opened(), "a full match still ends the scan")
}

func TestSearch_NotFound(t *testing.T) {
	doc := surfacetest.NewDocument()
	grid := bindColumn(doc, slots(
		detail{activity: 10, seats: 1}, detail{activity: 11, seats: 1},
		detail{activity: 12, seats: 1}, detail{activity: 13, seats: 1},
		detail{activity: 14, seats: 1},
	)...)

	alloc, err := search(t, doc, query(t, 3, nil))
	require.NoError(t, err)
	assert.Nil(t, alloc)
	assert.Equal(t, 5, grid.Opened())
	for row := 1; row <= 5; row++ {
		assert.Equal(t, 1, grid.Opens(row), "slot %d", row)
	}
}

func TestSearch_FirstMatchWins(t *testing.T) {
	doc := surfacetest.NewDocument()
	bindColumn(doc, slots(detail{activity: 3, seats: 7}, detail{activity: 3, seats: 99})...)

	alloc, err := search(t, doc, query(t, 3, nil))
	require.NoError(t, err)
	require.NotNil(t, alloc)
	assert.Equal(t, uint16(7), alloc.Seats)
}

func TestSearch_EmptyColumn(t *testing.T) {
	alloc, err := search(t, surfacetest.NewDocument(), query(t, 3, nil))
	require.NoError(t, err)
	assert.Nil(t, alloc)
}

func TestSearch_StartAfter(t *testing.T) {
	doc := surfacetest.NewDocument()
	bindColumn(doc, slots(detail{activity: 3, seats: 7, time: "09:00"})...)

	ten := timetable.Clock{Hour: 10}
	alloc, err := search(t, doc, query(t, 3, &ten))
	require.NoError(t, err)
	assert.Nil(t, alloc, "starts before the earliest accepted time")

	nine := timetable.Clock{Hour: 9}
	alloc, err = search(t, doc, query(t, 3, &nine))
	require.NoError(t, err)
	assert.NotNil(t, alloc)
}

// A half-rendered read reloads the page and re-opens the same slot.
func TestSearch_TransientReadReopensSlot(t *testing.T) {
	d := detail{activity: 3, seats: 2}
	doc := surfacetest.NewDocument()
	grid := bindColumn(doc,
		surfacetest.Slot{Reads: [][]*surfacetest.Element{detail{activity: 1, seats: 1}.table()}},
		surfacetest.Slot{Reads: [][]*surfacetest.Element{d.halfRendered(7), d.table()}},
	)

	alloc, err := search(t, doc, query(t, 3, nil))
	require.NoError(t, err)
	require.NotNil(t, alloc)
	assert.Equal(t, 2, grid.Opens(2))
}

func TestSearch_ProjectionErrorIsFatal(t *testing.T) {
	rows := detail{activity: 1, seats: 1}.table()
	rows[11] = surfacetest.Row(timetable.FieldSeats, "lots")
	doc := surfacetest.NewDocument()
	bindColumn(doc, surfacetest.Slot{Reads: [][]*surfacetest.Element{rows}}, slots(detail{activity: 3, seats: 1})[0])

	_, err := search(t, doc, query(t, 3, nil))
	assert.ErrorIs(t, err, timetable.ErrParse)
	assert.Contains(t, err.Error(), "slot 1")
}

func TestSearch_SlotActivationFailure(t *testing.T) {
	doc := surfacetest.NewDocument()
	grid := bindColumn(doc, slots(detail{activity: 3, seats: 1})...)
	grid.SlotElements[0].ActivateErr = surfacetest.ErrDetached

	_, err := search(t, doc, query(t, 3, nil))
	assert.ErrorIs(t, err, surfacetest.ErrDetached)
}
