package search

import (
	"context"
	"errors"
	"fmt"

	"seatfinder/internal/logging"
	"seatfinder/internal/surface"
	"seatfinder/internal/timetable"
)

// Grid is the timetable grid of one selected offering.
type Grid interface {
	// Slot returns the row-th (1-indexed) entry of day's column, or
	// surface.ErrNotFound past the last one.
	Slot(ctx context.Context, day timetable.Day, row int) (surface.Element, error)
	// DetailRows returns the rows of the detail table of the active slot.
	DetailRows(ctx context.Context) ([]surface.Element, error)
	// Back leaves the detail view for the grid.
	Back(ctx context.Context) error
}

// Controller scans a day's column slot by slot for the query's activity.
type Controller struct {
	extractor *Extractor
	log       *logging.Logger
}

func NewController(extractor *Extractor) *Controller {
	if extractor == nil {
		extractor = NewExtractor(DefaultRetryPolicy())
	}
	return &Controller{extractor: extractor, log: logging.Get(logging.CategorySearch)}
}

// Search scans q's day column from the first slot. The first slot whose
// activity number equals the target ends the scan: its Allocation is
// returned when q accepts it (seats left, not before start_after), and
// (nil, nil) otherwise. Running out of slots also yields (nil, nil). On a
// match the detail view is left open.
func (c *Controller) Search(ctx context.Context, grid Grid, q timetable.Query) (*timetable.Allocation, error) {
	timer := logging.StartTimer(logging.CategorySearch, "scan "+q.Day().String())
	defer timer.Stop()

	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		slot, err := grid.Slot(ctx, q.Day(), row)
		if errors.Is(err, surface.ErrNotFound) {
			c.log.Info("%s: no activity %d among %d slots on %s", q.UnitCode(), q.Activity(), row-1, q.Day())
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("locate slot %d: %w", row, err)
		}
		if err := slot.Activate(ctx); err != nil {
			return nil, fmt.Errorf("open slot %d: %w", row, err)
		}

		rec, err := c.extractor.Extract(ctx, &slotRows{grid: grid, day: q.Day(), row: row})
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", row, err)
		}
		alloc, err := timetable.ProjectAllocation(rec)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", row, err)
		}
		c.log.Debug("slot %d: %s", row, alloc)

		if alloc.Activity == q.Activity() {
			if !q.Accepts(alloc) {
				c.log.Info("%s: activity %d found in slot %d but not available (%d seats, %s)",
					q.UnitCode(), alloc.Activity, row, alloc.Seats, alloc.Time)
				return nil, nil
			}
			return alloc, nil
		}

		if err := grid.Back(ctx); err != nil {
			return nil, fmt.Errorf("return from slot %d: %w", row, err)
		}
	}
}

// slotRows is the RowSource of one slot's detail table. Reloading goes back
// to the grid and re-opens the same slot.
type slotRows struct {
	grid Grid
	day  timetable.Day
	row  int
}

func (s *slotRows) Rows(ctx context.Context) ([]surface.Element, error) {
	return s.grid.DetailRows(ctx)
}

func (s *slotRows) Reload(ctx context.Context) error {
	if err := s.grid.Back(ctx); err != nil {
		return err
	}
	slot, err := s.grid.Slot(ctx, s.day, s.row)
	if err != nil {
		return fmt.Errorf("relocate slot %d: %w", s.row, err)
	}
	return slot.Activate(ctx)
}
