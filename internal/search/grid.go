package search

import (
	"context"
	"strconv"

	"seatfinder/internal/surface"
	"seatfinder/internal/timetable"
)

// GridLocators address the parts of the grid a Controller touches.
type GridLocators struct {
	// Slot expands {day} (1 = Monday) and {row}.
	Slot       surface.Locator
	DetailRows surface.Locator
	Back       surface.Locator
}

// DocumentGrid implements Grid over a surface.Document.
type DocumentGrid struct {
	doc surface.Document
	loc GridLocators
}

func NewDocumentGrid(doc surface.Document, loc GridLocators) *DocumentGrid {
	return &DocumentGrid{doc: doc, loc: loc}
}

func (g *DocumentGrid) Slot(ctx context.Context, day timetable.Day, row int) (surface.Element, error) {
	return g.doc.Locate(ctx, g.loc.Slot.With(
		surface.VarDay, strconv.Itoa(day.Code()),
		surface.VarRow, strconv.Itoa(row),
	))
}

func (g *DocumentGrid) DetailRows(ctx context.Context) ([]surface.Element, error) {
	return g.doc.LocateAll(ctx, g.loc.DetailRows)
}

func (g *DocumentGrid) Back(ctx context.Context) error {
	btn, err := g.doc.Locate(ctx, g.loc.Back)
	if err != nil {
		return err
	}
	if err := btn.WaitActionable(ctx); err != nil {
		return err
	}
	return btn.Activate(ctx)
}

var _ Grid = (*DocumentGrid)(nil)
