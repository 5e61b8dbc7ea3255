// Package finder drives a timetable document from a fresh page to the
// allocation a query asks for: search the unit, pick its offering, show the
// timetable and scan the query's day.
package finder

import (
	"context"
	"fmt"

	"seatfinder/internal/logging"
	"seatfinder/internal/offering"
	"seatfinder/internal/search"
	"seatfinder/internal/surface"
	"seatfinder/internal/timetable"
)

// Public timetable URLs, one per year parity.
const (
	PublicTimetableOdd  = "https://timetable.sydney.edu.au/odd/timetable/#subjects"
	PublicTimetableEven = "https://timetable.sydney.edu.au/even/timetable/#subjects"
)

// PublicTimetableURL returns the timetable for year's parity.
func PublicTimetableURL(year int) string {
	if year%2 == 0 {
		return PublicTimetableEven
	}
	return PublicTimetableOdd
}

// Locators address every element the finder touches.
type Locators struct {
	SearchBar     surface.Locator
	SearchButton  surface.Locator
	ShowTimetable surface.Locator
	// Offerings matches the label of each search result.
	Offerings surface.Locator
	// OfferingCheckbox expands {index}, the 1-indexed search result.
	OfferingCheckbox surface.Locator
	// ActivityFilter, when set, expands {label} with the activity type's
	// filter label and is activated before the timetable is shown.
	ActivityFilter surface.Locator
	Slot           surface.Locator
	DetailRows     surface.Locator
	Back           surface.Locator
	// Clear, when set, is activated after every query.
	Clear surface.Locator
}

// DefaultLocators returns the locators of the public timetable.
func DefaultLocators() Locators {
	return Locators{
		SearchBar:        `//*[@id="search_box"]`,
		SearchButton:     `//*[@id="search-form"]/input`,
		ShowTimetable:    `//*[@id="toggle-right-col-btn"]`,
		Offerings:        `//*[@id="selected-results"]/li/strong`,
		OfferingCheckbox: `//*[@id="selected-results"]/li[{index}]/input`,
		Slot:             `//*[@id="timetable-grid"]/div[4]/div[{day}]/*[{row}]`,
		DetailRows:       `//*[@id="activity-details-tpl"]/div[2]/div[4]/table/tbody/*`,
		Back:             `//*[@id="activity-details-tpl"]/div[2]/div[6]/button[1]`,
	}
}

// Grid returns the locators of the day-column scan.
func (l Locators) Grid() search.GridLocators {
	return search.GridLocators{Slot: l.Slot, DetailRows: l.DetailRows, Back: l.Back}
}

// Finder resolves queries against one timetable URL.
type Finder struct {
	url        string
	loc        Locators
	controller *search.Controller
	log        *logging.Logger
}

func New(url string, loc Locators, controller *search.Controller) *Finder {
	if controller == nil {
		controller = search.NewController(nil)
	}
	return &Finder{url: url, loc: loc, controller: controller, log: logging.Get(logging.CategoryOffering)}
}

// URL returns the timetable URL the finder navigates to.
func (f *Finder) URL() string { return f.url }

// Resolve runs the whole pipeline for q on doc. It returns the matching
// allocation, nil when the activity is full or absent, or the error of the
// first step that failed.
func (f *Finder) Resolve(ctx context.Context, doc surface.Document, q timetable.Query) (alloc *timetable.Allocation, err error) {
	timer := logging.StartTimer(logging.CategoryOffering, "resolve "+q.UnitCode())
	defer timer.Stop()

	if f.loc.Clear != "" {
		defer func() {
			if ctx.Err() != nil {
				return
			}
			if cerr := f.click(ctx, doc, f.loc.Clear); cerr != nil {
				f.log.Warn("clear timetable: %v", cerr)
			}
		}()
	}

	if err := f.searchUnit(ctx, doc, q); err != nil {
		return nil, fmt.Errorf("search timetable: %w", err)
	}
	if err := f.selectOffering(ctx, doc, q); err != nil {
		return nil, fmt.Errorf("select unit offering: %w", err)
	}
	if err := f.click(ctx, doc, f.loc.ShowTimetable); err != nil {
		return nil, fmt.Errorf("show timetable: %w", err)
	}

	alloc, err = f.controller.Search(ctx, search.NewDocumentGrid(doc, f.loc.Grid()), q)
	if err != nil {
		return nil, fmt.Errorf("search for query: %w", err)
	}
	return alloc, nil
}

func (f *Finder) searchUnit(ctx context.Context, doc surface.Document, q timetable.Query) error {
	if err := doc.Navigate(ctx, f.url); err != nil {
		return fmt.Errorf("navigate to %s: %w", f.url, err)
	}
	bar, err := doc.Locate(ctx, f.loc.SearchBar)
	if err != nil {
		return fmt.Errorf("search bar: %w", err)
	}
	if err := bar.SetValue(ctx, q.UnitCode()); err != nil {
		return err
	}
	return f.click(ctx, doc, f.loc.SearchButton)
}

func (f *Finder) selectOffering(ctx context.Context, doc surface.Document, q timetable.Query) error {
	results, err := doc.LocateAll(ctx, f.loc.Offerings)
	if err != nil {
		return err
	}
	labels := make([]string, 0, len(results))
	for _, r := range results {
		text, err := r.Text(ctx)
		if err != nil {
			return fmt.Errorf("read offering label: %w", err)
		}
		labels = append(labels, text)
	}
	f.log.Debug("%s offerings: %v", q.UnitCode(), labels)

	idx, err := offering.Select(q, labels)
	if err != nil {
		return err
	}
	f.log.Info("%s: selected offering %q", q.UnitCode(), labels[idx])

	if err := f.click(ctx, doc, f.loc.OfferingCheckbox.WithInt(surface.VarIndex, idx+1)); err != nil {
		return fmt.Errorf("offering checkbox: %w", err)
	}
	if f.loc.ActivityFilter != "" {
		filter := f.loc.ActivityFilter.With(surface.VarLabel, q.ActivityType().FilterLabel())
		if err := f.click(ctx, doc, filter); err != nil {
			return fmt.Errorf("activity filter %q: %w", q.ActivityType(), err)
		}
	}
	return nil
}

func (f *Finder) click(ctx context.Context, doc surface.Document, loc surface.Locator) error {
	el, err := doc.Locate(ctx, loc)
	if err != nil {
		return err
	}
	if err := el.WaitActionable(ctx); err != nil {
		return err
	}
	return el.Activate(ctx)
}
