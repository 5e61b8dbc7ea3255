// Package surfacetest provides an in-memory surface.Document for tests. Pages
// are scripted by binding locators to elements, and elements can react to
// activation by rebinding locators, which is enough to model the timetable's
// grid and detail views.
package surfacetest

import (
	"context"
	"sync"

	"seatfinder/internal/surface"
)

// Document is a scriptable surface.Document.
type Document struct {
	mu          sync.Mutex
	bound       map[surface.Locator][]*Element
	navigations []string

	// NavigateErr, when set, fails every Navigate call.
	NavigateErr error
	// OnNavigate runs after a successful Navigate.
	OnNavigate func(url string)
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{bound: make(map[surface.Locator][]*Element)}
}

// Bind makes loc resolve to els (replacing any previous binding). Binding no
// elements makes loc unresolvable.
func (d *Document) Bind(loc surface.Locator, els ...*Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(els) == 0 {
		delete(d.bound, loc)
		return
	}
	d.bound[loc] = els
}

// Unbind removes loc.
func (d *Document) Unbind(loc surface.Locator) { d.Bind(loc) }

// Navigations returns the URLs navigated to so far.
func (d *Document) Navigations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.navigations...)
}

func (d *Document) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.NavigateErr != nil {
		return d.NavigateErr
	}
	d.mu.Lock()
	d.navigations = append(d.navigations, url)
	d.mu.Unlock()
	if d.OnNavigate != nil {
		d.OnNavigate(url)
	}
	return nil
}

func (d *Document) Locate(ctx context.Context, loc surface.Locator) (surface.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	els := d.bound[loc]
	if len(els) == 0 {
		return nil, surface.ErrNotFound
	}
	return els[0], nil
}

func (d *Document) LocateAll(ctx context.Context, loc surface.Locator) ([]surface.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return toSurface(d.bound[loc]), nil
}

func toSurface(els []*Element) []surface.Element {
	out := make([]surface.Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out
}

var _ surface.Document = (*Document)(nil)
