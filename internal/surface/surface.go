// Package surface defines the addressable-document capability the seat finder
// drives. The browser package implements it on top of a Rod page; tests use
// the in-memory document in surfacetest.
package surface

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// ErrNotFound is returned by Locate when nothing matches the locator.
var ErrNotFound = errors.New("element not found")

// Locator is an opaque element address. The browser implementation treats it
// as an XPath expression. Placeholders in braces are expanded by With.
type Locator string

// Placeholders understood by Locator.With.
const (
	VarDay   = "day"
	VarRow   = "row"
	VarIndex = "index"
	VarLabel = "label"
)

// With expands "{name}" placeholders from alternating name/value pairs.
func (l Locator) With(pairs ...string) Locator {
	if len(pairs) == 0 {
		return l
	}
	oldnew := make([]string, 0, len(pairs))
	for i := 0; i+1 < len(pairs); i += 2 {
		oldnew = append(oldnew, "{"+pairs[i]+"}", pairs[i+1])
	}
	return Locator(strings.NewReplacer(oldnew...).Replace(string(l)))
}

// WithInt is With for a single integer placeholder.
func (l Locator) WithInt(name string, n int) Locator {
	return l.With(name, strconv.Itoa(n))
}

func (l Locator) String() string { return string(l) }

// Document is one live, asynchronously rendered page.
type Document interface {
	Navigate(ctx context.Context, url string) error
	// Locate returns the first element matching loc, or ErrNotFound.
	Locate(ctx context.Context, loc Locator) (Element, error)
	// LocateAll returns every element matching loc in document order. An
	// empty result is not an error.
	LocateAll(ctx context.Context, loc Locator) ([]Element, error)
}

// Element is a handle to a node of a Document. Any call may fail transiently
// while the page is re-rendering.
type Element interface {
	Text(ctx context.Context) (string, error)
	Activate(ctx context.Context) error
	SetValue(ctx context.Context, text string) error
	WaitActionable(ctx context.Context) error
	Children(ctx context.Context) ([]Element, error)
}
