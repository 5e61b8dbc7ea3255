package surfacetest

import (
	"context"
	"errors"
	"sync"

	"seatfinder/internal/surface"
)

// ErrDetached mimics a node that was re-rendered between lookup and use.
var ErrDetached = errors.New("element detached from document")

// Element is a scriptable surface.Element. Zero value is a childless element
// with empty text.
type Element struct {
	mu sync.Mutex

	Label   string // free-form name for test failure messages
	Content string
	Kids    []*Element

	TextErr     error
	ChildrenErr error
	ActivateErr error

	// OnActivate runs on every successful Activate.
	OnActivate func()

	value       string
	activations int
}

// Text returns an element with the given text content.
func Text(s string) *Element { return &Element{Content: s} }

// Row returns a two-column key/value row.
func Row(key, value string) *Element {
	return &Element{Label: "row " + key, Kids: []*Element{Text(key), Text(value)}}
}

// Rows builds table rows from alternating key/value strings.
func Rows(pairs ...string) []*Element {
	rows := make([]*Element, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		rows = append(rows, Row(pairs[i], pairs[i+1]))
	}
	return rows
}

// HalfRenderedRow returns a row exposing only its key cell.
func HalfRenderedRow(key string) *Element {
	return &Element{Label: "half " + key, Kids: []*Element{Text(key)}}
}

// Activations reports how many times Activate succeeded.
func (e *Element) Activations() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activations
}

// Value returns the last value set with SetValue.
func (e *Element) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

func (e *Element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if e.TextErr != nil {
		return "", e.TextErr
	}
	return e.Content, nil
}

func (e *Element) Activate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.ActivateErr != nil {
		return e.ActivateErr
	}
	e.mu.Lock()
	e.activations++
	hook := e.OnActivate
	e.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (e *Element) SetValue(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	e.value = text
	e.mu.Unlock()
	return nil
}

func (e *Element) WaitActionable(ctx context.Context) error {
	return ctx.Err()
}

func (e *Element) Children(ctx context.Context) ([]surface.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.ChildrenErr != nil {
		return nil, e.ChildrenErr
	}
	return toSurface(e.Kids), nil
}

var _ surface.Element = (*Element)(nil)
