package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seatfinder/internal/surface"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx).Timeout(s.cfg.navigationTimeout())
	defer page.CancelTimeout()
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return page.WaitLoad()
}

// Locate waits up to the locate timeout for loc to render. Locators are
// XPath expressions.
func (s *Session) Locate(ctx context.Context, loc surface.Locator) (surface.Element, error) {
	page := s.page.Context(ctx).Timeout(s.cfg.locateTimeout())
	defer page.CancelTimeout()
	el, err := page.ElementX(string(loc))
	if err != nil {
		return nil, notFound(ctx, loc, err)
	}
	return &element{el: el.CancelTimeout(), timeout: s.cfg.locateTimeout()}, nil
}

// LocateAll waits for the first match of loc, then returns every match
// present at that moment.
func (s *Session) LocateAll(ctx context.Context, loc surface.Locator) ([]surface.Element, error) {
	if _, err := s.Locate(ctx, loc); err != nil {
		if errors.Is(err, surface.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	els, err := s.page.Context(ctx).ElementsX(string(loc))
	if err != nil {
		return nil, fmt.Errorf("locate all %s: %w", loc, err)
	}
	return wrap(els, s.cfg.locateTimeout()), nil
}

// notFound maps rod's "gave up waiting" errors to surface.ErrNotFound,
// leaving caller cancellation intact.
func notFound(ctx context.Context, loc surface.Locator, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var missing *rod.ElementNotFoundError
	if errors.As(err, &missing) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", loc, surface.ErrNotFound)
	}
	return fmt.Errorf("locate %s: %w", loc, err)
}

type element struct {
	el      *rod.Element
	timeout time.Duration
}

func wrap(els rod.Elements, timeout time.Duration) []surface.Element {
	out := make([]surface.Element, len(els))
	for i, el := range els {
		out[i] = &element{el: el, timeout: timeout}
	}
	return out
}

func (e *element) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e *element) Activate(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

// SetValue replaces the element's current input with text.
func (e *element) SetValue(ctx context.Context, text string) error {
	el := e.el.Context(ctx)
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input(text)
}

// WaitActionable waits, up to the locate timeout, for the element to be
// visible and enabled.
func (e *element) WaitActionable(ctx context.Context) error {
	el := e.el.Context(ctx).Timeout(e.timeout)
	defer el.CancelTimeout()
	if err := el.WaitVisible(); err != nil {
		return err
	}
	return el.WaitEnabled()
}

func (e *element) Children(ctx context.Context) ([]surface.Element, error) {
	els, err := e.el.Context(ctx).ElementsX("./*")
	if err != nil {
		return nil, err
	}
	return wrap(els, e.timeout), nil
}

var _ surface.Document = (*Session)(nil)
