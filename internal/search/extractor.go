// Package search reads activity detail tables and scans a day's column of
// the timetable grid for the requested activity.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"seatfinder/internal/logging"
	"seatfinder/internal/surface"
	"seatfinder/internal/timetable"
)

// ErrRetriesExhausted is returned when an allocation table kept reading back
// malformed after every permitted reload.
var ErrRetriesExhausted = errors.New("allocation table reads exhausted retries")

// DefaultMaxReloads bounds how often one slot's detail view is reloaded.
const DefaultMaxReloads = 8

// RetryPolicy bounds the extractor's reload loop.
type RetryPolicy struct {
	MaxReloads int
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxReloads: DefaultMaxReloads}
}

// RowSource yields the rows of one allocation table and can put the
// document back into the state that produced them.
type RowSource interface {
	Rows(ctx context.Context) ([]surface.Element, error)
	// Reload re-navigates to the detail view the rows came from.
	Reload(ctx context.Context) error
}

// Extractor reads a RawRecord from a RowSource, reloading on malformed reads.
type Extractor struct {
	policy RetryPolicy
	log    *logging.Logger
}

// NewExtractor returns an extractor. A non-positive MaxReloads means no
// reloads at all: the first malformed read exhausts the policy.
func NewExtractor(policy RetryPolicy) *Extractor {
	if policy.MaxReloads < 0 {
		policy.MaxReloads = 0
	}
	return &Extractor{policy: policy, log: logging.Get(logging.CategoryExtract)}
}

// structuralError marks a read that cannot be trusted and warrants a reload.
type structuralError struct {
	row   int
	cause error
}

func (e *structuralError) Error() string {
	return fmt.Sprintf("row %d: %v", e.row+1, e.cause)
}

func (e *structuralError) Unwrap() error { return e.cause }

// Extract reads SchemaSize key/value rows into a RawRecord. Keys already read
// survive a reload. The record is returned only when it holds exactly
// SchemaSize distinct keys; any other count is a *timetable.TableError.
func (e *Extractor) Extract(ctx context.Context, src RowSource) (timetable.RawRecord, error) {
	rec := make(timetable.RawRecord, timetable.SchemaSize)
	reloads := 0

	var rows []surface.Element
	stale := true
	for row := 0; row < timetable.SchemaSize; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var err error
		if stale {
			rows, err = src.Rows(ctx)
			if err != nil {
				err = &structuralError{row: row, cause: err}
			}
		}
		if err == nil && row >= len(rows) {
			err = &structuralError{row: row, cause: fmt.Errorf("table exposes only %d rows", len(rows))}
		}

		var key, value string
		if err == nil {
			stale = false
			key, value, err = readRow(ctx, row, rows[row])
		}

		if err != nil {
			if reloads >= e.policy.MaxReloads {
				return nil, fmt.Errorf("%w after %d reloads: %v", ErrRetriesExhausted, reloads, err)
			}
			reloads++
			e.log.Warn("malformed read (%v), reloading table (%d/%d)", err, reloads, e.policy.MaxReloads)
			if rerr := src.Reload(ctx); rerr != nil {
				return nil, fmt.Errorf("reload allocation table: %w", rerr)
			}
			stale = true
			continue
		}

		if key == "" {
			e.log.Debug("row %d has an empty key, skipping (value %q)", row+1, value)
			row++
			continue
		}
		rec.Put(key, value)
		row++
	}

	if !rec.Complete() {
		e.log.Warn("table read %d distinct keys: %v", rec.Len(), rec.Keys())
		return nil, &timetable.TableError{Expected: timetable.SchemaSize, Actual: rec.Len()}
	}
	if reloads > 0 {
		e.log.Info("table recovered after %d reloads", reloads)
	}
	return rec, nil
}

func readRow(ctx context.Context, row int, el surface.Element) (string, string, error) {
	cells, err := el.Children(ctx)
	if err != nil {
		return "", "", &structuralError{row: row, cause: err}
	}
	if len(cells) != 2 {
		return "", "", &structuralError{row: row, cause: fmt.Errorf("expected 2 cells, got %d", len(cells))}
	}
	key, err := cells[0].Text(ctx)
	if err != nil {
		return "", "", &structuralError{row: row, cause: err}
	}
	value, err := cells[1].Text(ctx)
	if err != nil {
		return "", "", &structuralError{row: row, cause: err}
	}
	return strings.TrimSpace(key), strings.TrimSpace(value), nil
}
