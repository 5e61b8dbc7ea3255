// Package report renders query outcomes and history for the terminal.
package report

import (
	"fmt"
	"io"
	"strconv"

	"seatfinder/internal/runner"
	"seatfinder/internal/store"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Semantic colors
var (
	Success = lipgloss.Color("#8BC34A") // Lime Green
	Warning = lipgloss.Color("#FFC107") // Yellow
	Failure = lipgloss.Color("#e53935") // Red
	Info    = lipgloss.Color("#2196F3") // Blue
	Muted   = lipgloss.Color("#6b7280")
)

// Styles holds the styled components of a report.
type Styles struct {
	Title  lipgloss.Style
	Found  lipgloss.Style
	Absent lipgloss.Style
	Failed lipgloss.Style
	Detail lipgloss.Style
	Header lipgloss.Style
}

// NewStyles builds styles for r, so colors are only emitted when r's output
// is a color terminal.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title:  r.NewStyle().Bold(true).Foreground(Info),
		Found:  r.NewStyle().Bold(true).Foreground(Success),
		Absent: r.NewStyle().Foreground(Warning),
		Failed: r.NewStyle().Bold(true).Foreground(Failure),
		Detail: r.NewStyle().Foreground(Muted).PaddingLeft(2),
		Header: r.NewStyle().Bold(true).Padding(0, 1),
	}
}

// Printer writes reports to one writer.
type Printer struct {
	w      io.Writer
	styles Styles
}

// NewPrinter returns a Printer for w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, styles: NewStyles(lipgloss.NewRenderer(w))}
}

// Outcome prints one query outcome.
func (p *Printer) Outcome(o runner.Outcome) {
	fmt.Fprintln(p.w, p.OutcomeLine(o))
	if a := o.Allocation; a != nil && o.Err == nil {
		detail := fmt.Sprintf("%s %s, %s", a.Day, a.Time, a.Location)
		if a.Campus != "" {
			detail += " (" + a.Campus + ")"
		}
		fmt.Fprintln(p.w, p.styles.Detail.Render(detail))
	}
}

// OutcomeLine is the one-line message for o.
func (p *Printer) OutcomeLine(o runner.Outcome) string {
	unit := o.Query.UnitCode()
	switch o.Status() {
	case runner.StatusFound:
		return p.styles.Found.Render(fmt.Sprintf("Activity %d of %s has %d seats left", o.Allocation.Activity, unit, o.Allocation.Seats))
	case runner.StatusAbsent:
		return p.styles.Absent.Render(fmt.Sprintf("No allocations found for %s matching the given query.", unit))
	default:
		return p.styles.Failed.Render(fmt.Sprintf("Query %d (%s) failed: %v", o.Index+1, unit, o.Err))
	}
}

// Summary prints the tally of a run.
func (p *Printer) Summary(s runner.Summary) {
	fmt.Fprintln(p.w, p.styles.Title.Render(
		fmt.Sprintf("%d found, %d absent, %d failed", s.Found, s.Absent, s.Failed)))
}

// History prints recorded outcomes as a table.
func (p *Printer) History(entries []store.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(p.w, p.styles.Absent.Render("No recorded outcomes."))
		return
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.RecordedAt.Format("2006-01-02 15:04"),
			e.UnitCode,
			string(e.Status),
			activityCell(e),
			seatsCell(e),
			whenCell(e),
			e.Error,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("RECORDED", "UNIT", "STATUS", "ACTIVITY", "SEATS", "WHEN", "ERROR").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.styles.Header
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	fmt.Fprintln(p.w, t.Render())
}

// Totals prints the all-time outcome counts under a history table.
func (p *Printer) Totals(stats map[runner.Status]int) {
	total := 0
	for _, n := range stats {
		total += n
	}
	fmt.Fprintln(p.w, p.styles.Detail.Render(fmt.Sprintf("%d recorded: %d found, %d absent, %d failed",
		total, stats[runner.StatusFound], stats[runner.StatusAbsent], stats[runner.StatusFailed])))
}

func activityCell(e store.Entry) string {
	if e.Status != runner.StatusFound {
		return "-"
	}
	return strconv.FormatUint(e.Activity, 10)
}

func seatsCell(e store.Entry) string {
	if e.Status != runner.StatusFound {
		return "-"
	}
	return strconv.Itoa(e.Seats)
}

func whenCell(e store.Entry) string {
	if e.Status != runner.StatusFound {
		return "-"
	}
	return e.Day + " " + e.Time
}
