package surfacetest

import (
	"strconv"
	"sync"

	"seatfinder/internal/surface"
)

// GridLocators mirror the locators a grid scan uses.
type GridLocators struct {
	Slot surface.Locator // expands {day} and {row}
	Rows surface.Locator
	Back surface.Locator
}

// Slot scripts one grid entry. Reads[n] holds the detail rows shown on the
// n-th opening of the slot; the last entry repeats for later openings.
type Slot struct {
	Reads [][]*Element
}

// Grid is a day column bound into a Document. Opening a slot shows its
// detail rows, the back button hides them.
type Grid struct {
	mu    sync.Mutex
	doc   *Document
	loc   GridLocators
	opens []int

	SlotElements []*Element
	BackButton   *Element
}

// BindGrid binds slots as the column of day (1 = Monday).
func BindGrid(doc *Document, loc GridLocators, day int, slots []Slot) *Grid {
	g := &Grid{doc: doc, loc: loc, opens: make([]int, len(slots))}
	for i, s := range slots {
		i, s := i, s
		el := &Element{Label: "slot " + strconv.Itoa(i+1)}
		el.OnActivate = func() { g.open(i, s) }
		g.SlotElements = append(g.SlotElements, el)
		doc.Bind(loc.Slot.With(surface.VarDay, strconv.Itoa(day), surface.VarRow, strconv.Itoa(i+1)), el)
	}
	g.BackButton = &Element{Label: "back"}
	g.BackButton.OnActivate = func() { doc.Unbind(loc.Rows) }
	doc.Bind(loc.Back, g.BackButton)
	return g
}

func (g *Grid) open(i int, s Slot) {
	g.mu.Lock()
	n := g.opens[i]
	g.opens[i]++
	g.mu.Unlock()

	if len(s.Reads) == 0 {
		g.doc.Unbind(g.loc.Rows)
		return
	}
	if n >= len(s.Reads) {
		n = len(s.Reads) - 1
	}
	g.doc.Bind(g.loc.Rows, s.Reads[n]...)
}

// Opens reports how often the row-th (1-indexed) slot was opened.
func (g *Grid) Opens(row int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.opens[row-1]
}

// Opened reports how many distinct slots were opened at least once.
func (g *Grid) Opened() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, o := range g.opens {
		if o > 0 {
			n++
		}
	}
	return n
}
