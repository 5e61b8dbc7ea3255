package config

import (
	"seatfinder/internal/finder"
	"seatfinder/internal/surface"
)

// LocatorConfig overrides the XPath locators of the timetable page. Empty
// fields keep the built-in defaults.
type LocatorConfig struct {
	SearchBar        string `yaml:"search_bar,omitempty" json:"search_bar,omitempty"`
	SearchButton     string `yaml:"search_button,omitempty" json:"search_button,omitempty"`
	ShowTimetable    string `yaml:"show_timetable,omitempty" json:"show_timetable,omitempty"`
	Offerings        string `yaml:"offerings,omitempty" json:"offerings,omitempty"`
	OfferingCheckbox string `yaml:"offering_checkbox,omitempty" json:"offering_checkbox,omitempty" validate:"omitempty,contains={index}"`
	ActivityFilter   string `yaml:"activity_filter,omitempty" json:"activity_filter,omitempty" validate:"omitempty,contains={label}"`
	Slot             string `yaml:"slot,omitempty" json:"slot,omitempty" validate:"omitempty,contains={day},contains={row}"`
	DetailRows       string `yaml:"detail_rows,omitempty" json:"detail_rows,omitempty"`
	Back             string `yaml:"back,omitempty" json:"back,omitempty"`
	Clear            string `yaml:"clear,omitempty" json:"clear,omitempty"`
}

// Finder merges the overrides over finder.DefaultLocators.
func (c LocatorConfig) Finder() finder.Locators {
	l := finder.DefaultLocators()
	set := func(dst *surface.Locator, v string) {
		if v != "" {
			*dst = surface.Locator(v)
		}
	}
	set(&l.SearchBar, c.SearchBar)
	set(&l.SearchButton, c.SearchButton)
	set(&l.ShowTimetable, c.ShowTimetable)
	set(&l.Offerings, c.Offerings)
	set(&l.OfferingCheckbox, c.OfferingCheckbox)
	set(&l.ActivityFilter, c.ActivityFilter)
	set(&l.Slot, c.Slot)
	set(&l.DetailRows, c.DetailRows)
	set(&l.Back, c.Back)
	set(&l.Clear, c.Clear)
	return l
}
