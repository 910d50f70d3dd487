// Package nav tracks which page section is active and which theme is in use.
//
// Visibility is reported from outside (the page script observes sections
// and posts changes); the tracker only keeps the id -> visible mapping.
package nav

import (
	"errors"
	"fmt"
	"sync"
)

var ErrUnknownSection = errors.New("nav: unknown section")

// Section is one entry of the navigation bar.
type Section struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// DefaultSections is the page order.
var DefaultSections = []Section{
	{ID: "hero", Label: "Home"},
	{ID: "about", Label: "About"},
	{ID: "skills", Label: "Skills"},
	{ID: "experience", Label: "Experience"},
	{ID: "projects", Label: "Projects"},
	{ID: "education", Label: "Education"},
	{ID: "contact", Label: "Contact"},
}

// Tracker holds section visibility for one visitor.
type Tracker struct {
	mu       sync.Mutex
	sections []Section
	visible  map[string]bool
	active   string
}

// NewTracker starts with the first section active. A nil slice means
// DefaultSections.
func NewTracker(sections []Section) *Tracker {
	if len(sections) == 0 {
		sections = DefaultSections
	}
	return &Tracker{
		sections: sections,
		visible:  make(map[string]bool, len(sections)),
		active:   sections[0].ID,
	}
}

// Report records a visibility change. A section that becomes visible turns
// active. When the active section is hidden, the first visible section in
// page order takes over; if none is visible the active one is kept.
func (t *Tracker) Report(id string, visible bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.known(id) {
		return fmt.Errorf("%w: %q", ErrUnknownSection, id)
	}
	t.visible[id] = visible
	if visible {
		t.active = id
		return nil
	}
	if id != t.active {
		return nil
	}
	for _, s := range t.sections {
		if t.visible[s.ID] {
			t.active = s.ID
			break
		}
	}
	return nil
}

func (t *Tracker) known(id string) bool {
	for _, s := range t.sections {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Active returns the highlighted section id.
func (t *Tracker) Active() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Visible returns a copy of the visibility mapping.
func (t *Tracker) Visible() map[string]bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]bool, len(t.visible))
	for id, v := range t.visible {
		out[id] = v
	}
	return out
}

// Item is a section prepared for the nav template.
type Item struct {
	Section
	Active bool
}

// Items lists the sections with the active one flagged.
func (t *Tracker) Items() []Item {
	t.mu.Lock()
	defer t.mu.Unlock()
	items := make([]Item, len(t.sections))
	for i, s := range t.sections {
		items[i] = Item{Section: s, Active: s.ID == t.active}
	}
	return items
}
