// Package session holds the per-user lead collection and selection.
//
// State values are immutable: every operation returns a new State with a higher
// Version and leaves the receiver untouched. Stores persist whole States and
// reject writes based on a stale Version.
package session

import (
	"errors"
	"time"

	"github.com/shpitdev/leadfinder/internal/lead"
)

// ErrUnknownLead is returned when a selection names a lead that is not in the
// collection.
var ErrUnknownLead = errors.New("unknown lead id")

// Action names an operation that may have at most one call in flight per
// session.
type Action string

const (
	ActionDiscover Action = "discover"
	ActionEnrich   Action = "enrich"
)

type State struct {
	ID        string          `json:"id"`
	Version   int64           `json:"version"`
	Leads     []lead.Lead     `json:"leads"`
	Selected  map[string]bool `json:"selected"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// New returns an empty state for session id.
func New(id string, now time.Time) State {
	return State{
		ID:        id,
		Version:   1,
		Leads:     []lead.Lead{},
		Selected:  map[string]bool{},
		UpdatedAt: now,
	}
}

// ApplyDiscovery ingests a freshly parsed batch: new names go to the front,
// names already present are dropped.
func (s State) ApplyDiscovery(batch []lead.Lead, now time.Time) State {
	next := s.next(now)
	next.Leads = lead.IngestMerge(s.Leads, batch)
	return next
}

// ApplyEnrichment merges enrichment results into the collection and clears the
// selection.
func (s State) ApplyEnrichment(results []lead.EnrichmentResult, now time.Time) State {
	next := s.next(now)
	next.Leads = lead.EnrichMerge(s.Leads, results)
	next.Selected = map[string]bool{}
	return next
}

// Toggle flips the selection of one lead.
func (s State) Toggle(id string, now time.Time) (State, error) {
	if !s.hasLead(id) {
		return s, ErrUnknownLead
	}
	next := s.next(now)
	if next.Selected[id] {
		delete(next.Selected, id)
	} else {
		next.Selected[id] = true
	}
	return next, nil
}

// SelectAll selects every lead, or clears the selection when selected is false.
func (s State) SelectAll(selected bool, now time.Time) State {
	next := s.next(now)
	next.Selected = map[string]bool{}
	if selected {
		for _, l := range s.Leads {
			next.Selected[l.ID] = true
		}
	}
	return next
}

// Clear drops every lead and the selection.
func (s State) Clear(now time.Time) State {
	next := s.next(now)
	next.Leads = []lead.Lead{}
	next.Selected = map[string]bool{}
	return next
}

// SelectedLeads returns the selected leads in collection order.
func (s State) SelectedLeads() []lead.Lead {
	ids := make(map[string]struct{}, len(s.Selected))
	for id, on := range s.Selected {
		if on {
			ids[id] = struct{}{}
		}
	}
	return lead.Select(s.Leads, ids)
}

func (s State) hasLead(id string) bool {
	for _, l := range s.Leads {
		if l.ID == id {
			return true
		}
	}
	return false
}

// next copies s with a bumped version. Leads share the backing array, which is
// fine because nothing writes to a State's slice after construction.
func (s State) next(now time.Time) State {
	sel := make(map[string]bool, len(s.Selected))
	for id, on := range s.Selected {
		if on {
			sel[id] = true
		}
	}
	leads := s.Leads
	if leads == nil {
		leads = []lead.Lead{}
	}
	return State{
		ID:        s.ID,
		Version:   s.Version + 1,
		Leads:     leads,
		Selected:  sel,
		UpdatedAt: now,
	}
}
