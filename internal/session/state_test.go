package session_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/shpitdev/leadfinder/internal/lead"
	"github.com/shpitdev/leadfinder/internal/session"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestState_ApplyDiscoveryPrependsAndBumpsVersion(t *testing.T) {
	st := session.New("s1", t0)
	st1 := st.ApplyDiscovery([]lead.Lead{{ID: "1", Name: "Acme"}}, t0)
	st2 := st1.ApplyDiscovery([]lead.Lead{{ID: "2", Name: "Beta"}, {ID: "3", Name: "acme "}}, t0)

	if st.Version != 1 || st1.Version != 2 || st2.Version != 3 {
		t.Fatalf("unexpected versions %d %d %d", st.Version, st1.Version, st2.Version)
	}
	if len(st.Leads) != 0 || len(st1.Leads) != 1 {
		t.Fatalf("earlier states were mutated: %#v %#v", st.Leads, st1.Leads)
	}
	want := []lead.Lead{{ID: "2", Name: "Beta"}, {ID: "1", Name: "Acme"}}
	if diff := cmp.Diff(want, st2.Leads); diff != "" {
		t.Fatalf("leads mismatch (-want +got):\n%s", diff)
	}
}

func TestState_Selection(t *testing.T) {
	st := session.New("s1", t0).ApplyDiscovery([]lead.Lead{
		{ID: "1", Name: "A"}, {ID: "2", Name: "B"}, {ID: "3", Name: "C"},
	}, t0)

	st, err := st.Toggle("3", t0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st, _ = st.Toggle("1", t0)
	got := st.SelectedLeads()
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Fatalf("unexpected selection: %#v", got)
	}

	before := st
	st, _ = st.Toggle("1", t0)
	if len(st.SelectedLeads()) != 1 || len(before.SelectedLeads()) != 2 {
		t.Fatalf("toggle off failed or mutated previous state")
	}

	if _, err := st.Toggle("missing", t0); !errors.Is(err, session.ErrUnknownLead) {
		t.Fatalf("expected ErrUnknownLead, got %v", err)
	}

	all := st.SelectAll(true, t0)
	if len(all.SelectedLeads()) != 3 {
		t.Fatalf("select all: %#v", all.Selected)
	}
	none := all.SelectAll(false, t0)
	if len(none.SelectedLeads()) != 0 {
		t.Fatalf("select none: %#v", none.Selected)
	}
}

func TestState_ApplyEnrichmentClearsSelection(t *testing.T) {
	st := session.New("s1", t0).ApplyDiscovery([]lead.Lead{{ID: "1", Name: "A"}, {ID: "2", Name: "B"}}, t0)
	st = st.SelectAll(true, t0)

	st = st.ApplyEnrichment([]lead.EnrichmentResult{{ID: "2", Email: "b@x.com"}}, t0)
	if len(st.Selected) != 0 {
		t.Fatalf("selection not cleared: %#v", st.Selected)
	}
	if st.Leads[1].Email != "b@x.com" || st.Leads[0].Email != "" {
		t.Fatalf("unexpected leads: %#v", st.Leads)
	}
}

func TestState_Clear(t *testing.T) {
	st := session.New("s1", t0).ApplyDiscovery([]lead.Lead{{ID: "1", Name: "A"}}, t0).SelectAll(true, t0)
	cleared := st.Clear(t0.Add(time.Minute))
	if len(cleared.Leads) != 0 || len(cleared.Selected) != 0 {
		t.Fatalf("clear left data: %#v", cleared)
	}
	if !cleared.UpdatedAt.Equal(t0.Add(time.Minute)) {
		t.Fatalf("UpdatedAt not advanced")
	}
	if len(st.Leads) != 1 {
		t.Fatalf("clear mutated previous state")
	}
}
