package markdown_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/shpitdev/leadfinder/internal/lead"
	"github.com/shpitdev/leadfinder/internal/markdown"
)

const leadHeader = "| Name | Category | Keywords | Email | Phone | Website | Address | Maps Link |\n|---|---|---|---|---|---|---|---|\n"

func seqIDs() markdown.IDFunc {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestParseLeads_RoundTrip(t *testing.T) {
	text := leadHeader +
		"| Acme | Bakery | bread, cake | a@x.com | 555 | http://acme.com | 1 Main St | https://maps/x |\n" +
		"|  Beta  | Florist | roses | b@x.com | 556 | http://beta.com | 2 Main St | https://maps/y |\n"

	got := markdown.ParseLeads(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 leads, got %d: %#v", len(got), got)
	}

	want := lead.Lead{
		Name:     "Acme",
		Category: "Bakery",
		Keywords: "bread, cake",
		Email:    "a@x.com",
		Phone:    "555",
		Website:  "http://acme.com",
		Address:  "1 Main St",
		MapsLink: "https://maps/x",
	}
	if diff := cmp.Diff(want, got[0], cmpopts.IgnoreFields(lead.Lead{}, "ID")); diff != "" {
		t.Fatalf("lead mismatch (-want +got):\n%s", diff)
	}
	if got[1].Name != "Beta" {
		t.Fatalf("expected trimmed name, got %q", got[1].Name)
	}
	if got[0].ID == "" || got[1].ID == "" || got[0].ID == got[1].ID {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", got[0].ID, got[1].ID)
	}
}

func TestParseLeads_NoTable(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "empty", in: ""},
		{name: "prose", in: "I could not find any businesses matching your query."},
		{name: "table without required header terms", in: "| Foo | Bar |\n|---|---|\n| a | b |\n"},
		{name: "header words without pipes", in: "Name and Category follow\nAcme Bakery\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := markdown.ParseLeads(tt.in); len(got) != 0 {
				t.Fatalf("expected no leads, got %#v", got)
			}
		})
	}
}

func TestParseLeads_HeaderOnly(t *testing.T) {
	if got := markdown.ParseLeads(leadHeader); len(got) != 0 {
		t.Fatalf("expected no leads, got %#v", got)
	}
	if got := markdown.ParseLeads("| Name | Category |"); len(got) != 0 {
		t.Fatalf("expected no leads for lone header, got %#v", got)
	}
}

func TestParseLeads_Sentinels(t *testing.T) {
	text := leadHeader +
		"| N/A | N/A | - | N/A | - | N/A | N/A | N/A |\n"

	got := markdown.ParseLeadsWithIDs(text, seqIDs())
	want := []lead.Lead{{
		ID:       "id-1",
		Name:     "N/A",
		Address:  "N/A",
		MapsLink: "N/A",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sentinel handling mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLeads_CellCleanup(t *testing.T) {
	text := "Here are the businesses I found:\n\n" +
		leadHeader +
		"| **Acme Bakery** | **Bakery** | bread | N/A | +34 600 | [Visit](https://example.com) | Calle 1 | [Map](https://maps.google.com/?cid=1) |\n" +
		"| Short | Row | only |\n" +
		"not a row at all\n" +
		"| Gamma | Gym | fitness | g@x.com | 1 | https://gamma.test | Calle 3 | https://maps/g |\n" +
		"\nLet me know if you need more.\n"

	got := markdown.ParseLeadsWithIDs(text, seqIDs())
	want := []lead.Lead{
		{
			ID:       "id-1",
			Name:     "Acme Bakery",
			Category: "Bakery",
			Keywords: "bread",
			Phone:    "+34 600",
			Website:  "https://example.com",
			Address:  "Calle 1",
			MapsLink: "https://maps.google.com/?cid=1",
		},
		{
			ID:       "id-2",
			Name:     "Gamma",
			Category: "Gym",
			Keywords: "fitness",
			Email:    "g@x.com",
			Phone:    "1",
			Website:  "https://gamma.test",
			Address:  "Calle 3",
			MapsLink: "https://maps/g",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLeads_WindowsLineEndings(t *testing.T) {
	text := strings.ReplaceAll(leadHeader+"| Acme | Bakery | k | e | p | w | a | m |\n", "\n", "\r\n")
	got := markdown.ParseLeads(text)
	if len(got) != 1 || got[0].MapsLink != "m" {
		t.Fatalf("unexpected leads: %#v", got)
	}
}

func TestParseLeads_SeparatorNotValidated(t *testing.T) {
	// The line after the header is skipped whatever it contains.
	text := "| Name | Category | Keywords | Email | Phone | Website | Address | Maps Link |\n" +
		"| Skipped | x | x | x | x | x | x | x |\n" +
		"| Kept | x | x | x | x | x | x | x |\n"
	got := markdown.ParseLeads(text)
	if len(got) != 1 || got[0].Name != "Kept" {
		t.Fatalf("unexpected leads: %#v", got)
	}
}

func TestParseLeads_ExtraColumnsIgnored(t *testing.T) {
	text := leadHeader + "| Acme | Bakery | k | e | p | w | a | m | extra | more |\n"
	got := markdown.ParseLeads(text)
	if len(got) != 1 || got[0].MapsLink != "m" {
		t.Fatalf("unexpected leads: %#v", got)
	}
}

func TestParseEnrichment(t *testing.T) {
	text := "Results:\n" +
		"| ID | Email | Website |\n" +
		"|----|-------|---------|\n" +
		"| **abc-1** | info@acme.test | [acme.test](https://acme.test) |\n" +
		"| abc-2 | N/A | - |\n" +
		"| abc-3 | only-two |\n" +
		"| ABC-4 | x@y.z | https://y.z |\n"

	got := markdown.ParseEnrichment(text)
	want := []lead.EnrichmentResult{
		{ID: "abc-1", Email: "info@acme.test", Website: "https://acme.test"},
		{ID: "abc-2"},
		{ID: "ABC-4", Email: "x@y.z", Website: "https://y.z"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("enrichment mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEnrichment_NoHeader(t *testing.T) {
	if got := markdown.ParseEnrichment("| Email | Phone |\n|---|---|\n| a | b |\n"); len(got) != 0 {
		t.Fatalf("expected no results, got %#v", got)
	}
}

func TestParseEnrichment_RejectsLeadTableHeaderWithoutID(t *testing.T) {
	// "Website" alone is not enough; the header also needs "id".
	if got := markdown.ParseEnrichment("| Email | Website |\n|---|---|\n| a | b | c |\n"); len(got) != 0 {
		t.Fatalf("expected no results, got %#v", got)
	}
}

func TestParseLeads_DropsEmptyName(t *testing.T) {
	text := leadHeader +
		"|  | Bakery | k | e@x.com | 1 | https://a | addr | m |\n" +
		"| **** | Cafe | k | N/A | 1 | - | addr | m |\n" +
		"| Acme | Florist | roses | N/A | 2 | - | 1 Main St | m |\n"

	got := markdown.ParseLeadsWithIDs(text, seqIDs())
	if len(got) != 1 {
		t.Fatalf("expected only the named row, got %#v", got)
	}
	if got[0].Name != "Acme" {
		t.Fatalf("unexpected lead: %#v", got[0])
	}
	if got[0].ID != "id-1" {
		t.Fatalf("dropped rows must not consume ids, got %q", got[0].ID)
	}
}

func TestParseEnrichment_KeepsEmptyID(t *testing.T) {
	got := markdown.ParseEnrichment("| ID | Email | Website |\n|---|---|---|\n|  | a@x.com | N/A |\n")
	if len(got) != 1 || got[0].ID != "" || got[0].Email != "a@x.com" {
		t.Fatalf("unexpected results: %#v", got)
	}
}
