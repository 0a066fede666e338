package markdown

import (
	"github.com/google/uuid"

	"github.com/shpitdev/leadfinder/internal/lead"
)

// LeadColumns is the exact header order the discovery prompt asks for.
var LeadColumns = []string{"Name", "Category", "Keywords", "Email", "Phone", "Website", "Address", "Maps Link"}

// IDFunc generates a fresh lead identifier.
type IDFunc func() string

// ParseLeads extracts leads from a discovery response, assigning each a random
// UUID.
func ParseLeads(text string) []lead.Lead {
	return ParseLeadsWithIDs(text, uuid.NewString)
}

// ParseLeadsWithIDs is ParseLeads with a caller-supplied ID generator. Rows
// whose name is empty after cleanup are dropped.
func ParseLeadsWithIDs(text string, newID IDFunc) []lead.Lead {
	if newID == nil {
		newID = uuid.NewString
	}
	return parseTable(text, tableShape[lead.Lead]{
		headerTerms: []string{"name", "category"},
		minCols:     len(LeadColumns),
		row: func(c []string) (lead.Lead, bool) {
			if c[0] == "" {
				return lead.Lead{}, false
			}
			return lead.Lead{
				ID:       newID(),
				Name:     c[0],
				Category: orEmpty(c[1]),
				Keywords: orEmpty(c[2]),
				Email:    orEmpty(c[3]),
				Phone:    orEmpty(c[4]),
				Website:  orEmpty(unwrapLink(c[5])),
				Address:  c[6],
				MapsLink: unwrapLink(c[7]),
			}, true
		},
	})
}
