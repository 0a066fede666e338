package markdown

import "github.com/shpitdev/leadfinder/internal/lead"

// EnrichmentColumns is the exact header order the enrichment prompt asks for.
var EnrichmentColumns = []string{"ID", "Email", "Website"}

// ParseEnrichment extracts email/website patches from an enrichment response.
// IDs are returned exactly as written (after trimming and bold removal).
func ParseEnrichment(text string) []lead.EnrichmentResult {
	return parseTable(text, tableShape[lead.EnrichmentResult]{
		headerTerms: []string{"id", "website"},
		minCols:     len(EnrichmentColumns),
		row: func(c []string) (lead.EnrichmentResult, bool) {
			return lead.EnrichmentResult{
				ID:      c[0],
				Email:   orEmpty(c[1]),
				Website: orEmpty(unwrapLink(c[2])),
			}, true
		},
	})
}
