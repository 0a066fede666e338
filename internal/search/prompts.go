package search

import (
	"fmt"
	"strings"

	"github.com/shpitdev/leadfinder/internal/lead"
	"github.com/shpitdev/leadfinder/internal/markdown"
)

// DiscoveryPrompt builds the prompt asking for params.Limit businesses as a
// markdown table with the markdown.LeadColumns header.
func DiscoveryPrompt(params lead.SearchParams) string {
	p := params.Normalize()

	var target string
	switch {
	case p.Keyword != "" && p.City != "":
		target = fmt.Sprintf("related to %q in %s", p.Keyword, location(p.City, p.Country))
	default:
		target = "matching the request below"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Find EXACTLY %d REAL, existing businesses %s.\n\n", p.Limit, target)
	if p.Instructions != "" {
		b.WriteString("Request details from the user:\n")
		b.WriteString(p.Instructions)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, `CRITICAL INSTRUCTIONS:
1. You MUST search using Google Maps and Google Search to find real, existing businesses.
2. DO NOT invent contact information. If you cannot find a specific email or phone number for a business, write "N/A".
3. Provide as many valid results as requested (%d), but only if they exist. Do not make up businesses to fill the quota.

For each business, find:
1. Business Name
2. Specific Business Category (e.g. "Dental Clinic", "Italian Restaurant")
3. 3 Related Keywords describing their services (comma separated)
4. Email Address (if publicly available)
5. Phone Number
6. Website URL (if available)
7. Full Address
8. A Google Maps Link

OUTPUT FORMAT:
Provide the result STRICTLY as a Markdown table.
The table headers MUST be exactly: %s

Do not add any conversational text before or after the table. Just the table.
`, p.Limit, headerRow(markdown.LeadColumns))
	return b.String()
}

// EnrichmentPrompt builds the prompt asking for the email and website of each
// lead, keyed by the lead's ID.
func EnrichmentPrompt(leads []lead.Lead) string {
	var list strings.Builder
	for _, l := range leads {
		fmt.Fprintf(&list, "- ID: %s\n  Name: %s\n  Address: %s\n", l.ID, l.Name, l.Address)
	}

	return fmt.Sprintf(`You are an expert lead researcher. The businesses below are missing contact info.
For EACH business, find its Official Website and Contact Email.

Businesses to enrich:
%s
STEPS FOR EACH BUSINESS:
1. GOOGLE MAPS LISTING (primary source): find the listing by Name and Address. If the listing has a Website field, use it.
2. GOOGLE SEARCH (secondary source): if a website was found, search that domain for a contact email (e.g. "site:example.com email contact"). Otherwise search the business name to find its site.
3. SOCIAL MEDIA: if no website is found, look for a Facebook or Instagram page, which often lists an email.

OUTPUT FORMAT:
Return a Markdown table with EXACTLY these columns: %s

CONSTRAINTS:
- The ID MUST match the ID provided in the input list exactly.
- If you find a website, provide the full URL.
- If you cannot find an email or website after checking Maps and Search, write "N/A".
- Do not invent data. Only return what you find.

Output just the Markdown table.
`, list.String(), headerRow(markdown.EnrichmentColumns))
}

func location(city, country string) string {
	if country == "" {
		return city
	}
	return city + ", " + country
}

func headerRow(cols []string) string {
	return "| " + strings.Join(cols, " | ") + " |"
}
