package lead

// Lead is a business record parsed from a discovery response.
//
// Every field is a plain string; an empty string means "unknown".
type Lead struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Keywords string `json:"keywords"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Website  string `json:"website"`
	Address  string `json:"address"`
	MapsLink string `json:"mapsLink"`
}

// EnrichmentResult is a transient email/website patch for an existing Lead.
type EnrichmentResult struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Website string `json:"website"`
}

// Sentinel reports whether v is one of the literal "value unknown" markers the
// model uses in its tables.
func Sentinel(v string) bool {
	return v == "N/A" || v == "-"
}
