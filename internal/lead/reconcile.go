package lead

import "strings"

// NameKey is the dedupe key for a lead name: lowercased and trimmed.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IngestMerge prepends the leads from batch whose name is not already present
// in existing. Existing leads keep their values and relative order; the
// accepted batch leads keep theirs.
//
// Only names already in existing are checked. Two rows with the same name in
// one batch are both kept.
func IngestMerge(existing, batch []Lead) []Lead {
	seen := make(map[string]struct{}, len(existing))
	for _, l := range existing {
		seen[NameKey(l.Name)] = struct{}{}
	}

	out := make([]Lead, 0, len(batch)+len(existing))
	for _, l := range batch {
		if _, dup := seen[NameKey(l.Name)]; dup {
			continue
		}
		out = append(out, l)
	}
	return append(out, existing...)
}

// EnrichMerge applies enrichment results to the leads with matching IDs.
//
// A field is only overwritten when the result carries a non-empty, non-sentinel
// value. Results for unknown IDs are ignored. When several results share an ID
// the first one wins.
func EnrichMerge(existing []Lead, results []EnrichmentResult) []Lead {
	byID := make(map[string]EnrichmentResult, len(results))
	for _, r := range results {
		if _, ok := byID[r.ID]; ok {
			continue
		}
		byID[r.ID] = r
	}

	out := make([]Lead, len(existing))
	for i, l := range existing {
		if r, ok := byID[l.ID]; ok {
			if usable(r.Email) {
				l.Email = r.Email
			}
			if usable(r.Website) {
				l.Website = r.Website
			}
		}
		out[i] = l
	}
	return out
}

// Select returns the leads whose IDs are in ids, in collection order.
func Select(leads []Lead, ids map[string]struct{}) []Lead {
	var out []Lead
	for _, l := range leads {
		if _, ok := ids[l.ID]; ok {
			out = append(out, l)
		}
	}
	return out
}

func usable(v string) bool {
	return v != "" && !Sentinel(v)
}
