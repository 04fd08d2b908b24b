package weather

// DedupeResults drops geocoding matches that repeat an earlier match with the
// same name, country and state. Matches without a state are always kept, even
// when an identical stateless match came before.
func DedupeResults(results []SearchResult) []SearchResult {
	unique := make([]SearchResult, 0, len(results))
	for _, r := range results {
		if !containsResult(unique, r) {
			unique = append(unique, r)
		}
	}
	return unique
}

func containsResult(list []SearchResult, r SearchResult) bool {
	if r.State == nil {
		return false
	}
	for _, existing := range list {
		if existing.Name == r.Name &&
			existing.Country == r.Country &&
			existing.State != nil && *existing.State == *r.State {
			return true
		}
	}
	return false
}
