package muscles

import "strings"

const maxSecondary = 3

// NormalizeLabels trims the primary label and keeps the first three
// non-empty secondary labels in order. An empty primary means the payload is
// unusable. Taxonomy membership is not checked here.
func NormalizeLabels(payload ClassificationPayload) (string, []string) {
	primary := strings.TrimSpace(payload.Primary)
	secondary := make([]string, 0, maxSecondary)
	for _, s := range payload.Secondary {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		secondary = append(secondary, s)
		if len(secondary) == maxSecondary {
			break
		}
	}
	return primary, secondary
}

// restrictToTaxonomy rewrites labels to their taxonomy spelling and drops
// secondary labels the taxonomy does not know. The primary is left as is so
// the caller can reject it.
func restrictToTaxonomy(payload ClassificationPayload, taxonomy Taxonomy) ClassificationPayload {
	out := ClassificationPayload{Primary: payload.Primary}
	if canonical, ok := taxonomy.Canonical(payload.Primary); ok {
		out.Primary = canonical
	}
	for _, s := range payload.Secondary {
		if canonical, ok := taxonomy.Canonical(s); ok {
			out.Secondary = append(out.Secondary, canonical)
		}
	}
	return out
}
