package guardrail

import "strings"

// MinNewsLength is the shortest retrieval accepted as a real result.
const MinNewsLength = 30

// DefaultLocaleMarkers indicate domestic relevance of a news result.
var DefaultLocaleMarkers = []string{"brasil", ".br"}

// IsValidNewsResult rejects empty or short text and text with no locale marker.
func IsValidNewsResult(text string) bool {
	if len(text) < MinNewsLength {
		return false
	}
	lower := strings.ToLower(text)
	for _, marker := range DefaultLocaleMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
