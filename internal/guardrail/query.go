package guardrail

import "strings"

// ReadOnlyKeyword is the only statement verb a query may start with.
const ReadOnlyKeyword = "select"

// DefaultAllowedTables lists the tables a query may reference.
var DefaultAllowedTables = []string{"srag_cases"}

// DefaultQueryDenylist holds comment and administrative-procedure markers.
var DefaultQueryDenylist = []string{"--", "/*", "*/", "xp_"}

// QueryPolicy validates generated queries. It makes no external calls.
type QueryPolicy struct {
	AllowedTables []string
	Denylist      []string
}

// DefaultQueryPolicy returns the policy for the surveillance table.
func DefaultQueryPolicy() QueryPolicy {
	return QueryPolicy{
		AllowedTables: DefaultAllowedTables,
		Denylist:      DefaultQueryDenylist,
	}
}

// StartsReadOnly reports whether query begins with the read-only keyword
// once surrounding whitespace is trimmed.
func StartsReadOnly(query string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(query)), ReadOnlyKeyword)
}

// IsValid requires the read-only prefix, at least one allow-listed table and
// none of the denylisted markers.
func (p QueryPolicy) IsValid(query string) bool {
	if !StartsReadOnly(query) {
		return false
	}
	lower := strings.ToLower(query)

	referenced := false
	for _, tbl := range p.AllowedTables {
		if strings.Contains(lower, strings.ToLower(tbl)) {
			referenced = true
			break
		}
	}
	if !referenced {
		return false
	}

	for _, bad := range p.Denylist {
		if strings.Contains(lower, strings.ToLower(bad)) {
			return false
		}
	}
	return true
}

// IsValidQuery validates query with the default policy.
func IsValidQuery(query string) bool {
	return DefaultQueryPolicy().IsValid(query)
}
