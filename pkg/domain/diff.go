package domain

// Diff lists the state fields whose presence or value differs between
// oldState and newState, using their JSON names.
func Diff(oldState, newState State) []string {
	var changed []string
	if oldState.Question != newState.Question {
		changed = append(changed, "question")
	}
	fields := []struct {
		name     string
		old, new *string
	}{
		{"generated_query", oldState.GeneratedQuery, newState.GeneratedQuery},
		{"query_result", oldState.QueryResult, newState.QueryResult},
		{"summary", oldState.Summary, newState.Summary},
		{"explanation", oldState.Explanation, newState.Explanation},
		{"news", oldState.News, newState.News},
		{"final_result", oldState.FinalResult, newState.FinalResult},
		{"next_node", oldState.NextNode, newState.NextNode},
	}
	for _, f := range fields {
		if !sameText(f.old, f.new) {
			changed = append(changed, f.name)
		}
	}
	return changed
}

func sameText(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
