package domain

// State is the conversation record threaded through the machine.
// Optional fields are pointers: nil means the field was never written.
// Nodes never mutate a pointed-to value; they assign a fresh pointer instead,
// so a shallow copy is a safe snapshot.
type State struct {
	// Question is set at creation and never changes afterwards.
	Question string `json:"question"`

	GeneratedQuery *string `json:"generated_query,omitempty"`
	QueryResult    *string `json:"query_result,omitempty"`
	Summary        *string `json:"summary,omitempty"`
	Explanation    *string `json:"explanation,omitempty"`
	News           *string `json:"news,omitempty"`

	// FinalResult is the externally observable answer.
	FinalResult *string `json:"final_result,omitempty"`

	// NextNode is the transient routing directive written by the router.
	NextNode *string `json:"next_node,omitempty"`
}

// NewState creates a state seeded with only the question.
func NewState(question string) State {
	return State{Question: question}
}

// Text returns a pointer to a copy of v.
func Text(v string) *string {
	return &v
}

func get(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	return *p, true
}

// Query returns the generated query and whether one was written.
func (s State) Query() (string, bool) { return get(s.GeneratedQuery) }

// Result returns the canonical query result and whether one was written.
func (s State) Result() (string, bool) { return get(s.QueryResult) }

// Final returns the final result and whether one was written.
func (s State) Final() (string, bool) { return get(s.FinalResult) }

// Next returns the routing directive and whether one was written.
func (s State) Next() (string, bool) { return get(s.NextNode) }

// Terminal reports whether a final result has been written.
func (s State) Terminal() bool { return s.FinalResult != nil }

// WithFinal returns a copy of s carrying the final result.
func (s State) WithFinal(v string) State {
	s.FinalResult = Text(v)
	return s
}

// WithoutNext returns a copy of s with the routing directive removed.
func (s State) WithoutNext() State {
	s.NextNode = nil
	return s
}
