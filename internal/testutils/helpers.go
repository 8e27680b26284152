package testutils

import (
	"context"
	"sync"

	"github.com/aretw0/srag/pkg/ports"
)

// Generator is a scripted ports.Generator that records every prompt.
type Generator struct {
	// Reply answers a prompt. If nil, Text and Err are returned.
	Reply func(prompt string) (string, error)
	Text  string
	Err   error

	mu      sync.Mutex
	prompts []string
}

// Generate implements ports.Generator.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.Reply != nil {
		return g.Reply(prompt)
	}
	return g.Text, g.Err
}

// Calls returns how many prompts were received.
func (g *Generator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

// Prompts returns a copy of the received prompts.
func (g *Generator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

// Translator is a scripted ports.Translator.
type Translator struct {
	Query string
	Err   error

	mu    sync.Mutex
	calls int
	hints []string
}

// Translate implements ports.Translator.
func (t *Translator) Translate(ctx context.Context, question, schemaHint string) (string, error) {
	t.mu.Lock()
	t.calls++
	t.hints = append(t.hints, schemaHint)
	t.mu.Unlock()
	return t.Query, t.Err
}

// Calls returns how many translations were requested.
func (t *Translator) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Store is a scripted ports.DataStore.
type Store struct {
	Rows []ports.Row
	Err  error

	mu      sync.Mutex
	queries []string
}

// Execute implements ports.DataStore.
func (s *Store) Execute(ctx context.Context, query string) ([]ports.Row, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	return s.Rows, s.Err
}

// Queries returns the executed queries in order.
func (s *Store) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// News is a scripted ports.NewsSearcher.
type News struct {
	Text string
	Err  error

	mu      sync.Mutex
	queries []string
}

// Search implements ports.NewsSearcher.
func (n *News) Search(ctx context.Context, query string) (string, error) {
	n.mu.Lock()
	n.queries = append(n.queries, query)
	n.mu.Unlock()
	return n.Text, n.Err
}

// Queries returns the received search queries.
func (n *News) Queries() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.queries...)
}

// Summarizer is a scripted ports.Summarizer.
type Summarizer struct {
	Text string
	Err  error
}

// Summarize implements ports.Summarizer.
func (s *Summarizer) Summarize(ctx context.Context) (string, error) {
	return s.Text, s.Err
}
