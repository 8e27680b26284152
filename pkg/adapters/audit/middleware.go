package audit

import (
	"context"
	"regexp"

	"github.com/aretw0/srag/pkg/domain"
	"github.com/aretw0/srag/pkg/ports"
)

// Middleware allows wrapping an AuditSink to add behavior.
type Middleware func(ports.AuditSink) ports.AuditSink

// Mask replaces every match of a masking pattern.
const Mask = "***"

// Common patterns for Brazilian personal data.
var (
	PatternCPF   = `\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`
	PatternEmail = `[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`
	PatternPhone = `\(?\b\d{2}\)?\s?9?\d{4}-\d{4}\b`
)

type piiMiddleware struct {
	next     ports.AuditSink
	patterns []*regexp.Regexp
}

// NewPIIMiddleware masks values matching the patterns in every text field
// of the recorded states and in the decision. It returns an error for an
// invalid pattern.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns[i] = re
	}
	return func(next ports.AuditSink) ports.AuditSink {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

// Record masks a copy of event; the engine's own state is untouched.
func (m *piiMiddleware) Record(ctx context.Context, event domain.AuditEvent) error {
	event.InputState = m.maskState(event.InputState)
	event.OutputState = m.maskState(event.OutputState)
	event.Decision = m.mask(event.Decision)
	return m.next.Record(ctx, event)
}

// Events passes through when the wrapped sink can be read back.
func (m *piiMiddleware) Events(ctx context.Context) ([]domain.AuditEvent, error) {
	if r, ok := m.next.(ports.AuditReader); ok {
		return r.Events(ctx)
	}
	return nil, nil
}

func (m *piiMiddleware) maskState(s domain.State) domain.State {
	s.Question = m.mask(s.Question)
	for _, p := range []**string{&s.GeneratedQuery, &s.QueryResult, &s.Summary, &s.Explanation, &s.News, &s.FinalResult} {
		if *p != nil {
			*p = domain.Text(m.mask(**p))
		}
	}
	return s
}

func (m *piiMiddleware) mask(v string) string {
	for _, p := range m.patterns {
		v = p.ReplaceAllString(v, Mask)
	}
	return v
}
