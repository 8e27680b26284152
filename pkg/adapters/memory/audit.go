package memory

import (
	"context"
	"sync"

	"github.com/aretw0/srag/pkg/domain"
)

// AuditLog implements ports.AuditSink in memory.
// Safe for concurrent use.
type AuditLog struct {
	events []domain.AuditEvent
	mu     sync.RWMutex
}

// NewAuditLog creates an empty in-memory audit log.
func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

// Record appends the event.
func (l *AuditLog) Record(ctx context.Context, event domain.AuditEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

// Events returns a copy of the recorded events in append order.
func (l *AuditLog) Events(ctx context.Context) ([]domain.AuditEvent, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.AuditEvent(nil), l.events...), nil
}

// ByRequest returns the events of one request in append order.
func (l *AuditLog) ByRequest(requestID string) []domain.AuditEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []domain.AuditEvent
	for _, e := range l.events {
		if e.RequestID == requestID {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops every recorded event.
func (l *AuditLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}
