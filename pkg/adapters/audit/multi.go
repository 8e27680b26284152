// Package audit combines audit sinks.
package audit

import (
	"context"
	"errors"

	"github.com/aretw0/srag/pkg/domain"
	"github.com/aretw0/srag/pkg/ports"
)

// Multi records every event in all of its sinks.
type Multi []ports.AuditSink

// NewMulti drops nil sinks.
func NewMulti(sinks ...ports.AuditSink) Multi {
	out := make(Multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Record writes to each sink. A failing sink does not stop the others.
func (m Multi) Record(ctx context.Context, event domain.AuditEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
