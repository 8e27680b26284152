package redis

import (
	"context"
	"encoding/json"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/srag/pkg/domain"
)

// DefaultKey is the list that receives audit events.
const DefaultKey = "srag:audit"

// AuditLog implements ports.AuditSink on a Redis list.
// Every event is one RPUSH, so concurrent writers never interleave.
type AuditLog struct {
	client *backend.Client
	key    string
	maxLen int64
}

// Option configures an AuditLog.
type Option func(*AuditLog)

// WithKey sets the list key.
func WithKey(key string) Option {
	return func(l *AuditLog) {
		l.key = key
	}
}

// WithMaxLen keeps only the newest n events. Zero keeps everything.
func WithMaxLen(n int64) Option {
	return func(l *AuditLog) {
		l.maxLen = n
	}
}

// New creates an audit log connected to address.
func New(address, password string, db int, opts ...Option) *AuditLog {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates an audit log from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *AuditLog {
	l := &AuditLog{
		client: client,
		key:    DefaultKey,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record appends the event to the list.
func (l *AuditLog) Record(ctx context.Context, event domain.AuditEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	pipe := l.client.Pipeline()
	pipe.RPush(ctx, l.key, data)
	if l.maxLen > 0 {
		pipe.LTrim(ctx, l.key, -l.maxLen, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	return nil
}

// Events reads the whole list in append order.
func (l *AuditLog) Events(ctx context.Context) ([]domain.AuditEvent, error) {
	raw, err := l.client.LRange(ctx, l.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	events := make([]domain.AuditEvent, 0, len(raw))
	for i, r := range raw {
		var e domain.AuditEvent
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit event %d: %w", i, err)
		}
		events = append(events, e)
	}
	return events, nil
}

// Close closes the redis client.
func (l *AuditLog) Close() error {
	return l.client.Close()
}
