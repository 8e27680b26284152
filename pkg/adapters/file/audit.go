package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/srag/pkg/domain"
)

// DefaultPath is used when no path is configured.
var DefaultPath = filepath.Join(".srag", "audit.jsonl")

// AuditLog implements ports.AuditSink as a JSON Lines file.
// Each event is written with a single call while holding the lock, so
// records from concurrent runs never interleave.
type AuditLog struct {
	path string
	mu   sync.Mutex
}

// NewAuditLog creates a file audit log. An empty path selects DefaultPath.
func NewAuditLog(path string) *AuditLog {
	if path == "" {
		path = DefaultPath
	}
	return &AuditLog{path: path}
}

// Path returns the file receiving events.
func (l *AuditLog) Path() string {
	return l.path
}

// Record appends the event as one line.
func (l *AuditLog) Record(ctx context.Context, event domain.AuditEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to ensure audit directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write audit event: %w", err)
	}
	return f.Close()
}

// Events reads every event in file order. A missing file has no events.
func (l *AuditLog) Events(ctx context.Context) ([]domain.AuditEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var events []domain.AuditEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e domain.AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("failed to parse audit line %d: %w", line, err)
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	return events, nil
}
