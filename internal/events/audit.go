package events

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// AuditLogger appends one JSON line per event to a log file, giving a
// durable record of what was created and launched.
type AuditLogger struct {
	mu   sync.Mutex
	file *os.File
}

type auditRecord struct {
	Time string         `json:"time"`
	Type EventType      `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// NewAuditLogger opens (or creates) the audit log for appending.
func NewAuditLogger(path string) (*AuditLogger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &AuditLogger{file: f}, nil
}

// Attach subscribes the logger to the given event types and returns a
// function that unsubscribes all of them.
func (a *AuditLogger) Attach(bus *Bus, types ...EventType) func() {
	unsubs := make([]func(), 0, len(types))
	for _, et := range types {
		unsubs = append(unsubs, bus.Subscribe(et, a.Record))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Record writes one event; write errors are swallowed because auditing is
// best-effort and must never fail a spawn.
func (a *AuditLogger) Record(e Event) {
	line, err := json.Marshal(auditRecord{
		Time: e.Timestamp.Format(time.RFC3339),
		Type: e.Type,
		Data: e.Data,
	})
	if err != nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	_, _ = a.file.Write(append(line, '\n'))
}

func (a *AuditLogger) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Close()
}
