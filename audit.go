package authcore

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// AuditEvent is one security-relevant occurrence: a sign-in, a token
// rotation, a replay rejection, a revocation.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	IP        string            `json:"ip,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives events from the dispatcher goroutine. Emit must
// be safe for concurrent use and should return promptly; slow sinks
// back up the dispatcher buffer.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink forwards events to a Go channel for in-process consumers.
type ChannelSink struct {
	events chan AuditEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line to an io.Writer.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
