package goToken

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// SecurityAlert is the fire-and-forget event emitted to the notification
// collaborator when validation escalates. The engine never waits for or
// depends on delivery.
type SecurityAlert struct {
	Timestamp   time.Time `json:"timestamp"`
	UserID      string    `json:"user_id,omitempty"`
	AlertType   string    `json:"alert_type"`
	Severity    string    `json:"severity"`
	RiskFactors []string  `json:"risk_factors,omitempty"`
	IP          string    `json:"ip,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	JTI         string    `json:"jti,omitempty"`
}

// AlertSink receives security alerts. Implementations must not block for
// long: Emit is called from a single dispatcher goroutine.
type AlertSink interface {
	Emit(ctx context.Context, alert SecurityAlert)
}

// NoOpSink discards every alert.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, SecurityAlert) {}

// ChannelSink forwards alerts to a buffered channel for in-process
// consumers.
type ChannelSink struct {
	alerts chan SecurityAlert
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		alerts: make(chan SecurityAlert, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, alert SecurityAlert) {
	select {
	case s.alerts <- alert:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Alerts() <-chan SecurityAlert {
	return s.alerts
}

// JSONWriterSink writes one JSON object per alert, newline-delimited.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, alert SecurityAlert) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(alert)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
