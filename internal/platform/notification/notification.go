// Package notification delivers WhatsApp-style messages to patient mobile
// numbers. Delivery is fire-and-forget: callers log failures and never let
// them block the clinical workflow.
package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Notifier sends a message to a patient's mobile number.
type Notifier interface {
	Notify(ctx context.Context, mobile, message string) error
}

// Record is one delivered (or attempted) message kept for inspection.
type Record struct {
	ID      string    `json:"id"`
	Mobile  string    `json:"mobile"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
	Error   string    `json:"error,omitempty"`
}

// LogNotifier writes every message to the log instead of a real messaging
// gateway, and keeps an in-memory history.
type LogNotifier struct {
	logger zerolog.Logger

	mu      sync.Mutex
	history []Record
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the message and records it in the history.
func (n *LogNotifier) Notify(_ context.Context, mobile, message string) error {
	rec := Record{
		ID:      uuid.New().String(),
		Mobile:  mobile,
		Message: message,
		SentAt:  time.Now().UTC(),
	}

	n.mu.Lock()
	n.history = append(n.history, rec)
	n.mu.Unlock()

	n.logger.Info().
		Str("notification_id", rec.ID).
		Str("mobile", mobile).
		Str("message", message).
		Msg("whatsapp notification")
	return nil
}

// History returns a copy of all recorded messages in send order.
func (n *LogNotifier) History() []Record {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Record, len(n.history))
	copy(out, n.history)
	return out
}

// Call records a single Notify invocation on the mock.
type Call struct {
	Mobile  string
	Message string
}

// Mock is a test double for Notifier.
type Mock struct {
	mu         sync.Mutex
	calls      []Call
	ShouldFail bool
	FailError  string
}

// Notify records the call and optionally returns an error.
func (m *Mock) Notify(_ context.Context, mobile, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Mobile: mobile, Message: message})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded calls.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}
