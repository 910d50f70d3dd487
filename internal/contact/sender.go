package contact

import (
	"context"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

// Message is what the controller hands to a Sender once the form is valid
// and the gate is open.
type Message struct {
	ReferenceID string    `json:"reference_id"`
	Form        Form      `json:"form"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Sender delivers a submitted message. It is the integration seam for a
// real mail relay.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

// SimulatedSender waits a fixed latency and reports success. Nothing is
// stored or mailed.
type SimulatedSender struct {
	Latency time.Duration
	Clock   Clock
	Logger  zerolog.Logger
}

// NewSimulatedSender constructs a simulated provider on the given clock.
func NewSimulatedSender(latency time.Duration, clock Clock, logger zerolog.Logger) *SimulatedSender {
	if clock == nil {
		clock = SystemClock{}
	}
	return &SimulatedSender{
		Latency: latency,
		Clock:   clock,
		Logger:  logger.With().Str("component", "contact_delivery").Logger(),
	}
}

// Send blocks for the configured latency or until ctx is done.
func (s *SimulatedSender) Send(ctx context.Context, msg Message) error {
	if s.Latency > 0 {
		select {
		case <-s.Clock.After(s.Latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.Logger.Info().
		Str("reference_id", msg.ReferenceID).
		Int("message_chars", len(msg.Form.Message)).
		Msg("contact submission delivered to inbox")
	return nil
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// Sanitize strips all markup from every field and returns plain text.
// The policy output is HTML-escaped, so entities are decoded again before
// the message leaves for a Sender.
func Sanitize(f Form) Form {
	p := plainText()
	clean := func(s string) string {
		return strings.TrimSpace(html.UnescapeString(p.Sanitize(s)))
	}
	return Form{
		Name:    clean(f.Name),
		Email:   clean(f.Email),
		Subject: clean(f.Subject),
		Message: clean(f.Message),
	}
}

func plainText() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}
