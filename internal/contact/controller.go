package contact

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is the submission lifecycle stage.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	ErrInvalid      = errors.New("contact: form has invalid fields")
	ErrGateClosed   = errors.New("contact: verification not complete")
	ErrSubmitting   = errors.New("contact: submission in progress")
	ErrSubmitted    = errors.New("contact: message already submitted")
	ErrNotSubmitted = errors.New("contact: nothing to reset")
)

const (
	DefaultGateDelay     = 3 * time.Second
	DefaultLatency       = 2 * time.Second
	DefaultSubmitTimeout = 10 * time.Second
)

// Snapshot is a point-in-time copy of the controller for rendering.
type Snapshot struct {
	Form      Form   `json:"form"`
	Errors    Errors `json:"errors"`
	State     State  `json:"state"`
	GateReady bool   `json:"gate_ready"`
	// GateError is set when a submit was refused because the gate was still
	// closed. It clears once the gate opens.
	GateError bool `json:"gate_error"`
	// Failure holds the last delivery error, cleared on the next attempt.
	Failure string `json:"failure,omitempty"`
}

// Option configures a Controller.
type Option func(*Controller)

func WithSender(s Sender) Option {
	return func(c *Controller) { c.sender = s }
}

func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

func WithGateDelay(d time.Duration) Option {
	return func(c *Controller) { c.gateDelay = d }
}

// WithSubmitTimeout bounds a single delivery attempt. Zero disables it.
func WithSubmitTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// Controller owns one visitor's contact form. It is safe for concurrent use;
// at most one submission is in flight at a time.
type Controller struct {
	mu        sync.Mutex
	form      Form
	errs      Errors
	state     State
	gateReady bool
	gateError bool
	failure   string
	closed    bool

	sender    Sender
	clock     Clock
	gateDelay time.Duration
	timeout   time.Duration
	gateTimer Timer
	log       zerolog.Logger
}

// NewController builds a controller and starts its verification gate timer.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		errs:      Errors{},
		clock:     SystemClock{},
		gateDelay: DefaultGateDelay,
		timeout:   DefaultSubmitTimeout,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sender == nil {
		c.sender = NewSimulatedSender(DefaultLatency, c.clock, c.log)
	}

	if c.gateDelay <= 0 {
		c.gateReady = true
	} else {
		c.gateTimer = c.clock.AfterFunc(c.gateDelay, c.openGate)
	}
	return c
}

func (c *Controller) openGate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.gateReady {
		return
	}
	c.gateReady = true
	c.gateError = false
	c.log.Debug().Msg("verification gate open")
}

// ChangeField stores value and revalidates that field only.
func (c *Controller) ChangeField(field Field, value string) error {
	if !field.Valid() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSubmitting {
		return ErrSubmitting
	}
	c.form.set(field, value)
	if msg := ValidateField(field, value); msg != "" {
		c.errs[field] = msg
	} else {
		delete(c.errs, field)
	}
	return nil
}

// Submit validates the whole form, checks the gate and delivers the message.
// It blocks until delivery finishes. A delivery failure returns the form to
// idle with every field kept so the visitor can retry.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateSubmitting:
		c.mu.Unlock()
		return ErrSubmitting
	case StateSubmitted:
		c.mu.Unlock()
		return ErrSubmitted
	}

	c.failure = ""
	c.errs = Validate(c.form)
	if c.errs.Any() {
		c.mu.Unlock()
		return ErrInvalid
	}
	// Markup-only input can pass the raw checks and be empty once stripped.
	clean := Sanitize(c.form)
	if errs := Validate(clean); errs.Any() {
		c.errs = errs
		c.mu.Unlock()
		return ErrInvalid
	}
	if !c.gateReady {
		c.gateError = true
		c.mu.Unlock()
		return ErrGateClosed
	}

	c.state = StateSubmitting
	msg := Message{
		ReferenceID: uuid.NewString(),
		Form:        clean,
		SubmittedAt: c.clock.Now(),
	}
	c.mu.Unlock()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	err := c.sender.Send(ctx, msg)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.log.Error().Err(err).Str("reference_id", msg.ReferenceID).Msg("contact submission failed")
		c.state = StateIdle
		c.failure = err.Error()
		return fmt.Errorf("contact: deliver %s: %w", msg.ReferenceID, err)
	}

	c.state = StateSubmitted
	c.form = Form{}
	c.errs = Errors{}
	c.log.Info().Str("reference_id", msg.ReferenceID).Msg("contact submission sent")
	return nil
}

// Reset leaves the submitted state so another message can be written.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateSubmitted {
		return ErrNotSubmitted
	}
	c.state = StateIdle
	return nil
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Form:      c.form,
		Errors:    c.errs.clone(),
		State:     c.state,
		GateReady: c.gateReady,
		GateError: c.gateError,
		Failure:   c.failure,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) GateReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gateReady
}

// Close stops the gate timer. The controller must not be used afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.gateTimer != nil {
		c.gateTimer.Stop()
	}
}
