package contact

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validForm = Form{
	Name:    "Ada Lovelace",
	Email:   "ada@example.com",
	Subject: "Data pipelines",
	Message: "Would love to chat about streaming.",
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *manualClock) {
	t.Helper()
	clk := newManualClock()
	opts = append([]Option{
		WithClock(clk),
		WithSender(NewSimulatedSender(DefaultLatency, clk, zerolog.Nop())),
		WithSubmitTimeout(0),
	}, opts...)
	c := NewController(opts...)
	t.Cleanup(c.Close)
	return c, clk
}

func fill(t *testing.T, c *Controller, f Form) {
	t.Helper()
	for _, field := range Fields() {
		require.NoError(t, c.ChangeField(field, f.Value(field)))
	}
}

func TestGateOpensOnceAfterDelay(t *testing.T) {
	c, clk := newTestController(t)

	assert.False(t, c.GateReady())
	clk.Advance(DefaultGateDelay - time.Millisecond)
	assert.False(t, c.GateReady())

	fill(t, c, validForm)
	assert.ErrorIs(t, c.Submit(context.Background()), ErrGateClosed)
	assert.ErrorIs(t, c.Submit(context.Background()), ErrGateClosed)
	assert.False(t, c.GateReady())

	clk.Advance(time.Millisecond)
	assert.True(t, c.GateReady())
	assert.Zero(t, clk.Waiters())
}

func TestSubmitWhileGateClosed(t *testing.T) {
	c, _ := newTestController(t)
	fill(t, c, validForm)

	err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrGateClosed)

	snap := c.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.True(t, snap.GateError)
	assert.Equal(t, validForm, snap.Form)
	assert.False(t, snap.Errors.Any())
}

func TestGateOpeningClearsGateError(t *testing.T) {
	c, clk := newTestController(t)
	fill(t, c, validForm)
	require.ErrorIs(t, c.Submit(context.Background()), ErrGateClosed)

	clk.Advance(DefaultGateDelay)
	assert.False(t, c.Snapshot().GateError)
}

func TestSubmitLifecycle(t *testing.T) {
	c, clk := newTestController(t)
	clk.Advance(DefaultGateDelay)
	fill(t, c, validForm)

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background()) }()

	require.Eventually(t, func() bool {
		return c.State() == StateSubmitting && clk.Waiters() == 1
	}, time.Second, time.Millisecond)

	assert.ErrorIs(t, c.Submit(context.Background()), ErrSubmitting)
	assert.ErrorIs(t, c.ChangeField(FieldName, "Someone else"), ErrSubmitting)
	assert.Equal(t, validForm, c.Snapshot().Form)

	clk.Advance(DefaultLatency - time.Millisecond)
	assert.Equal(t, StateSubmitting, c.State())
	clk.Advance(time.Millisecond)

	require.NoError(t, <-done)
	snap := c.Snapshot()
	assert.Equal(t, StateSubmitted, snap.State)
	assert.Equal(t, Form{}, snap.Form)
	assert.Empty(t, snap.Errors)
}

func TestSubmitInvalidStaysIdle(t *testing.T) {
	c, clk := newTestController(t)
	clk.Advance(DefaultGateDelay)

	require.NoError(t, c.ChangeField(FieldName, "Ada"))
	require.NoError(t, c.ChangeField(FieldEmail, "ada@"))

	err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrInvalid)

	snap := c.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, Errors{
		FieldEmail:   "Please enter a valid email address",
		FieldSubject: "Subject is required",
		FieldMessage: "Message is required",
	}, snap.Errors)
	assert.False(t, snap.GateError)
}

func TestSubmitInvalidBeatsClosedGate(t *testing.T) {
	c, _ := newTestController(t)
	assert.ErrorIs(t, c.Submit(context.Background()), ErrInvalid)
	assert.False(t, c.Snapshot().GateError)
	assert.Len(t, c.Snapshot().Errors, 4)
}

func TestChangeFieldReplacesOnlyThatError(t *testing.T) {
	c, _ := newTestController(t)
	require.ErrorIs(t, c.Submit(context.Background()), ErrInvalid)
	require.Len(t, c.Snapshot().Errors, 4)

	require.NoError(t, c.ChangeField(FieldName, "Ada"))
	errs := c.Snapshot().Errors
	assert.Empty(t, errs.Get(FieldName))
	assert.Len(t, errs, 3)

	require.NoError(t, c.ChangeField(FieldName, "A"))
	assert.Equal(t, "Name must be at least 2 characters", c.Snapshot().Errors.Get(FieldName))
}

func TestChangeFieldIdempotent(t *testing.T) {
	once, _ := newTestController(t)
	twice, _ := newTestController(t)

	require.NoError(t, once.ChangeField(FieldName, "X"))
	require.NoError(t, twice.ChangeField(FieldName, "X"))
	require.NoError(t, twice.ChangeField(FieldName, "X"))

	a, b := once.Snapshot(), twice.Snapshot()
	assert.Equal(t, a.Form, b.Form)
	assert.Equal(t, a.Errors, b.Errors)
}

func TestChangeFieldIgnoresUnknown(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.ChangeField(Field(-1), "x"))
	assert.Equal(t, Form{}, c.Snapshot().Form)
	assert.Empty(t, c.Snapshot().Errors)
}

func TestResetOnlyFromSubmitted(t *testing.T) {
	c, _ := newTestController(t, WithGateDelay(0), WithSender(SenderFunc(func(context.Context, Message) error {
		return nil
	})))

	assert.ErrorIs(t, c.Reset(), ErrNotSubmitted)
	assert.Equal(t, StateIdle, c.State())

	fill(t, c, validForm)
	require.NoError(t, c.Submit(context.Background()))
	assert.ErrorIs(t, c.Submit(context.Background()), ErrSubmitted)

	require.NoError(t, c.Reset())
	assert.Equal(t, StateIdle, c.State())
	assert.ErrorIs(t, c.Reset(), ErrNotSubmitted)
}

func TestDeliveryFailureKeepsFields(t *testing.T) {
	boom := errors.New("relay unavailable")
	c, _ := newTestController(t, WithGateDelay(0), WithSender(SenderFunc(func(context.Context, Message) error {
		return boom
	})))
	fill(t, c, validForm)
	require.NoError(t, c.ChangeField(FieldName, "Ada"))

	err := c.Submit(context.Background())
	require.ErrorIs(t, err, boom)

	snap := c.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, "Ada", snap.Form.Name)
	assert.Equal(t, validForm.Message, snap.Form.Message)
	assert.Equal(t, "relay unavailable", snap.Failure)
}

func TestDeliveryTimeout(t *testing.T) {
	c, _ := newTestController(t,
		WithGateDelay(0),
		WithSubmitTimeout(10*time.Millisecond),
		WithSender(SenderFunc(func(ctx context.Context, _ Message) error {
			<-ctx.Done()
			return ctx.Err()
		})),
	)
	fill(t, c, validForm)

	err := c.Submit(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, validForm, c.Snapshot().Form)
}

func TestSubmitSanitizesMessage(t *testing.T) {
	var got Message
	c, _ := newTestController(t, WithGateDelay(0), WithSender(SenderFunc(func(_ context.Context, msg Message) error {
		got = msg
		return nil
	})))
	fill(t, c, validForm)
	require.NoError(t, c.ChangeField(FieldMessage, "<script>alert(1)</script>Hello there, friend"))

	require.NoError(t, c.Submit(context.Background()))
	assert.Equal(t, "Hello there, friend", got.Form.Message)
	assert.Equal(t, validForm.Email, got.Form.Email)
	assert.NotEmpty(t, got.ReferenceID)
	assert.Equal(t, newManualClock().Now(), got.SubmittedAt)
}

func TestSubmitDeliversPlainText(t *testing.T) {
	var got Message
	c, _ := newTestController(t, WithGateDelay(0), WithSender(SenderFunc(func(_ context.Context, msg Message) error {
		got = msg
		return nil
	})))
	fill(t, c, Form{
		Name:    "Tom & Jerry",
		Email:   "o'brien@example.com",
		Subject: `Q&A "pipelines"`,
		Message: "Fish & chips at 5 o'clock?",
	})

	require.NoError(t, c.Submit(context.Background()))
	assert.Equal(t, Form{
		Name:    "Tom & Jerry",
		Email:   "o'brien@example.com",
		Subject: `Q&A "pipelines"`,
		Message: "Fish & chips at 5 o'clock?",
	}, got.Form)
}

func TestSubmitRejectsMarkupOnlyMessage(t *testing.T) {
	sent := false
	c, _ := newTestController(t, WithGateDelay(0), WithSender(SenderFunc(func(context.Context, Message) error {
		sent = true
		return nil
	})))
	fill(t, c, validForm)
	require.NoError(t, c.ChangeField(FieldMessage, "<b></b><i></i><u></u>"))
	require.Empty(t, c.Snapshot().Errors.Get(FieldMessage))

	assert.ErrorIs(t, c.Submit(context.Background()), ErrInvalid)
	assert.False(t, sent)

	snap := c.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, "Message is required", snap.Errors.Get(FieldMessage))
	assert.Equal(t, "<b></b><i></i><u></u>", snap.Form.Message)
}

func TestInvalidSubmitClearsPreviousFailure(t *testing.T) {
	c, _ := newTestController(t, WithGateDelay(0), WithSender(SenderFunc(func(context.Context, Message) error {
		return errors.New("relay unavailable")
	})))
	fill(t, c, validForm)
	require.Error(t, c.Submit(context.Background()))
	require.Equal(t, "relay unavailable", c.Snapshot().Failure)

	require.NoError(t, c.ChangeField(FieldEmail, "nope"))
	assert.ErrorIs(t, c.Submit(context.Background()), ErrInvalid)
	assert.Empty(t, c.Snapshot().Failure)
}

func TestCloseStopsGate(t *testing.T) {
	clk := newManualClock()
	c := NewController(WithClock(clk))
	c.Close()
	c.Close()

	clk.Advance(DefaultGateDelay)
	assert.False(t, c.GateReady())
	assert.Zero(t, clk.Waiters())
}

func TestSnapshotIsCopy(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.ChangeField(FieldName, ""))
	snap := c.Snapshot()
	snap.Errors[FieldEmail] = "mutated"
	assert.Empty(t, c.Snapshot().Errors.Get(FieldEmail))
}
