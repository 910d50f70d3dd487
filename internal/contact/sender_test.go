package contact

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedSenderHonoursCancel(t *testing.T) {
	clk := newManualClock()
	s := NewSimulatedSender(time.Second, clk, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, Message{}), context.Canceled)
}

func TestSimulatedSenderWaitsLatency(t *testing.T) {
	clk := newManualClock()
	s := NewSimulatedSender(time.Second, clk, zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- s.Send(context.Background(), Message{ReferenceID: "ref"}) }()

	require.Eventually(t, func() bool { return clk.Waiters() == 1 }, time.Second, time.Millisecond)
	select {
	case <-done:
		t.Fatal("send returned before latency elapsed")
	default:
	}
	clk.Advance(time.Second)
	require.NoError(t, <-done)
}

func TestSimulatedSenderZeroLatency(t *testing.T) {
	s := NewSimulatedSender(0, nil, zerolog.Nop())
	assert.NoError(t, s.Send(context.Background(), Message{}))
}

func TestSanitize(t *testing.T) {
	got := Sanitize(Form{
		Name:    " <b>Ada</b> ",
		Email:   "ada@example.com",
		Subject: "<a href=\"https://evil.test\">Hi there</a>",
		Message: "plain words stay",
	})
	assert.Equal(t, Form{
		Name:    "Ada",
		Email:   "ada@example.com",
		Subject: "Hi there",
		Message: "plain words stay",
	}, got)
}

func TestSanitizeKeepsPlainText(t *testing.T) {
	got := Sanitize(Form{
		Name:    "Tom & Jerry",
		Email:   "o'brien@example.com",
		Subject: `Q&A "pipelines"`,
		Message: "<b></b><i></i><u></u>",
	})
	assert.Equal(t, Form{
		Name:    "Tom & Jerry",
		Email:   "o'brien@example.com",
		Subject: `Q&A "pipelines"`,
		Message: "",
	}, got)
}
