package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer guards a bytes.Buffer written by the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var startTask = Task{Progress: "Starting machine", Success: "Machine is started", Failure: "Failed to start machine"}

func TestNew_PicksMode(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, ModeQuiet, New(&buf, true).Mode())
	assert.Equal(t, ModePlain, New(&buf, false).Mode(), "a buffer is not a terminal")
}

func TestDo_Quiet(t *testing.T) {
	var buf bytes.Buffer
	called := false

	err := NewWithMode(&buf, ModeQuiet).Do(context.Background(), startTask, func(context.Context) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
	assert.Empty(t, buf.String())
}

func TestDo_PlainSuccess(t *testing.T) {
	var buf bytes.Buffer

	err := NewWithMode(&buf, ModePlain).Do(context.Background(), startTask, func(context.Context) error { return nil })

	require.NoError(t, err)
	assert.Equal(t, "Starting machine\n✓ Machine is started\n", buf.String())
}

func TestDo_PlainFailure(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("boom")

	err := NewWithMode(&buf, ModePlain).Do(context.Background(), startTask, func(context.Context) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "Starting machine\n✗ Failed to start machine\n", buf.String())
}

func TestDo_AnimatedDrawsAndClears(t *testing.T) {
	buf := &syncBuffer{}
	s := NewWithMode(buf, ModeAnimated)

	err := s.Do(context.Background(), startTask, func(context.Context) error {
		time.Sleep(3 * s.style.FPS)
		return nil
	})

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Starting machine")
	cut := strings.LastIndex(out, "\r\x1b[2K")
	require.GreaterOrEqual(t, cut, 0, "spinner line is cleared")
	assert.Contains(t, out[cut:], "Machine is started", "result is printed after the clear")
}

func TestDo_AnimatedStopsOnCancel(t *testing.T) {
	buf := &syncBuffer{}
	ctx, cancel := context.WithCancel(context.Background())

	err := NewWithMode(buf, ModeAnimated).Do(ctx, startTask, func(ctx context.Context) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, buf.String(), "Failed to start machine")
}

func TestSpin_ReturnsValue(t *testing.T) {
	var buf bytes.Buffer

	ip, err := Spin(context.Background(), NewWithMode(&buf, ModeQuiet), Task{}, func(context.Context) (string, error) {
		return "10.0.0.1", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", ip)
}
