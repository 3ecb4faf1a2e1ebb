package chunker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLines(t *testing.T) {
	assert.Equal(t, []string{"a\n", "b\n"}, Lines("a\n\n  \nb"))
	assert.Empty(t, Lines(""))
	assert.Empty(t, Lines("\n \n"))
}

func TestEmitReplaysAllChunks(t *testing.T) {
	var b strings.Builder
	err := Emit(context.Background(), "To help you:\n- goal?\n- timeframe?", time.Millisecond, func(c string) error {
		b.WriteString(c)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "To help you:\n- goal?\n- timeframe?\n", b.String())
}

func TestEmitStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var got []string
	err := Emit(ctx, "one\ntwo\nthree", time.Hour, func(c string) error {
		got = append(got, c)
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"one\n"}, got)
}

func TestEmitStopsOnCallbackError(t *testing.T) {
	boom := errors.New("closed")
	calls := 0
	err := Emit(context.Background(), "one\ntwo", 0, func(string) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}
