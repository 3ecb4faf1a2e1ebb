// Package chunker replays a finished answer line by line to simulate streaming.
package chunker

import (
	"context"
	"strings"
	"time"
)

// Lines splits text on newlines and drops blank lines. Each chunk keeps its
// trailing newline so concatenating the chunks restores the visible text.
func Lines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line+"\n")
	}
	return out
}

// Emit calls fn for every chunk of text, waiting delay between chunks. It
// stops early when ctx is done or fn fails.
func Emit(ctx context.Context, text string, delay time.Duration, fn func(chunk string) error) error {
	for i, chunk := range Lines(text) {
		if i > 0 && delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(chunk); err != nil {
			return err
		}
	}
	return nil
}
