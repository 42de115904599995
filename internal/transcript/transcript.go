// ABOUTME: Renders stored message history into the textual context handed to the
// ABOUTME: completion provider, with a sliding-window clip on the oldest lines

package transcript

import (
	"strings"

	"github.com/oakline/wagate/internal/store"
)

// Direction labels used in the rendered transcript. The completion prompt is
// written against these, so they are part of the provider contract.
const (
	labelUser = "user"
	labelBot  = "bot"
)

// Render serializes messages as a line-per-message transcript of the form
// "<label>: <body>", oldest first, joined with newlines.
func Render(messages []*store.Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		label := labelUser
		if msg.Direction == store.DirectionOutbound {
			label = labelBot
		}
		lines = append(lines, label+": "+msg.Body)
	}
	return strings.Join(lines, "\n")
}

// Clip enforces the provider's input-size limit by dropping the oldest whole
// lines first. A long-running conversation must degrade, never hard-fail a
// turn. max <= 0 disables clipping. A single oversized line is kept as-is:
// dropping the newest message would be worse than an over-limit request.
func Clip(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}

	for len(text) > max {
		idx := strings.IndexByte(text, '\n')
		if idx < 0 {
			break
		}
		text = text[idx+1:]
	}
	return text
}

// Build renders messages and applies the sliding window in one step.
func Build(messages []*store.Message, max int) string {
	return Clip(Render(messages), max)
}
