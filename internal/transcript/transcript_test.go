// ABOUTME: Tests for transcript rendering and the sliding-window clip policy
// ABOUTME: Covers label mapping, ordering, separators, and oldest-first truncation

package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oakline/wagate/internal/store"
)

func msg(direction store.Direction, body string) *store.Message {
	return &store.Message{Sender: "911234567890", Body: body, Direction: direction}
}

func TestRender(t *testing.T) {
	messages := []*store.Message{
		msg(store.DirectionInbound, "hi"),
		msg(store.DirectionOutbound, "Hello"),
		msg(store.DirectionInbound, "car"),
	}

	assert.Equal(t, "user: hi\nbot: Hello\nuser: car", Render(messages))
}

func TestRender_SingleMessage(t *testing.T) {
	assert.Equal(t, "user: hi", Render([]*store.Message{msg(store.DirectionInbound, "hi")}))
}

func TestRender_Empty(t *testing.T) {
	assert.Equal(t, "", Render(nil))
}

func TestClip_UnderLimit(t *testing.T) {
	text := "user: hi\nbot: Hello"
	assert.Equal(t, text, Clip(text, 100))
}

func TestClip_Disabled(t *testing.T) {
	text := strings.Repeat("user: x\n", 100)
	assert.Equal(t, text, Clip(text, 0))
}

func TestClip_DropsOldestLinesFirst(t *testing.T) {
	text := "user: oldest\nbot: middle\nuser: newest"

	clipped := Clip(text, len("bot: middle\nuser: newest"))
	assert.Equal(t, "bot: middle\nuser: newest", clipped)

	clipped = Clip(text, len("user: newest"))
	assert.Equal(t, "user: newest", clipped)
}

func TestClip_NeverSplitsALine(t *testing.T) {
	text := "user: aaaa\nbot: bbbb\nuser: cccc"

	// Limit falls mid-line: the whole oldest line goes, not part of it.
	clipped := Clip(text, len(text)-3)
	assert.Equal(t, "bot: bbbb\nuser: cccc", clipped)
}

func TestClip_SingleOversizedLineKept(t *testing.T) {
	text := "user: " + strings.Repeat("x", 500)
	assert.Equal(t, text, Clip(text, 100))
}

func TestBuild(t *testing.T) {
	messages := []*store.Message{
		msg(store.DirectionInbound, "first"),
		msg(store.DirectionOutbound, "second"),
		msg(store.DirectionInbound, "third"),
	}

	full := Build(messages, 0)
	assert.Equal(t, "user: first\nbot: second\nuser: third", full)

	windowed := Build(messages, len("bot: second\nuser: third"))
	assert.Equal(t, "bot: second\nuser: third", windowed)
}
