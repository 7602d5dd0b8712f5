package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlocked(t *testing.T) {
	for _, rt := range []string{"image", "media", "font", "stylesheet", "other", ""} {
		assert.True(t, Blocked(rt), rt)
	}
	for _, rt := range []string{"document", "script", "xhr", "fetch", "websocket", "eventsource", "manifest", "texttrack"} {
		assert.False(t, Blocked(rt), rt)
	}
}
