package requestid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRequestIDWithCustomHint(t *testing.T) {
	id := GenerateRequestID("session one")
	assert.True(t, strings.HasSuffix(id, "-session-one"))
	assert.LessOrEqual(t, len(id), MaxRequestIDLength)
}

func TestGenerateRequestIDSanitizesInvalidChars(t *testing.T) {
	id := GenerateRequestID("launch!!!chrome###1")
	assert.True(t, strings.HasSuffix(id, "-launch-chrome-1"))
}

func TestGenerateRequestIDFallsBackToUUID(t *testing.T) {
	id := GenerateRequestID("")
	assert.Len(t, id, 36)
	assert.Equal(t, 4, strings.Count(id, "-"))
}

func TestGenerateRequestIDTruncatesLongCustomID(t *testing.T) {
	id := GenerateRequestID(strings.Repeat("a", 100))
	assert.LessOrEqual(t, len(id), MaxRequestIDLength)
}

func TestGenerateRequestIDIsUnique(t *testing.T) {
	a := GenerateRequestID("session")
	b := GenerateRequestID("session")
	assert.NotEqual(t, a, b)
}
