package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cdpsession/engine/pkg/model"
)

func TestLogBufferBoundedEviction(t *testing.T) {
	b := NewLogBuffer(3)
	for i := 0; i < 5; i++ {
		b.Add(model.LogEntry{Text: "line", Timestamp: float64(i)})
	}
	all := b.All()
	assert.Len(t, all, 3)
	assert.Equal(t, float64(2), all[0].Timestamp)
	assert.Equal(t, float64(4), all[2].Timestamp)
}

func TestLogBufferReset(t *testing.T) {
	b := NewLogBuffer(10)
	b.Add(model.LogEntry{Text: "line"})
	b.Reset()
	assert.Equal(t, 0, b.Count())
}
