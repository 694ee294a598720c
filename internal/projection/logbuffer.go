package projection

import (
	"sync"

	"github.com/cdpsession/engine/pkg/model"
)

// DefaultLogBufferCap is the bound used when none is configured.
const DefaultLogBufferCap = 1000

// LogBuffer holds Log.entryAdded records, bounded with oldest-out eviction.
type LogBuffer struct {
	mu      sync.Mutex
	cap     int
	entries []model.LogEntry
}

// NewLogBuffer returns an empty buffer bounded at capacity (the default is
// used if capacity <= 0).
func NewLogBuffer(capacity int) *LogBuffer {
	if capacity <= 0 {
		capacity = DefaultLogBufferCap
	}
	return &LogBuffer{cap: capacity}
}

// Add appends a log entry, evicting the oldest if the buffer is full.
func (b *LogBuffer) Add(entry model.LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, entry)
	if len(b.entries) > b.cap {
		b.entries = b.entries[len(b.entries)-b.cap:]
	}
}

// All returns defensive copies of every buffered entry, oldest first.
func (b *LogBuffer) All() []model.LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.LogEntry(nil), b.entries...)
}

// Count returns the number of buffered entries.
func (b *LogBuffer) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Reset clears the buffer, used by Session.Reset().
func (b *LogBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
}
