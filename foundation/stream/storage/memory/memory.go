// Package memory implements the ability to read and write stream records to
// memory using a map.
package memory

import (
	"cmp"
	"errors"
	"slices"
	"sync"

	"github.com/ardanlabs/streamledger/foundation/stream/ledger"
)

// Memory represents the serialization implementation for reading and storing
// streams in memory. This implements the ledger.Serializer interface.
type Memory struct {
	mu      sync.RWMutex
	streams map[uint64]ledger.Stream
}

// New constructs a Memory value for use.
func New() *Memory {
	return &Memory{
		streams: make(map[uint64]ledger.Stream),
	}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write stores the latest version of the specified stream.
func (m *Memory) Write(stream ledger.Stream) error {
	if stream.ID == 0 {
		return errors.New("stream id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.streams[stream.ID] = stream
	return nil
}

// ForEach returns an iterator over a snapshot of the stored streams, ordered
// by stream id.
func (m *Memory) ForEach() ledger.Iterator {
	m.mu.RLock()
	defer m.mu.RUnlock()

	streams := make([]ledger.Stream, 0, len(m.streams))
	for _, stream := range m.streams {
		streams = append(streams, stream)
	}

	slices.SortFunc(streams, func(a, b ledger.Stream) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return &memoryIterator{streams: streams}
}

// =============================================================================

// memoryIterator represents the iteration implementation for walking
// through a snapshot of streams. This implements the ledger Iterator
// interface.
type memoryIterator struct {
	streams []ledger.Stream
	current int
	eoc     bool
}

// Next retrieves the next stream.
func (mi *memoryIterator) Next() (ledger.Stream, error) {
	if mi.current >= len(mi.streams) {
		mi.eoc = true
		return ledger.Stream{}, errors.New("end of streams")
	}

	stream := mi.streams[mi.current]
	mi.current++

	return stream, nil
}

// Done returns the end of streams value.
func (mi *memoryIterator) Done() bool {
	return mi.eoc
}
