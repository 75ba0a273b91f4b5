package ingest

import (
	"sync"
)

var (
	parsersMu sync.RWMutex
	parsers   = make(map[Instrument]Parser)
)

// RegisterParser makes an instrument parser available to upload handling.
// Parser implementations live outside this module and register themselves
// at startup, one per instrument family; a second registration for the same
// family replaces the first.
func RegisterParser(p Parser) {
	parsersMu.Lock()
	defer parsersMu.Unlock()
	parsers[p.Instrument()] = p
}

// RegisteredParsers returns all registered parsers.
func RegisteredParsers() []Parser {
	parsersMu.RLock()
	defer parsersMu.RUnlock()

	out := make([]Parser, 0, len(parsers))
	for _, p := range parsers {
		out = append(out, p)
	}
	return out
}
