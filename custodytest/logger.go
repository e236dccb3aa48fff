package custodytest

import (
	"bytes"
	"sync"

	"github.com/tendermint/tendermint/libs/log"
)

// LogBuffer collects log lines written by a logger from NewLogger.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything logged so far.
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewLogger returns a logfmt logger writing to the returned buffer.
func NewLogger() (log.Logger, *LogBuffer) {
	var b LogBuffer
	return log.NewTMLogger(&b), &b
}
