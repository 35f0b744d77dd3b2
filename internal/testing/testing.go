// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"sync"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// RecordingBrowser captures URLs a flow asked to open instead of launching anything.
type RecordingBrowser struct {
	mu   sync.Mutex
	URLs []string
	Err  error
}

func (b *RecordingBrowser) Open(url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.URLs = append(b.URLs, url)
	return b.Err
}
