package datasource

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

// CyclicReader rewinds rs every time it is exhausted. The EOF itself is
// swallowed, so a read at the end returns 0 bytes and a nil error.
type CyclicReader struct {
	rs      io.ReadSeeker
	rewinds atomic.Uint64
}

func NewCyclicReader(rs io.ReadSeeker) *CyclicReader {
	return &CyclicReader{rs: rs}
}

func (r *CyclicReader) Read(b []byte) (int, error) {
	n, err := r.rs.Read(b)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("read payloads: %w", err)
	}
	if _, err = r.rs.Seek(0, io.SeekStart); err != nil {
		return n, fmt.Errorf("rewind payloads: %w", err)
	}
	r.rewinds.Add(1)
	return n, nil
}

// Rewinds returns how many times the underlying reader was started over.
func (r *CyclicReader) Rewinds() uint64 { return r.rewinds.Load() }
