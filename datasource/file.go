package datasource

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ozontech/jrpc/utils/pool"
)

// maxBlankLines makes a cyclic source of blank lines fail instead of spinning.
const maxBlankLines = 1 << 16

// FileDataSource reads the next line on every Fetch.
type FileDataSource struct {
	mu   sync.Mutex
	r    *bufio.Reader
	pool *pool.SlicePool[*Payload]
}

// NewFileDataSource reads r cyclically, r is usually a *CyclicReader.
func NewFileDataSource(r io.Reader) *FileDataSource {
	return &FileDataSource{
		r:    bufio.NewReaderSize(r, 64*1024),
		pool: pool.NewSlicePoolSize[*Payload](100),
	}
}

// Fetch skips blank lines. It returns io.EOF only when r is not cyclic.
func (ds *FileDataSource) Fetch() (*Payload, error) {
	p, ok := ds.pool.Acquire()
	if !ok {
		p = &Payload{pool: ds.pool}
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	for blank := 0; blank < maxBlankLines; blank++ {
		body, err := ds.readLine(p.Body[:0])
		p.Body = bytes.TrimSpace(body)
		if len(p.Body) != 0 {
			return p, nil
		}
		if err != nil {
			ds.pool.Release(p)
			return nil, err
		}
	}
	ds.pool.Release(p)
	return nil, ErrEmpty
}

// readLine appends the next line to buf. A last line without a newline
// comes back together with io.EOF.
func (ds *FileDataSource) readLine(buf []byte) ([]byte, error) {
	for {
		chunk, err := ds.r.ReadSlice('\n')
		buf = append(buf, chunk...)
		switch {
		case err == nil:
			return buf, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			return buf, io.EOF
		default:
			return buf, fmt.Errorf("read next payload: %w", err)
		}
	}
}
