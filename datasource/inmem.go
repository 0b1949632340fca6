package datasource

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

var ErrEmpty = errors.New("payload file is empty")

// InmemDataSource keeps all payloads in memory and hands them out round
// robin. Fetched payloads are shared and must not be modified.
type InmemDataSource struct {
	r        io.Reader
	maxLine  int
	i        atomic.Int64
	payloads []*Payload
}

func NewInmemDataSource(r io.Reader, maxLine int) *InmemDataSource {
	return &InmemDataSource{r: r, maxLine: maxLine}
}

func (ds *InmemDataSource) Init() error {
	scanner := bufio.NewScanner(ds.r)
	scanner.Buffer(make([]byte, 0, min(64*1024, ds.maxLine)), ds.maxLine)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		ds.payloads = append(ds.payloads, &Payload{Body: bytes.Clone(line)})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read payloads: %w", err)
	}
	if len(ds.payloads) == 0 {
		return ErrEmpty
	}
	return nil
}

func (ds *InmemDataSource) Fetch() (*Payload, error) {
	i := ds.i.Add(1) - 1
	return ds.payloads[i%int64(len(ds.payloads))], nil
}
