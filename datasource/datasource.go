// Package datasource feeds newline-delimited JSON-RPC payloads to the bench
// command, endlessly cycling over the input.
package datasource

import "github.com/ozontech/jrpc/utils/pool"

// DataSource is safe for concurrent use.
type DataSource interface {
	Fetch() (*Payload, error)
}

type Payload struct {
	Body []byte
	pool *pool.SlicePool[*Payload]
}

// Release gives the payload back to its source. Body must not be used after.
func (p *Payload) Release() {
	if p.pool != nil {
		p.pool.Release(p)
	}
}
