package datasource

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

type brokenSeeker struct {
	seekErr error
	readErr error
}

func (r brokenSeeker) Seek(int64, int) (int64, error) { return 0, r.seekErr }

func (r brokenSeeker) Read([]byte) (int, error) { return 0, r.readErr }

func TestCyclicReaderErrors(t *testing.T) {
	t.Parallel()

	errDisk := errors.New("disk error")
	for name, rs := range map[string]brokenSeeker{
		"read": {readErr: errDisk},
		"seek": {seekErr: errDisk, readErr: io.EOF},
	} {
		rs := rs
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			a := assert.New(t)

			cr := NewCyclicReader(rs)
			_, err := cr.Read(make([]byte, 16))
			a.ErrorIs(err, errDisk)
			a.Zero(cr.Rewinds())
		})
	}
}

func TestCyclicReaderRewinds(t *testing.T) {
	t.Parallel()
	a := assert.New(t)
	buf := make([]byte, 1024)

	in := []byte(`{"jsonrpc":"2.0","method":"a"}`)
	cr := NewCyclicReader(bytes.NewReader(in))

	for round := uint64(0); round < 3; round++ {
		n, err := cr.Read(buf)
		a.NoError(err)
		a.Equal(in, buf[:n])

		n, err = cr.Read(buf)
		a.NoError(err)
		a.Zero(n)
		a.Equal(round+1, cr.Rewinds())
	}
}
