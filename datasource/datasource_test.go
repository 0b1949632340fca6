package datasource

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payloads = `{"jsonrpc":"2.0","id":1,"method":"a"}

[{"jsonrpc":"2.0","id":2,"method":"b"}]
{"jsonrpc":"2.0","method":"c"}`

func fetchN(t *testing.T, ds DataSource, n int) []string {
	t.Helper()
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		p, err := ds.Fetch()
		require.NoError(t, err)
		out = append(out, string(p.Body))
		p.Release()
	}
	return out
}

func TestFileDataSource(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	ds := NewFileDataSource(NewCyclicReader(strings.NewReader(payloads)))
	got := fetchN(t, ds, 5)
	a.Equal([]string{
		`{"jsonrpc":"2.0","id":1,"method":"a"}`,
		`[{"jsonrpc":"2.0","id":2,"method":"b"}]`,
		`{"jsonrpc":"2.0","method":"c"}{"jsonrpc":"2.0","id":1,"method":"a"}`,
		`[{"jsonrpc":"2.0","id":2,"method":"b"}]`,
		`{"jsonrpc":"2.0","method":"c"}{"jsonrpc":"2.0","id":1,"method":"a"}`,
	}, got, "the last line has no newline, so it runs into the first one")

	ds = NewFileDataSource(NewCyclicReader(strings.NewReader(payloads + "\n")))
	got = fetchN(t, ds, 4)
	a.Equal(`{"jsonrpc":"2.0","method":"c"}`, got[2])
	a.Equal(got[0], got[3])
}

func TestFileDataSourceLongLines(t *testing.T) {
	t.Parallel()

	long := `{"jsonrpc":"2.0","method":"` + strings.Repeat("x", 200*1024) + `"}`
	ds := NewFileDataSource(strings.NewReader(long + "\n" + "{}\n"))

	p, err := ds.Fetch()
	require.NoError(t, err)
	assert.Equal(t, long, string(p.Body))
	p.Release()

	p, err = ds.Fetch()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(p.Body))

	_, err = ds.Fetch()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFileDataSourceEmpty(t *testing.T) {
	t.Parallel()

	_, err := NewFileDataSource(NewCyclicReader(bytes.NewReader(nil))).Fetch()
	assert.ErrorIs(t, err, io.ErrNoProgress)

	_, err = NewFileDataSource(NewCyclicReader(strings.NewReader("\n \n"))).Fetch()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestInmemDataSource(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	ds := NewInmemDataSource(strings.NewReader(payloads), 1024)
	require.NoError(t, ds.Init())
	a.Equal([]string{
		`{"jsonrpc":"2.0","id":1,"method":"a"}`,
		`[{"jsonrpc":"2.0","id":2,"method":"b"}]`,
		`{"jsonrpc":"2.0","method":"c"}`,
		`{"jsonrpc":"2.0","id":1,"method":"a"}`,
	}, fetchN(t, ds, 4))

	a.ErrorIs(NewInmemDataSource(strings.NewReader("\n\n"), 1024).Init(), ErrEmpty)
	a.Error(NewInmemDataSource(strings.NewReader(strings.Repeat("x", 100)), 10).Init())
}

func TestConcurrentFetch(t *testing.T) {
	t.Parallel()

	ds := NewFileDataSource(NewCyclicReader(strings.NewReader(payloads + "\n")))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p, err := ds.Fetch()
				if !assert.NoError(t, err) {
					return
				}
				assert.Contains(t, string(p.Body), `"jsonrpc":"2.0"`)
				p.Release()
			}
		}()
	}
	wg.Wait()
}
