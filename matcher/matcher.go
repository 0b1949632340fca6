// Package matcher resolves a request to exactly one method descriptor among
// the overloads a catalog exposes for a route.
package matcher

import (
	"time"

	"go.uber.org/zap"

	"github.com/ozontech/jrpc/consts"
	"github.com/ozontech/jrpc/converter"
	"github.com/ozontech/jrpc/model"
	"github.com/ozontech/jrpc/signature"
	"github.com/ozontech/jrpc/utils/lru"
)

// Catalog yields the candidate methods of a route. It is read concurrently
// and must not change the returned slice afterwards.
type Catalog interface {
	GetCandidates(route string) []*model.MethodDescriptor
}

type cacheKey struct {
	route string
	sig   signature.Signature
}

type Matcher struct {
	catalog Catalog
	cache   *lru.LRU[cacheKey, *model.MethodDescriptor]
	log     *zap.Logger
}

type conf struct {
	cacheSize int
	cacheTTL  time.Duration
	log       *zap.Logger
}

type Option func(*conf)

func WithCache(size int, ttl time.Duration) Option {
	return func(c *conf) {
		c.cacheSize, c.cacheTTL = size, ttl
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(c *conf) { c.log = log }
}

func New(catalog Catalog, opts ...Option) *Matcher {
	c := conf{
		cacheSize: consts.DefaultCacheSize,
		cacheTTL:  consts.DefaultCacheTTL,
		log:       zap.NewNop(),
	}
	for _, o := range opts {
		o(&c)
	}
	return &Matcher{
		catalog: catalog,
		cache:   lru.New[cacheKey, *model.MethodDescriptor](c.cacheSize, c.cacheTTL),
		log:     c.log.Named("matcher"),
	}
}

type candidate struct {
	desc  *model.MethodDescriptor
	exact bool
}

// Resolve picks the single method that req must be dispatched to. The only
// error it returns is MethodNotFound, for absent and ambiguous methods alike.
func (m *Matcher) Resolve(route string, req *model.Request) (*model.MethodDescriptor, *model.Error) {
	key := cacheKey{route, signature.Create(req.Method, req.Params)}
	if d, ok := m.cache.Get(key); ok {
		return d, nil
	}

	var matched []candidate
	for _, d := range m.catalog.GetCandidates(route) {
		if !NamesMatch(d.Name, req.Method) {
			continue
		}
		if exact, ok := matchParams(d, req.Params); ok {
			matched = append(matched, candidate{d, exact})
		}
	}

	if len(matched) > 1 {
		matched = narrow(matched, func(c candidate) bool { return c.exact })
	}
	if len(matched) > 1 {
		matched = narrow(matched, func(c candidate) bool { return c.desc.Name == req.Method })
	}

	switch len(matched) {
	case 0:
		return nil, model.MethodNotFound("method not found: " + req.Method)
	case 1:
	default:
		m.log.Debug("ambiguous call",
			zap.String("route", route),
			zap.String("method", req.Method),
			zap.Int("candidates", len(matched)),
		)
		return nil, model.MethodNotFound("ambiguous method call: " + req.Method)
	}

	d := matched[0].desc
	m.cache.Add(key, d)
	return d, nil
}

// Purge drops every cached resolution.
func (m *Matcher) Purge() { m.cache.Purge() }

// narrow keeps the candidates passing keep, unless none does.
func narrow(cs []candidate, keep func(candidate) bool) []candidate {
	var out []candidate
	for _, c := range cs {
		if keep(c) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return cs
	}
	return out
}

func matchParams(d *model.MethodDescriptor, params model.Params) (exact, ok bool) {
	if params.Keyed {
		return matchKeyed(d, params.Named)
	}

	supplied := params.Positional
	if len(supplied) > len(d.Params) {
		return false, false
	}
	exact = len(supplied) == len(d.Params)
	for i, v := range supplied {
		p := d.Params[i]
		if !converter.AreCompatible(v.Kind, p.Kind) {
			return false, false
		}
		exact = exact && converter.IsExact(v.Kind, p.Kind)
	}
	for _, p := range d.Params[len(supplied):] {
		if !p.Optional {
			return false, false
		}
	}
	return exact, true
}

func matchKeyed(d *model.MethodDescriptor, named []model.NamedValue) (exact, ok bool) {
	used := make([]bool, len(d.Params))
	exact = true
	for _, nv := range named {
		idx := paramIndex(d, nv.Name)
		if idx < 0 || used[idx] {
			return false, false
		}
		p := d.Params[idx]
		if !converter.AreCompatible(nv.Value.Kind, p.Kind) {
			return false, false
		}
		exact = exact && converter.IsExact(nv.Value.Kind, p.Kind)
		used[idx] = true
	}
	for i, p := range d.Params {
		if used[i] {
			continue
		}
		if !p.Optional {
			return false, false
		}
		exact = false
	}
	return exact, true
}

// paramIndex returns the only declared parameter matching name, or -1.
func paramIndex(d *model.MethodDescriptor, name string) int {
	idx := -1
	for i, p := range d.Params {
		if !NamesMatch(p.Name, name) {
			continue
		}
		if idx >= 0 {
			return -1
		}
		idx = i
	}
	return idx
}

// Bind lays the supplied values out in declared order. Omitted parameters
// are nil. d must have been resolved for params.
func Bind(d *model.MethodDescriptor, params model.Params) ([]*model.Value, *model.Error) {
	values := make([]*model.Value, len(d.Params))
	if !params.Keyed {
		if len(params.Positional) > len(d.Params) {
			return nil, model.InvalidParams("too many params")
		}
		for i := range params.Positional {
			values[i] = &params.Positional[i]
		}
		return values, nil
	}
	for i := range params.Named {
		nv := &params.Named[i]
		idx := paramIndex(d, nv.Name)
		if idx < 0 {
			return nil, model.InvalidParams("unknown param: " + nv.Name)
		}
		values[idx] = &nv.Value
	}
	return values, nil
}
