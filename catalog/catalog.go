// Package catalog is an in-memory method catalog. It is filled once at
// startup and only read afterwards.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"github.com/ozontech/jrpc/model"
)

var (
	ErrNoName    = errors.New("method name is empty")
	ErrNoFunc    = errors.New("method has no function")
	ErrNoType    = errors.New("param has no type")
	ErrDupParam  = errors.New("duplicate param name")
	ErrNullParam = errors.New("params must not be declared as null")
)

type Catalog struct {
	routes map[string][]*model.MethodDescriptor
}

func New() *Catalog {
	return &Catalog{routes: make(map[string][]*model.MethodDescriptor)}
}

// Add registers methods under route. Overloads sharing a name are allowed.
// It must not be called concurrently with GetCandidates.
func (c *Catalog) Add(route string, methods ...*model.MethodDescriptor) error {
	var err error
	for _, m := range methods {
		if vErr := validate(m); vErr != nil {
			err = multierr.Append(err, vErr)
			continue
		}
		c.routes[route] = append(c.routes[route], m)
	}
	return err
}

// MustAdd is Add for static setups.
func (c *Catalog) MustAdd(route string, methods ...*model.MethodDescriptor) *Catalog {
	if err := c.Add(route, methods...); err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) GetCandidates(route string) []*model.MethodDescriptor {
	return c.routes[route]
}

func (c *Catalog) Routes() []string {
	routes := make([]string, 0, len(c.routes))
	for r := range c.routes {
		routes = append(routes, r)
	}
	sort.Strings(routes)
	return routes
}

func validate(m *model.MethodDescriptor) error {
	if m.Name == "" {
		return ErrNoName
	}
	var err error
	if m.Func == nil {
		err = multierr.Append(err, fmt.Errorf("%s: %w", m.Name, ErrNoFunc))
	}
	seen := make(map[string]struct{}, len(m.Params))
	for _, p := range m.Params {
		if p.Type == nil {
			err = multierr.Append(err, fmt.Errorf("%s(%s): %w", m.Name, p.Name, ErrNoType))
		}
		if p.Kind == model.KindNull {
			err = multierr.Append(err, fmt.Errorf("%s(%s): %w", m.Name, p.Name, ErrNullParam))
		}
		if _, dup := seen[p.Name]; dup {
			err = multierr.Append(err, fmt.Errorf("%s(%s): %w", m.Name, p.Name, ErrDupParam))
		}
		seen[p.Name] = struct{}{}
	}
	return err
}
