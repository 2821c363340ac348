// Package handlers holds the named checks that are too involved to express as
// declarative rules, and the registry that resolves them by name.
package handlers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sahilm/fuzzy"

	"github.com/felixgeelhaar/specguard/pkg/domain/compliance"
)

// Handler is a named check implementation.
type Handler interface {
	Name() string
	Category() string
	Description() string
	Evaluate(ctx *compliance.ScanContext) compliance.CheckResult
}

// handler adapts a plain function to Handler.
type handler struct {
	name        string
	category    string
	description string
	eval        func(ctx *compliance.ScanContext) compliance.CheckResult
}

func (h handler) Name() string        { return h.name }
func (h handler) Category() string    { return h.category }
func (h handler) Description() string { return h.description }

func (h handler) Evaluate(ctx *compliance.ScanContext) compliance.CheckResult {
	return h.eval(ctx)
}

// Registry maps handler names to implementations. It is immutable once built.
type Registry struct {
	byName map[string]Handler
	names  []string
}

// NewRegistry builds a registry and rejects duplicate names.
func NewRegistry(hs ...Handler) (*Registry, error) {
	r := &Registry{byName: make(map[string]Handler, len(hs))}
	for _, h := range hs {
		if _, dup := r.byName[h.Name()]; dup {
			return nil, fmt.Errorf("handler %q registered twice", h.Name())
		}
		r.byName[h.Name()] = h
		r.names = append(r.names, h.Name())
	}
	sort.Strings(r.names)
	return r, nil
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.byName[name]
	return h, ok
}

// Names returns every registered name in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	return len(r.names)
}

// Suggest returns the closest registered name to an unknown one, or "".
func (r *Registry) Suggest(name string) string {
	if name == "" {
		return ""
	}
	matches := fuzzy.Find(name, r.names)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry of every builtin handler.
func Default() *Registry {
	defaultOnce.Do(func() {
		var all []Handler
		all = append(all, structureHandlers()...)
		all = append(all, documentHandlers()...)
		all = append(all, contentHandlers()...)
		all = append(all, specHandlers()...)
		r, err := NewRegistry(all...)
		if err != nil {
			panic(err)
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Check binds a handler to the rule that named it.
type Check struct {
	rule    compliance.RuleDef
	handler Handler
}

// NewCheck creates a check for rule backed by h.
func NewCheck(rule compliance.RuleDef, h Handler) *Check {
	return &Check{rule: rule, handler: h}
}

// Rule returns the rule definition.
func (c *Check) Rule() compliance.RuleDef {
	return c.rule
}

// Evaluate runs the handler and attributes violations to the rule.
func (c *Check) Evaluate(ctx *compliance.ScanContext) compliance.CheckResult {
	res := c.handler.Evaluate(ctx)
	if c.rule.Message != "" && res.Failed() {
		for i := range res.Violations {
			res.Violations[i].Message += " (" + c.rule.Message + ")"
		}
	}
	return res.Stamp(c.rule.ID, c.rule.Severity)
}
