package ssti

import "sort"

// Context is a read-only mapping from auxiliary variable name to the
// "{% set name=... %}" priming statement the primers bound it with. It is
// immutable once built:
// primers construct it once per Assembler.Prepare call and deeper rules only
// ever read it.
type Context struct {
	vars map[string]string
	// order preserves insertion order so priming output is deterministic.
	order []string

	// intBindings/stringBindings record the runtime *value* a primed
	// variable holds, so integer and string rules can reuse it instead of
	// re-deriving an equivalent fragment.
	intBindings    map[string]int
	stringBindings map[string]string
}

// NewContext returns an empty context.
func NewContext() *Context {
	return &Context{
		vars:           make(map[string]string),
		intBindings:    make(map[string]int),
		stringBindings: make(map[string]string),
	}
}

// Bind records name with expr, the priming statement text the assembler
// emits for it in the payload preamble. Binding the same
// name twice is a no-op after the first call (primers never rebind).
func (c *Context) Bind(name, expr string) {
	if _, ok := c.vars[name]; ok {
		return
	}
	c.vars[name] = expr
	c.order = append(c.order, name)
}

// BindInt records name's priming statement and its known runtime integer
// value, for reuse by integer rules.
func (c *Context) BindInt(name, expr string, value int) {
	if _, ok := c.vars[name]; ok {
		return
	}
	c.Bind(name, expr)
	c.intBindings[name] = value
}

// BindString records name's priming statement and its known runtime string
// value, for reuse by string rules.
func (c *Context) BindString(name, expr, value string) {
	if _, ok := c.vars[name]; ok {
		return
	}
	c.Bind(name, expr)
	c.stringBindings[name] = value
}

// Lookup returns the priming statement bound for name, if any.
func (c *Context) Lookup(name string) (string, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// Names returns the bound variable names in binding order.
func (c *Context) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Has reports whether a variable of this exact name is bound.
func (c *Context) Has(name string) bool {
	_, ok := c.vars[name]
	return ok
}

// Fingerprint returns a stable string identifying the *set* of bound
// variable names (not their values; those are implicit in the names). Used
// as half of the cache key so that adding new context variables invalidates
// stale failure-cache entries without touching the success cache: a richer
// context can only help, never hurt, prior successes.
func (c *Context) Fingerprint() string {
	names := c.Names()
	sort.Strings(names)
	out := ""
	for _, n := range names {
		out += n + ","
	}
	return out
}
