package ssti

import "sort"

// Rule is a production: it rewrites a Goal matching Applies into zero or
// more Subgoals, whose generated fragments are glued by Weave into a
// candidate fragment for the original goal. Guard lets a rule opt out given
// the goal's concrete field values and the current context (e.g. "only
// applies if the needed char is already bound").
//
// Subgoals, when non-nil, is evaluated once per generation attempt; a rule
// that returns a nil/empty slice is a pure terminal, tried exactly once.
type Rule struct {
	Name     string
	Applies  GenType
	Priority int
	Guard    func(g Goal, ctx *Context) bool
	Subgoals func(g Goal, ctx *Context) []Goal
	Weave    func(parts []string, g Goal, ctx *Context) string
}

// registry is a flat, declaration-ordered rule table, not a class hierarchy.
// Rules are grouped by the GenType they produce and, within a group, ordered
// by Priority ascending, ties broken by registration order
// (sort.SliceStable preserves it). Priorities are assigned so that rules
// expected to weave shorter fragments sort ahead of their longer-winded
// fallbacks.
type registry struct {
	byType map[GenType][]Rule
}

func newRegistry() *registry {
	return &registry{byType: make(map[GenType][]Rule)}
}

func (r *registry) add(rules ...Rule) {
	for _, rule := range rules {
		r.byType[rule.Applies] = append(r.byType[rule.Applies], rule)
	}
}

func (r *registry) finalize() {
	for t, rules := range r.byType {
		sort.SliceStable(rules, func(i, j int) bool {
			return rules[i].Priority < rules[j].Priority
		})
		r.byType[t] = rules
	}
}

func (r *registry) rulesFor(t GenType) []Rule {
	return r.byType[t]
}

// defaultRegistry builds the full rule set: integers, strings,
// attribute/item access, the Python class hierarchy walk, and shell command
// execution.
func defaultRegistry() *registry {
	r := newRegistry()
	r.add(intRules()...)
	r.add(stringRules()...)
	r.add(charRules()...)
	r.add(attrItemRules()...)
	r.add(execRules()...)
	r.finalize()
	return r
}
