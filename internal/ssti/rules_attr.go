package ssti

import "fmt"

// attrItemRules covers attribute and item access: the
// dot-form, the |attr()-fallback, subscript access and its __getitem__
// fallback, the convenience chained composite, and the class-hierarchy walk
// (ClassAttribute), built from the same globalRef helpers the
// EvalFunc/Import/OSPopenRead rules call directly.
func attrItemRules() []Rule {
	return []Rule{
		{
			Name:     "attribute-dot",
			Applies:  GenAttribute,
			Priority: 0,
			Subgoals: func(g Goal, _ *Context) []Goal { return []Goal{*g.Obj} },
			Weave: func(parts []string, g Goal, ctx *Context) string {
				return fmt.Sprintf("%s.%s", parts[0], g.Str)
			},
		},
		{
			Name:     "attribute-attr-fallback",
			Applies:  GenAttribute,
			Priority: 1,
			Subgoals: func(g Goal, _ *Context) []Goal { return []Goal{*g.Obj, String(g.Str)} },
			Weave: func(parts []string, g Goal, ctx *Context) string {
				return fmt.Sprintf("%s|attr(%s)", parts[0], parts[1])
			},
		},
		{
			Name:     "item-subscript",
			Applies:  GenItem,
			Priority: 0,
			Subgoals: func(g Goal, _ *Context) []Goal { return []Goal{*g.Obj, *g.Key} },
			Weave: func(parts []string, g Goal, ctx *Context) string {
				return fmt.Sprintf("%s[%s]", parts[0], parts[1])
			},
		},
		{
			Name:     "item-getitem-fallback",
			Applies:  GenItem,
			Priority: 1,
			Subgoals: func(g Goal, _ *Context) []Goal {
				return []Goal{*g.Obj, String("__getitem__"), *g.Key}
			},
			Weave: func(parts []string, g Goal, ctx *Context) string {
				return fmt.Sprintf("%s|attr(%s)(%s)", parts[0], parts[1], parts[2])
			},
		},
		{
			Name:     "chained-attribute-item",
			Applies:  GenChainedAttributeItem,
			Priority: 0,
			Subgoals: func(g Goal, _ *Context) []Goal { return []Goal{chainToGoal(*g.Obj, g.Chain)} },
			Weave:    func(parts []string, g Goal, ctx *Context) string { return parts[0] },
		},
		{
			Name:     "class-attribute-dot",
			Applies:  GenClassAttribute,
			Priority: 0,
			Subgoals: func(g Goal, _ *Context) []Goal {
				return globalRefSubgoalsDot(*g.Obj, g.Str, gadgetIndex(g))
			},
			Weave: func(parts []string, g Goal, ctx *Context) string { return globalRefWeaveDot(parts) },
		},
		{
			Name:     "class-attribute-attr-fallback",
			Applies:  GenClassAttribute,
			Priority: 1,
			Subgoals: func(g Goal, _ *Context) []Goal {
				return globalRefSubgoalsAttr(*g.Obj, g.Str, gadgetIndex(g))
			},
			Weave: func(parts []string, g Goal, ctx *Context) string { return globalRefWeaveAttr(parts) },
		},
	}
}

// gadgetIndex returns the __subclasses__() index a ClassAttribute goal
// should target: g.N when the caller supplied one (N != 0), else the
// package default.
func gadgetIndex(g Goal) int {
	if g.N != 0 {
		return g.N
	}
	return defaultGadgetIndex
}

// chainToGoal folds a ChainedAttributeItem's hop list into a single nested
// Attribute/Item goal tree, reusing their own dot/attr-fallback and
// subscript/getitem-fallback alternatives for each hop.
func chainToGoal(obj Goal, chain []ChainStep) Goal {
	cur := obj
	for _, step := range chain {
		if step.IsItem {
			cur = Item(cur, step.Key)
		} else {
			cur = Attribute(cur, step.Name)
		}
	}
	return cur
}
