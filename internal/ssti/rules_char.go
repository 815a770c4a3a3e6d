package ssti

import "fmt"

// charRules covers single-character goals: a single-quoted literal, else a
// double-quoted one (a quote character takes the other quote), and a
// chr()-based fallback (via PositiveChar) for a backslash, CR or LF.
func charRules() []Rule {
	return []Rule{
		{
			Name:     "char-single-quote",
			Applies:  GenChar,
			Priority: 0,
			Guard:    func(g Goal, _ *Context) bool { return quotable(g.Str[0], '\'') },
			Weave:    func(parts []string, g Goal, ctx *Context) string { return "'" + g.Str + "'" },
		},
		{
			Name:     "char-double-quote",
			Applies:  GenChar,
			Priority: 1,
			Guard:    func(g Goal, _ *Context) bool { return quotable(g.Str[0], '"') },
			Weave:    func(parts []string, g Goal, ctx *Context) string { return "\"" + g.Str + "\"" },
		},
		{
			Name:     "char-chr-fallback",
			Applies:  GenChar,
			Priority: 2,
			Subgoals: func(g Goal, _ *Context) []Goal { return []Goal{PositiveChar(int(g.Str[0]))} },
			Weave:    func(parts []string, g Goal, ctx *Context) string { return parts[0] },
		},
		{
			Name:     "positive-char-bound-var",
			Applies:  GenPositiveChar,
			Priority: 0,
			Guard: func(g Goal, ctx *Context) bool {
				_, ok := boundStringVar(ctx, string(rune(g.N)))
				return g.N >= 0 && g.N < 256 && ok
			},
			Weave: func(parts []string, g Goal, ctx *Context) string {
				name, _ := boundStringVar(ctx, string(rune(g.N)))
				return name
			},
		},
		{
			// Reach the builtin chr() via the same class-hierarchy walk used
			// for os, then invoke it on the codepoint.
			Name:     "positive-char-via-builtins",
			Applies:  GenPositiveChar,
			Priority: 1,
			Subgoals: func(g Goal, _ *Context) []Goal {
				subs := globalRefSubgoalsDot(String(""), "__builtins__", defaultGadgetIndex)
				return append(subs, String("chr"), UnsignedInt(g.N))
			},
			Weave: func(parts []string, g Goal, ctx *Context) string {
				builtins := globalRefWeaveDot(parts[:4])
				return fmt.Sprintf("%s[%s](%s)", builtins, parts[4], parts[5])
			},
		},
	}
}

func quotable(c byte, quote byte) bool {
	if c == quote || c == '\\' || c == '\n' || c == '\r' {
		return false
	}
	return true
}
