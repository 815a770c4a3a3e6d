package ssti

// stringRules covers string goals: bound-variable reuse,
// the two canonical fixed-literal shortcuts ("_" and "%"), the empty string,
// and general per-character construction joined by Jinja2's "~" string
// concatenation operator.
func stringRules() []Rule {
	return []Rule{
		{
			Name:     "string-bound-var",
			Applies:  GenString,
			Priority: 0,
			Guard: func(g Goal, ctx *Context) bool {
				_, ok := boundStringVar(ctx, g.Str)
				return ok
			},
			Weave: func(parts []string, g Goal, ctx *Context) string {
				name, _ := boundStringVar(ctx, g.Str)
				return name
			},
		},
		{
			Name:     "string-underscore",
			Applies:  GenString,
			Priority: 1,
			Guard:    func(g Goal, _ *Context) bool { return g.Str == "_" },
			Subgoals: func(g Goal, _ *Context) []Goal { return []Goal{Literal(underscoreExpr)} },
			Weave:    func(parts []string, g Goal, ctx *Context) string { return parts[0] },
		},
		{
			Name:     "string-percent",
			Applies:  GenString,
			Priority: 1,
			Guard:    func(g Goal, _ *Context) bool { return g.Str == "%" },
			Subgoals: func(g Goal, _ *Context) []Goal { return []Goal{Literal(percentExpr)} },
			Weave:    func(parts []string, g Goal, ctx *Context) string { return parts[0] },
		},
		{
			Name:     "string-empty",
			Applies:  GenString,
			Priority: 2,
			Guard:    func(g Goal, _ *Context) bool { return g.Str == "" },
			Weave:    func(parts []string, g Goal, ctx *Context) string { return "''" },
		},
		{
			Name:     "string-chars",
			Applies:  GenString,
			Priority: 3,
			Guard:    func(g Goal, _ *Context) bool { return len(g.Str) > 0 },
			Subgoals: func(g Goal, _ *Context) []Goal {
				subs := make([]Goal, len(g.Str))
				for i := 0; i < len(g.Str); i++ {
					subs[i] = Char(g.Str[i])
				}
				return subs
			},
			Weave: func(parts []string, g Goal, ctx *Context) string {
				out := "(" + parts[0]
				for _, p := range parts[1:] {
					out += "~" + p
				}
				return out + ")"
			},
		},
	}
}

func boundStringVar(ctx *Context, s string) (string, bool) {
	if ctx == nil {
		return "", false
	}
	for _, name := range ctx.Names() {
		if v, ok := ctx.stringBindings[name]; ok && v == s {
			return name, true
		}
	}
	return "", false
}
