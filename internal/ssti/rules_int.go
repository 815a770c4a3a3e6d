package ssti

import "fmt"

// intRules covers integer goals: bound-variable reuse,
// the two hand-coded base cases (0 and 1), small-value repeated addition,
// and, for larger values, either a product-of-two-factors or an
// addition-split decomposition, whichever the oracle accepts first.
func intRules() []Rule {
	var rules []Rule

	rules = append(rules,
		Rule{
			Name:     "unsigned-int-bound-var",
			Applies:  GenUnsignedInteger,
			Priority: 0,
			Guard: func(g Goal, ctx *Context) bool {
				_, ok := boundIntVar(ctx, g.N)
				return ok
			},
			Weave: func(parts []string, g Goal, ctx *Context) string {
				name, _ := boundIntVar(ctx, g.N)
				return name
			},
		},
		Rule{
			Name:     "unsigned-int-zero",
			Applies:  GenUnsignedInteger,
			Priority: 1,
			Guard:    func(g Goal, _ *Context) bool { return g.N == 0 },
			Weave:    func(parts []string, g Goal, ctx *Context) string { return "({}|length)" },
		},
		Rule{
			Name:     "unsigned-int-one",
			Applies:  GenUnsignedInteger,
			Priority: 1,
			Guard:    func(g Goal, _ *Context) bool { return g.N == 1 },
			Weave:    func(parts []string, g Goal, ctx *Context) string { return "({}|length|length)" },
		},
		Rule{
			// Small positive values: 1+1+...+1 (n times), matching the
			// source's "repeated additions of 1" strategy.
			Name:     "unsigned-int-small-sum",
			Applies:  GenUnsignedInteger,
			Priority: 2,
			Guard:    func(g Goal, _ *Context) bool { return g.N >= 2 && g.N <= 9 },
			Subgoals: func(g Goal, _ *Context) []Goal {
				subs := make([]Goal, g.N)
				for i := range subs {
					subs[i] = UnsignedInt(1)
				}
				return subs
			},
			Weave: func(parts []string, g Goal, ctx *Context) string {
				out := "(" + parts[0]
				for _, p := range parts[1:] {
					out += "+" + p
				}
				return out + ")"
			},
		},
		Rule{
			// Product of two factors close to sqrt(n): shorter than repeated
			// addition for larger composite n.
			Name:     "unsigned-int-product",
			Applies:  GenUnsignedInteger,
			Priority: 3,
			Guard: func(g Goal, _ *Context) bool {
				_, _, ok := factorPair(g.N)
				return g.N >= 10 && ok
			},
			Subgoals: func(g Goal, _ *Context) []Goal {
				a, b, _ := factorPair(g.N)
				return []Goal{UnsignedInt(a), UnsignedInt(b)}
			},
			Weave: func(parts []string, g Goal, ctx *Context) string {
				return fmt.Sprintf("(%s*%s)", parts[0], parts[1])
			},
		},
		Rule{
			// Addition split: always applicable, halves the recursion depth
			// (O(log n)) regardless of whether n factors nicely.
			Name:     "unsigned-int-sum-split",
			Applies:  GenUnsignedInteger,
			Priority: 4,
			Guard:    func(g Goal, _ *Context) bool { return g.N >= 10 },
			Subgoals: func(g Goal, _ *Context) []Goal {
				half := g.N / 2
				return []Goal{UnsignedInt(half), UnsignedInt(g.N - half)}
			},
			Weave: func(parts []string, g Goal, ctx *Context) string {
				return fmt.Sprintf("(%s+%s)", parts[0], parts[1])
			},
		},
		Rule{
			// Digit-string coercion: last resort, works for any n >= 0.
			Name:     "unsigned-int-string-coerce",
			Applies:  GenUnsignedInteger,
			Priority: 5,
			Guard:    func(g Goal, _ *Context) bool { return g.N >= 0 },
			Subgoals: func(g Goal, _ *Context) []Goal {
				return []Goal{String(fmt.Sprintf("%d", g.N))}
			},
			Weave: func(parts []string, g Goal, ctx *Context) string {
				return fmt.Sprintf("(%s|int)", parts[0])
			},
		},
	)

	rules = append(rules,
		Rule{
			Name:     "int-bound-var",
			Applies:  GenInteger,
			Priority: 0,
			Guard: func(g Goal, ctx *Context) bool {
				_, ok := boundIntVar(ctx, g.N)
				return ok
			},
			Weave: func(parts []string, g Goal, ctx *Context) string {
				name, _ := boundIntVar(ctx, g.N)
				return name
			},
		},
		Rule{
			Name:     "int-nonnegative",
			Applies:  GenInteger,
			Priority: 1,
			Guard:    func(g Goal, _ *Context) bool { return g.N >= 0 },
			Subgoals: func(g Goal, _ *Context) []Goal { return []Goal{UnsignedInt(g.N)} },
			Weave:    func(parts []string, g Goal, ctx *Context) string { return parts[0] },
		},
		Rule{
			Name:     "int-negative",
			Applies:  GenInteger,
			Priority: 1,
			Guard:    func(g Goal, _ *Context) bool { return g.N < 0 },
			Subgoals: func(g Goal, _ *Context) []Goal { return []Goal{UnsignedInt(-g.N)} },
			Weave: func(parts []string, g Goal, ctx *Context) string {
				return fmt.Sprintf("(-%s)", parts[0])
			},
		},
	)

	rules = append(rules, Rule{
		Name:     "positive-int-index",
		Applies:  GenPositiveIntIndex,
		Priority: 0,
		Guard:    func(g Goal, _ *Context) bool { return g.N >= 0 },
		Subgoals: func(g Goal, _ *Context) []Goal { return []Goal{UnsignedInt(g.N)} },
		Weave:    func(parts []string, g Goal, ctx *Context) string { return parts[0] },
	})

	return rules
}

// boundIntVar searches the context's integer bindings for a variable whose
// primed value equals n, returning its name.
func boundIntVar(ctx *Context, n int) (string, bool) {
	if ctx == nil {
		return "", false
	}
	for _, name := range ctx.Names() {
		if v, ok := ctx.intBindings[name]; ok && v == n {
			return name, true
		}
	}
	return "", false
}

// factorPair returns a non-trivial factor pair (a, b) with a*b == n and
// 1 < a <= b < n, preferring the pair closest to sqrt(n), or ok=false if n
// is prime (or too small to factor usefully).
func factorPair(n int) (a, b int, ok bool) {
	if n < 4 {
		return 0, 0, false
	}
	for d := 2; d*d <= n; d++ {
		if n%d == 0 {
			return d, n / d, true
		}
	}
	return 0, 0, false
}
