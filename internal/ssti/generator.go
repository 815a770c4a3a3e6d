package ssti

// defaultMaxDepth bounds goal recursion so a malformed or cyclic rule set
// fails fast instead of stack-overflowing.
const defaultMaxDepth = 32

// Generator is the core recursive search: given a Goal and a Context of
// already-primed auxiliary variables, it tries each applicable Rule in turn,
// recursively satisfying that rule's Subgoals, and accepts the first woven
// candidate the Oracle approves.
type Generator struct {
	registry *registry
	cache    *cache
	oracle   Oracle
	sink     EventSink
	maxDepth int
}

// NewGenerator builds a Generator over the package's default rule set.
// A nil sink is fine; no events are emitted in that case.
func NewGenerator(oracle Oracle, sink EventSink) *Generator {
	return &Generator{
		registry: defaultRegistry(),
		cache:    newCache(),
		oracle:   oracle,
		sink:     sink,
		maxDepth: defaultMaxDepth,
	}
}

// Generate attempts to satisfy goal under ctx, returning the accepted
// fragment and true, or ("", false) if every avenue was exhausted.
func (gen *Generator) Generate(goal Goal, ctx *Context) (string, bool) {
	if ctx == nil {
		ctx = NewContext()
	}
	return gen.generate(goal, ctx, 0)
}

func (gen *Generator) generate(g Goal, ctx *Context, depth int) (string, bool) {
	// Step 1: literal goals carry their own wire text, but the oracle still
	// has the final word on whether that exact text is allowed through.
	if g.Type == GenLiteral {
		if gen.oracle(g.Str) {
			return g.Str, true
		}
		return "", false
	}

	if depth > gen.maxDepth {
		return "", false
	}

	fp := ctx.Fingerprint()

	// Step 2: success cache. A goal proved satisfiable under a given
	// context fingerprint stays satisfiable forever; entries are never
	// evicted.
	if frag, ok := gen.cache.getSuccess(g, fp); ok {
		return frag, true
	}

	// Step 3: failure cache, scoped to this exact context fingerprint so a
	// richer context downstream isn't blocked by a stale failure recorded
	// under a leaner one.
	if gen.cache.getFailure(g, fp) {
		return "", false
	}

	// Step 4: enumerate this goal's rules in declared-priority order.
	for _, rule := range gen.registry.rulesFor(g.Type) {
		if rule.Guard != nil && !rule.Guard(g, ctx) {
			continue
		}

		var subgoals []Goal
		if rule.Subgoals != nil {
			subgoals = rule.Subgoals(g, ctx)
		}

		// Step 5: recursively satisfy subgoals left to right, short-
		// circuiting on the first failure: a rule with any unsatisfiable
		// subgoal can never produce a candidate.
		parts := make([]string, len(subgoals))
		ok := true
		for i, sub := range subgoals {
			frag, subOK := gen.generate(sub, ctx, depth+1)
			if !subOK {
				ok = false
				break
			}
			parts[i] = frag
		}
		if !ok {
			continue
		}

		candidate := rule.Weave(parts, g, ctx)

		// Step 6: the woven candidate is only ever accepted on the oracle's
		// word.
		if !gen.oracle(candidate) {
			continue
		}

		gen.cache.putSuccess(g, fp, candidate)
		emit(gen.sink, Event{
			Kind: EventGenerateInner,
			GenerateInner: &GenerateInnerPayload{
				GenType: g.Type,
				Args:    g.key(),
				Payload: candidate,
			},
		})
		return candidate, true
	}

	// Step 7: every rule exhausted without an accepted candidate.
	gen.cache.putFailure(g, fp)
	return "", false
}
