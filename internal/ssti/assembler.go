package ssti

import (
	"strconv"
	"strings"
)

// assemblerState is the Fresh -> Prepared / Failed state machine: an
// Assembler must be prepared exactly once before it will generate anything,
// and a failed preparation is terminal.
type assemblerState int

const (
	stateFresh assemblerState = iota
	statePrepared
	stateFailed
)

// Assembler is the top-level facade: it owns one Generator, one shared
// Context, and the outer statement shell selected during preparation, and
// exposes the single Generate entry point a caller (CLI, probe-driven
// cracker) needs.
type Assembler struct {
	oracle Oracle
	sink   EventSink

	state assemblerState
	gen   *Generator
	ctx   *Context
	outer OuterPattern
}

// NewAssembler constructs an Assembler in the Fresh state. Prepare must be
// called before Generate will do anything but report failure.
func NewAssembler(oracle Oracle, sink EventSink) *Assembler {
	return &Assembler{
		oracle: oracle,
		sink:   sink,
		state:  stateFresh,
		ctx:    NewContext(),
	}
}

// Prepare runs integer priming, string priming and outer pattern selection
// exactly once, transitioning Fresh -> Prepared on success or Fresh -> Failed
// if no outer pattern is accepted at all (the one condition preparation
// cannot recover from: without a statement shell there is nowhere to splice
// an inner expression). Calling Prepare again after the first call is a
// no-op; it does not re-run priming.
func (a *Assembler) Prepare() bool {
	if a.state != stateFresh {
		return a.state == statePrepared
	}

	a.gen = NewGenerator(a.oracle, a.sink)
	PrimeIntegers(a.gen, a.ctx, a.oracle)
	PrimeStrings(a.gen, a.ctx, a.oracle)

	outer, ok := selectOuterPattern(a.oracle)
	if !ok {
		a.state = stateFailed
		return false
	}
	a.outer = outer

	a.state = statePrepared
	emit(a.sink, Event{
		Kind: EventPrepareFull,
		PrepareFull: &PrepareFullPayload{
			Context:  a.boundSnapshot(),
			WillEcho: a.outer.WillEcho,
		},
	})
	return true
}

// boundSnapshot builds the PREPARE_FULL event's context payload as
// name -> runtime value, not name -> priming statement text: ctx.Lookup
// returns the "{% set name=expr %}" statement itself, which is for the
// preamble, not for reporting what the variable evaluates to.
func (a *Assembler) boundSnapshot() map[string]string {
	names := a.ctx.Names()
	out := make(map[string]string, len(names))
	for _, name := range names {
		if n, ok := a.ctx.intBindings[name]; ok {
			out[name] = strconv.Itoa(n)
			continue
		}
		if s, ok := a.ctx.stringBindings[name]; ok {
			out[name] = s
		}
	}
	return out
}

// preamble concatenates every primed "{% set %}" statement, in binding
// order, ahead of the outer shell.
func (a *Assembler) preamble() string {
	var b strings.Builder
	for _, name := range a.ctx.Names() {
		stmt, _ := a.ctx.Lookup(name)
		b.WriteString(stmt)
	}
	return b.String()
}

// Generate satisfies goal and splices the result into the prepared outer
// shell, returning the full payload, whether the target echoes its result
// back to the requester, and whether generation succeeded at all. Generate
// on an unprepared or failed Assembler always returns ("", false, false).
func (a *Assembler) Generate(goal Goal) (payload string, willEcho bool, ok bool) {
	if a.state != statePrepared {
		return "", false, false
	}

	inner, ok := a.gen.Generate(goal, a.ctx)
	if !ok {
		return "", false, false
	}

	// Splicing can form blocked substrings that neither the inner fragment
	// nor the shell contained on their own, so the assembled payload gets
	// the same oracle verdict as every fragment that went into it.
	full := a.preamble() + a.outer.Wrap(inner)
	if !a.oracle(full) {
		return "", false, false
	}
	emit(a.sink, Event{
		Kind: EventGenerateFull,
		GenerateFull: &GenerateFullPayload{
			GenType:  goal.Type,
			Payload:  full,
			WillEcho: a.outer.WillEcho,
		},
	})
	return full, a.outer.WillEcho, true
}

// Failed reports whether preparation has run and definitively failed.
func (a *Assembler) Failed() bool { return a.state == stateFailed }

// Prepared reports whether the assembler is ready to Generate.
func (a *Assembler) Prepared() bool { return a.state == statePrepared }
