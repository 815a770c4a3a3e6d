package ssti

import "fmt"

// primedInts is the fixed set of small integer values worth pre-binding to a
// variable name: every single digit (digits feed both arithmetic
// decomposition and sequence indexing) plus the default gadget index the
// exec rules hit on every class-hierarchy walk. Priming each once shrinks
// every downstream fragment and spares the oracle repeat calls for the same
// arithmetic decomposition.
func primedInts() []int {
	return []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, defaultGadgetIndex}
}

// PrimeIntegers is the integer-variable priming pass: for each candidate
// value it asks the Generator for an expression, tests a "{% set name=expr %}"
// statement against the oracle, and on acceptance binds name in ctx so later
// rules (boundIntVar) can reuse it instead of re-deriving the value. A value
// the generator or oracle rejects is simply skipped; priming is best-effort
// and never itself fails the assembler.
func PrimeIntegers(gen *Generator, ctx *Context, oracle Oracle) {
	for i, n := range primedInts() {
		name := fmt.Sprintf("fi%d", i)
		if ctx.Has(name) {
			continue
		}
		expr, ok := gen.Generate(UnsignedInt(n), ctx)
		if !ok {
			continue
		}
		stmt := fmt.Sprintf("{%% set %s=%s %%}", name, expr)
		if !oracle(stmt) {
			continue
		}
		ctx.BindInt(name, stmt, n)
	}
}
