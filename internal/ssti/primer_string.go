package ssti

import "fmt"

// primedStrings is the fixed set of string values worth pre-binding to a
// variable. "_" and "%" come first: their derivations are long filter
// chains many deeper rules lean on, and "%"'s canonical derivation embeds
// the "_" one, so "_" must already have been attempted by the time "%" is
// tried. The rest are identifiers that recur across exec-rule fragments
// (the dunder names walked by the class-hierarchy gadget, plus the
// os/popen/read trio); priming them once means every later reference is a
// single bound-variable lookup instead of re-synthesizing the same
// character-by-character construction.
func primedStrings() []string {
	return []string{
		"_", "%",
		"__class__", "__mro__", "__subclasses__", "__init__", "__globals__",
		"os", "popen", "read",
	}
}

// PrimeStrings is the string-variable priming pass: analogous to
// PrimeIntegers, but for string values. Each candidate is generated via the
// ordinary string rules (reusing any already-bound characters or fixed
// literals), tested as a "{% set name=expr %}" statement, and bound on
// acceptance. Skips values the generator or oracle rejects; never itself
// fails the assembler.
func PrimeStrings(gen *Generator, ctx *Context, oracle Oracle) {
	for i, s := range primedStrings() {
		name := fmt.Sprintf("fs%d", i)
		if ctx.Has(name) {
			continue
		}
		expr, ok := gen.Generate(String(s), ctx)
		if !ok {
			continue
		}
		stmt := fmt.Sprintf("{%% set %s=%s %%}", name, expr)
		if !oracle(stmt) {
			continue
		}
		ctx.BindString(name, stmt, s)
	}
}
