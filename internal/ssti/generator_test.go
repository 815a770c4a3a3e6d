package ssti

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// acceptAll is an Oracle that never blocks anything; useful for exercising
// the generator's control flow in isolation from any particular WAF policy.
func acceptAll(string) bool { return true }

// denyContains returns an Oracle that rejects any fragment containing one of
// the given substrings, regardless of context, a minimal stand-in for a
// keyword-blacklist WAF.
func denyContains(blocked ...string) Oracle {
	return func(fragment string) bool {
		for _, b := range blocked {
			if strings.Contains(fragment, b) {
				return false
			}
		}
		return true
	}
}

func TestGenerateLiteralConsultsOracle(t *testing.T) {
	frag, ok := NewGenerator(acceptAll, nil).Generate(Literal("7"), NewContext())
	require.True(t, ok)
	assert.Equal(t, "7", frag)

	_, ok = NewGenerator(denyContains("7"), nil).Generate(Literal("7"), NewContext())
	assert.False(t, ok, "a literal the oracle rejects must not be emitted")
}

func TestGenerateUnsignedIntegerZeroAndOne(t *testing.T) {
	gen := NewGenerator(acceptAll, nil)

	zero, ok := gen.Generate(UnsignedInt(0), NewContext())
	require.True(t, ok)
	assert.Equal(t, "({}|length)", zero)

	one, ok := gen.Generate(UnsignedInt(1), NewContext())
	require.True(t, ok)
	assert.Equal(t, "({}|length|length)", one)
}

func TestGenerateUnsignedIntegerLargerValueIsWellFormed(t *testing.T) {
	gen := NewGenerator(acceptAll, nil)

	frag, ok := gen.Generate(UnsignedInt(42), NewContext())
	require.True(t, ok)
	assert.NotEmpty(t, frag)
	assert.True(t, strings.HasPrefix(frag, "("))
}

func TestGenerateFallsBackWhenPreferredRuleIsBlocked(t *testing.T) {
	// Block the product form so the sum-split alternative must be used.
	gen := NewGenerator(denyContains("*"), nil)

	frag, ok := gen.Generate(UnsignedInt(42), NewContext())
	require.True(t, ok)
	assert.NotContains(t, frag, "*")
}

func TestGenerateIntegerNegative(t *testing.T) {
	gen := NewGenerator(acceptAll, nil)

	frag, ok := gen.Generate(Int(-3), NewContext())
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(frag, "(-"))
}

func TestGenerateStringEmpty(t *testing.T) {
	gen := NewGenerator(acceptAll, nil)

	frag, ok := gen.Generate(String(""), NewContext())
	require.True(t, ok)
	assert.Equal(t, "''", frag)
}

func TestGenerateStringUnderscoreUsesCanonicalLiteral(t *testing.T) {
	gen := NewGenerator(acceptAll, nil)

	frag, ok := gen.Generate(String("_"), NewContext())
	require.True(t, ok)
	assert.Equal(t, underscoreExpr, frag)
}

func TestGenerateStringMultiCharJoinsWithConcat(t *testing.T) {
	gen := NewGenerator(acceptAll, nil)

	frag, ok := gen.Generate(String("os"), NewContext())
	require.True(t, ok)
	assert.Contains(t, frag, "~")
}

func TestGenerateIsUnsatisfiableReturnsBottom(t *testing.T) {
	// An oracle that rejects every single-quote AND double-quote AND the
	// chr-builtin fallback's final call form leaves no way to spell any
	// character at all.
	gen := NewGenerator(func(string) bool { return false }, nil)

	_, ok := gen.Generate(Char('a'), NewContext())
	assert.False(t, ok)
}

func TestGenerateCachesSuccessAcrossCalls(t *testing.T) {
	calls := 0
	oracle := func(fragment string) bool {
		calls++
		return true
	}
	gen := NewGenerator(oracle, nil)
	ctx := NewContext()

	first, ok := gen.Generate(UnsignedInt(42), ctx)
	require.True(t, ok)
	callsAfterFirst := calls

	second, ok := gen.Generate(UnsignedInt(42), ctx)
	require.True(t, ok)
	assert.Equal(t, first, second)
	assert.Equal(t, callsAfterFirst, calls, "cached success must not re-consult the oracle")
}

func TestGenerateCachesFailureButRespectsContextFingerprint(t *testing.T) {
	blockEverything := func(string) bool { return false }
	gen := NewGenerator(blockEverything, nil)

	ctx1 := NewContext()
	_, ok := gen.Generate(Char('z'), ctx1)
	require.False(t, ok)
	_, ok = gen.Generate(Char('z'), ctx1)
	require.False(t, ok, "failure must be cached, not re-derived")

	ctx2 := NewContext()
	ctx2.BindString("fs99", "{% set fs99='irrelevant' %}", "irrelevant")
	_, ok = gen.Generate(Char('z'), ctx2)
	assert.False(t, ok, "a richer context doesn't make an impossible oracle possible, but must not share the first context's cache slot")
}

func TestGenerateUnsignedIntegerReusesBoundVariable(t *testing.T) {
	gen := NewGenerator(acceptAll, nil)
	ctx := NewContext()
	ctx.BindInt("fi0", "{% set fi0=({}|length) %}", 0)

	frag, ok := gen.Generate(UnsignedInt(0), ctx)
	require.True(t, ok)
	assert.Equal(t, "fi0", frag)
}

func TestGenerateOSPopenReadProducesShellInvocation(t *testing.T) {
	gen := NewGenerator(acceptAll, nil)

	frag, ok := gen.Generate(OSPopenRead("id"), NewContext())
	require.True(t, ok)
	assert.Contains(t, frag, "__subclasses__")
	assert.Contains(t, frag, ".popen(")
	assert.Contains(t, frag, ").read()")
}

func TestGenerateOSPopenReadFallsBackToAttrFormWhenDotBlocked(t *testing.T) {
	gen := NewGenerator(denyContains("__class__.__mro__"), nil)

	frag, ok := gen.Generate(OSPopenRead("id"), NewContext())
	require.True(t, ok)
	assert.Contains(t, frag, "|attr(")
}

func TestGenerateDepthLimitTerminates(t *testing.T) {
	gen := NewGenerator(acceptAll, nil)
	gen.maxDepth = 1

	_, ok := gen.Generate(OSPopenRead("id"), NewContext())
	assert.False(t, ok, "a shallow depth cap must fail closed, never panic or hang")
}
