package ssti

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimeIntegersBindsFixedValues(t *testing.T) {
	gen := NewGenerator(acceptAll, nil)
	ctx := NewContext()

	PrimeIntegers(gen, ctx, acceptAll)

	require.NotEmpty(t, ctx.Names())
	name, ok := boundIntVar(ctx, 0)
	require.True(t, ok)
	assert.Contains(t, name, "fi")
}

func TestPrimeIntegersSkipsValuesTheOracleRejects(t *testing.T) {
	gen := NewGenerator(acceptAll, nil)
	ctx := NewContext()

	// Reject every "{% set ... %}" priming statement outright.
	PrimeIntegers(gen, ctx, func(string) bool { return false })

	assert.Empty(t, ctx.Names())
}

func TestPrimeIntegersIsIdempotentPerName(t *testing.T) {
	gen := NewGenerator(acceptAll, nil)
	ctx := NewContext()

	PrimeIntegers(gen, ctx, acceptAll)
	first := ctx.Names()
	PrimeIntegers(gen, ctx, acceptAll)
	assert.Equal(t, first, ctx.Names())
}

func TestPrimeStringsBindsFixedValues(t *testing.T) {
	gen := NewGenerator(acceptAll, nil)
	ctx := NewContext()

	PrimeStrings(gen, ctx, acceptAll)

	require.NotEmpty(t, ctx.Names())
	name, ok := boundStringVar(ctx, "os")
	require.True(t, ok)
	assert.Contains(t, name, "fs")
}

func TestPrimeStringsLaterRulesReuseBoundOsVariable(t *testing.T) {
	gen := NewGenerator(acceptAll, nil)
	ctx := NewContext()
	PrimeStrings(gen, ctx, acceptAll)

	frag, ok := gen.Generate(String("os"), ctx)
	require.True(t, ok)
	name, _ := boundStringVar(ctx, "os")
	assert.Equal(t, name, frag)
}
