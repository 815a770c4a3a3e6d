package ssti

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextBindIsFirstWriteWins(t *testing.T) {
	ctx := NewContext()
	ctx.Bind("x", "{% set x=1 %}")
	ctx.Bind("x", "{% set x=2 %}")

	v, ok := ctx.Lookup("x")
	assert.True(t, ok)
	assert.Equal(t, "{% set x=1 %}", v)
}

func TestContextNamesPreservesBindingOrder(t *testing.T) {
	ctx := NewContext()
	ctx.Bind("b", "...")
	ctx.Bind("a", "...")
	ctx.Bind("c", "...")

	assert.Equal(t, []string{"b", "a", "c"}, ctx.Names())
}

func TestContextFingerprintIsOrderIndependent(t *testing.T) {
	c1 := NewContext()
	c1.Bind("a", "x")
	c1.Bind("b", "y")

	c2 := NewContext()
	c2.Bind("b", "y")
	c2.Bind("a", "x")

	assert.Equal(t, c1.Fingerprint(), c2.Fingerprint())
}

func TestContextFingerprintChangesWithNewBindings(t *testing.T) {
	base := NewContext()
	base.Bind("a", "x")

	richer := NewContext()
	richer.Bind("a", "x")
	richer.Bind("b", "y")

	assert.NotEqual(t, base.Fingerprint(), richer.Fingerprint())
}

func TestContextHas(t *testing.T) {
	ctx := NewContext()
	assert.False(t, ctx.Has("x"))
	ctx.BindInt("x", "{% set x=1 %}", 1)
	assert.True(t, ctx.Has("x"))
}
