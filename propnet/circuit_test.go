package propnet

import (
	"bytes"
	"errors"
	"testing"

	"ggp/gdl"

	"github.com/stretchr/testify/require"
)

func TestCircuitEdges(t *testing.T) {
	t.Run("connect is symmetric and idempotent", func(t *testing.T) {
		c := NewCircuit()
		a := c.AddProposition(prop("a"))
		g := c.AddGate(And)
		c.Connect(a, g)
		c.Connect(a, g)

		require.Equal(t, []ID{g}, c.Outputs(a))
		require.Equal(t, []ID{a}, c.Inputs(g))
	})

	t.Run("remove detaches neighbours and keeps handles stable", func(t *testing.T) {
		c := NewCircuit()
		a := c.AddProposition(prop("a"))
		b := c.Derive(prop("b"), Not, a)
		g := c.Inputs(b)[0]

		c.Remove(g)

		require.False(t, c.Alive(g))
		require.Empty(t, c.Outputs(a))
		require.Empty(t, c.Inputs(b))
		require.Equal(t, 3, c.Len())
		require.Equal(t, 2, c.Live())
		require.Equal(t, []ID{a, b}, c.IDs())
	})

	t.Run("gate kinds are checked", func(t *testing.T) {
		require.Panics(t, func() { NewCircuit().AddGate(Proposition) })
		require.Panics(t, func() { NewCircuit().Connect(0, 1) })
	})
}

func TestCircuitValidate(t *testing.T) {
	t.Run("well formed skeleton", func(t *testing.T) {
		s := newSkeleton()
		s.finish(s.base("x"))
		require.NoError(t, s.c.Validate())
	})

	t.Run("arity violations are all reported", func(t *testing.T) {
		c := NewCircuit()
		a := c.AddProposition(prop("a"))
		b := c.AddProposition(prop("b"))
		c.Define(c.AddProposition(prop("n")), Not, a, b)
		c.Connect(c.AddGate(And), c.AddProposition(prop("empty")))

		err := c.Validate()
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrMalformed))
		require.Contains(t, err.Error(), "has 2 inputs, want 1")
		require.Contains(t, err.Error(), "has no inputs")
	})

	t.Run("gates must read propositions", func(t *testing.T) {
		c := NewCircuit()
		a := c.AddProposition(prop("a"))
		g1 := c.AddGate(Not)
		c.Connect(a, g1)
		c.Derive(prop("b"), Not, g1)

		require.ErrorIs(t, c.Validate(), ErrMalformed)
	})
}

func TestCircuitClone(t *testing.T) {
	s := newSkeleton()
	s.finish(s.base("x"))
	clone := s.c.Clone()

	gate := s.c.Inputs(s.legal)[0]
	clone.Remove(gate)

	require.True(t, s.c.Alive(gate), "original should be untouched")
	require.NotEmpty(t, s.c.Outputs(s.terminal))
	require.Empty(t, clone.Outputs(s.terminal))
}

func TestFactors(t *testing.T) {
	t.Run("independent latches split and share a copy of INIT", func(t *testing.T) {
		c := NewCircuit()
		init := c.AddProposition(gdl.Const(gdl.Init))
		for _, name := range []string{"p", "q"} {
			b := c.AddProposition(prop("(true " + name + ")"))
			next := c.Derive(prop("(next "+name+")"), Or, init, b)
			c.Latch(b, next)
		}

		factors := Factors(c)

		require.Len(t, factors, 2)
		for _, f := range factors {
			require.NoError(t, f.Validate())
			_, ok := f.Lookup(gdl.Const(gdl.Init))
			require.True(t, ok, "each factor should carry INIT")
			require.Equal(t, 5, f.Live())
		}
		require.Equal(t, 9, c.Live(), "source circuit should be untouched")
	})

	t.Run("snapshot drops edges leaving the set", func(t *testing.T) {
		c := NewCircuit()
		a := c.AddProposition(prop("a"))
		b := c.Derive(prop("b"), Not, a)

		snap := c.Snapshot([]ID{c.Inputs(b)[0], b})

		require.Equal(t, 2, snap.Live())
		require.Empty(t, snap.Inputs(0), "gate input outside the set should be dropped")
		require.Equal(t, []ID{1}, snap.Outputs(0))
	})
}

func TestWriteDot(t *testing.T) {
	s := newSkeleton()
	s.finish(s.base("x"))
	var buf bytes.Buffer

	require.NoError(t, s.c.WriteDot(&buf))

	out := buf.String()
	require.Contains(t, out, "digraph propNet {")
	require.Contains(t, out, `label="(legal red go)"`)
	require.Contains(t, out, `label="TRANSITION"`)
}
