package propnet

import (
	"errors"
	"testing"

	"ggp/gdl"

	"github.com/stretchr/testify/require"
)

func TestNewNetworkRegions(t *testing.T) {
	s := newSkeleton()
	x, y := s.base("x"), s.base("y")
	p := s.c.Derive(prop("p"), And, x, y, s.input)
	s.finish(p)
	s.c.Derive(prop("(goal red 100)"), Or, s.terminal)
	s.c.Derive(prop("(goal red 0)"), Not, s.terminal)
	dead := s.c.AddProposition(prop("dead"))

	n, err := NewNetwork([]gdl.Term{red}, s.c)
	require.NoError(t, err)

	t.Run("INIT is index 0", func(t *testing.T) {
		require.Equal(t, 0, n.InitIndex())
		require.Equal(t, s.init, n.Prop(0))
		require.Equal(t, TagInit, n.Tag(0))
	})

	t.Run("base, input and internal regions are contiguous", func(t *testing.T) {
		require.Equal(t, 1, n.BaseStart())
		require.Equal(t, 3, n.InputStart())
		require.Equal(t, 4, n.InternalStart())
		require.Equal(t, x, n.Prop(1))
		require.Equal(t, y, n.Prop(2))
		require.Equal(t, s.input, n.Prop(3))
		require.Equal(t, TagInput, n.Tag(3))
		// (next x), (next y), p, terminal, legal, two goals
		require.Equal(t, 11, n.Size())
	})

	t.Run("zero-input propositions are excluded", func(t *testing.T) {
		require.Equal(t, -1, n.Slot(dead))
		v, ok := n.Static(dead)
		require.True(t, ok)
		require.False(t, v)
	})

	t.Run("terminal, legal and goal tables", func(t *testing.T) {
		require.Equal(t, n.Slot(s.terminal), n.Terminal())
		require.Equal(t, TagTerminal, n.Tag(n.Terminal()))
		require.Equal(t, []int{n.Slot(s.legal)}, n.Legals(0))
		goals := n.Goals(0)
		require.Len(t, goals, 2)
		require.Equal(t, 100, goals[0].Value)
		require.Equal(t, 0, goals[1].Value)
		require.Equal(t, 0, n.Owner(goals[0].Index))
	})

	t.Run("legal and input map to each other", func(t *testing.T) {
		l := n.Slot(s.legal)
		in := n.Slot(s.input)
		require.Equal(t, in, n.Paired(l))
		require.Equal(t, l, n.Paired(in))
		require.Equal(t, -1, n.Paired(n.Terminal()))
	})

	t.Run("lookup by name", func(t *testing.T) {
		i, ok := n.Lookup(prop("(true y)"))
		require.True(t, ok)
		require.Equal(t, 2, i)
		_, ok = n.Lookup(prop("dead"))
		require.False(t, ok)
	})
}

func TestNewNetworkMalformed(t *testing.T) {
	cases := []struct {
		name  string
		build func() *Circuit
		roles []gdl.Term
		want  string
	}{
		{
			name: "missing INIT",
			build: func() *Circuit {
				c := NewCircuit()
				in := c.AddProposition(prop("(does red go)"))
				term := c.Derive(gdl.Const(gdl.Terminal), Or, in)
				c.Derive(prop("(legal red go)"), Not, term)
				return c
			},
			roles: []gdl.Term{red},
			want:  "no INIT proposition",
		},
		{
			name: "missing terminal",
			build: func() *Circuit {
				s := newSkeleton()
				s.c.Derive(prop("(legal red go)"), Not, s.base("x"))
				return s.c
			},
			roles: []gdl.Term{red},
			want:  "no terminal proposition",
		},
		{
			name: "legal without input",
			build: func() *Circuit {
				s := newSkeleton()
				s.finish(s.base("x"))
				s.c.Derive(prop("(legal red stop)"), Not, s.terminal)
				return s.c
			},
			roles: []gdl.Term{red},
			want:  "(legal red stop) has no matching does input",
		},
		{
			name: "undeclared role",
			build: func() *Circuit {
				s := newSkeleton()
				s.finish(s.base("x"))
				return s.c
			},
			roles: []gdl.Term{gdl.Const("blue")},
			want:  "refers to an undeclared role",
		},
		{
			name: "non-numeric goal",
			build: func() *Circuit {
				s := newSkeleton()
				s.finish(s.base("x"))
				s.c.Derive(prop("(goal red high)"), Or, s.terminal)
				return s.c
			},
			roles: []gdl.Term{red},
			want:  "(goal red high) has a non-numeric payoff",
		},
		{
			name: "role without legal moves",
			build: func() *Circuit {
				s := newSkeleton()
				s.finish(s.base("x"))
				return s.c
			},
			roles: []gdl.Term{red, gdl.Const("blue")},
			want:  "role blue has no legal propositions",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewNetwork(tc.roles, tc.build())
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrMalformed), "classification errors are fatal")
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestTagString(t *testing.T) {
	t.Run("known tags", func(t *testing.T) {
		require.Equal(t, "none", TagNone.String())
		require.Equal(t, "terminal", TagTerminal.String())
		require.Equal(t, "goal", TagGoal.String())
	})

	t.Run("out of range tag", func(t *testing.T) {
		require.NotPanics(t, func() { _ = Tag(42).String() })
		require.Equal(t, "tag(42)", Tag(42).String())
	})
}
