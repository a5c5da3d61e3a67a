package statemachine

import (
	"testing"

	"ggp/gdl"

	"github.com/stretchr/testify/require"
)

func TestMachineState(t *testing.T) {
	bits := []bool{true, false, false, true, true, false, false, false, false, true}
	s := pack(bits)

	require.Equal(t, 10, s.Len())
	require.Equal(t, "1001100001", s.String())
	for i, v := range bits {
		require.Equal(t, v, s.Has(i), "bit %d", i)
	}

	out := make([]bool, len(bits))
	s.unpack(out)
	require.Equal(t, bits, out)

	same := pack(append([]bool(nil), bits...))
	require.Equal(t, s, same)
	require.Equal(t, s.Hash(), same.Hash())

	bits[1] = true
	require.NotEqual(t, s, pack(bits))
}

func TestMove(t *testing.T) {
	m, err := ParseMove("( mark 1   2 )")
	require.NoError(t, err)
	require.Equal(t, "(mark 1 2)", m.String())
	require.Equal(t, NewMove(gdl.MustParse("(mark 1 2)")), m)
	require.True(t, m.Term().Equal(gdl.MustParse("(mark 1 2)")))

	_, err = ParseMove("(mark 1")
	require.ErrorIs(t, err, gdl.ErrSyntax)
	require.Equal(t, Role("xplayer"), NewRole(gdl.Const("xplayer")))
}
