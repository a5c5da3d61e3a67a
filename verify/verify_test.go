package verify

import (
	"testing"

	"ggp/gdl"
	"ggp/games"
	"ggp/propnet"

	"github.com/stretchr/testify/require"
)

func newNetwork(t *testing.T, g *games.Game, c *propnet.Circuit) *propnet.Network {
	t.Helper()
	net, err := propnet.NewNetwork(g.Roles, c)
	require.NoError(t, err)
	return net
}

func TestEquivalent(t *testing.T) {
	t.Run("simplification preserves semantics", func(t *testing.T) {
		g := games.Random(6, 10, 120, 6)
		simplified := g.Circuit.Clone()
		stats := propnet.Simplify(simplified, propnet.UntilFixedPoint())
		require.Positive(t, stats.Fused)

		cex, err := Equivalent(newNetwork(t, g, g.Circuit.Clone()), newNetwork(t, g, simplified))
		require.NoError(t, err)
		require.Nil(t, cex)
	})

	t.Run("a dropped input is found", func(t *testing.T) {
		g := games.Counter()
		broken := g.Circuit.Clone()
		bump, ok := broken.Lookup(gdl.Const("bump"))
		require.True(t, ok)
		blueInc, ok := broken.Lookup(gdl.MustParse("(does blue inc)"))
		require.True(t, ok)
		broken.Disconnect(blueInc, broken.Inputs(bump)[0])

		cex, err := Equivalent(newNetwork(t, g, g.Circuit.Clone()), newNetwork(t, g, broken))
		require.NoError(t, err)
		require.NotNil(t, cex)
		require.NotEmpty(t, cex.Targets)
		require.Contains(t, cex.True, "(does blue inc)")
		require.NotContains(t, cex.True, "(does red inc)")
	})

	t.Run("different games are incomparable", func(t *testing.T) {
		a, b := games.Counter(), games.TicTacToe()
		_, err := Equivalent(newNetwork(t, a, a.Circuit), newNetwork(t, b, b.Circuit))
		require.ErrorIs(t, err, ErrIncomparable)
	})
}

func TestAudit(t *testing.T) {
	t.Run("counter is clean", func(t *testing.T) {
		g := games.Counter()
		findings, err := Audit(newNetwork(t, g, g.Circuit))
		require.NoError(t, err)
		require.Empty(t, findings)
	})

	t.Run("tictactoe over-approximation", func(t *testing.T) {
		g := games.TicTacToe()
		findings, err := Audit(newNetwork(t, g, g.Circuit))
		require.NoError(t, err)

		kinds := map[string]bool{}
		for _, f := range findings {
			kinds[f.Role.String()+" "+f.Kind.String()] = true
			require.NotContains(t, f.True, "INIT")
		}
		// Both lines at once is unreachable but satisfiable.
		require.True(t, kinds["xplayer goal-count"])
		// So is a board where neither role has control.
		require.True(t, kinds["oplayer no-legal-move"])
	})
}
