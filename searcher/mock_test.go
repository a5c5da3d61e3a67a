package searcher

import (
	"fmt"

	"ggp/game"
)

type mockMove struct {
	id int
}

func (m mockMove) String() string {
	return fmt.Sprintf("move%d", m.id)
}

type mockState struct {
	player  string
	moves   []game.Move
	played  []game.Move
	hash    game.StateHash
	rewards map[string]float64
}

func (m mockState) Player() string {
	return m.player
}

func (m mockState) LegalMoves() []game.Move {
	return m.moves
}

func (m mockState) Play(move game.Move) game.State {
	played := append(append([]game.Move{}, m.played...), move)
	return mockState{played: played, hash: m.hash + 1}
}

func (m mockState) Hash() game.StateHash {
	return m.hash
}

func (m mockState) Rewards() map[string]float64 {
	return m.rewards
}
