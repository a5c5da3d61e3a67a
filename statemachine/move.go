package statemachine

import "ggp/gdl"

// Role names a player by its canonical term text.
type Role string

func NewRole(t gdl.Term) Role { return Role(t.String()) }

// Move is one role's action, held as canonical term text so that moves
// compare by value.
type Move struct {
	action string
}

func NewMove(t gdl.Term) Move { return Move{action: t.String()} }

func ParseMove(s string) (Move, error) {
	t, err := gdl.Parse(s)
	if err != nil {
		return Move{}, err
	}
	return NewMove(t), nil
}

func (m Move) Term() gdl.Term { return gdl.MustParse(m.action) }

func (m Move) String() string { return m.action }
