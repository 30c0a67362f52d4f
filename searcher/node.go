package searcher

import (
	"github.com/pkg/errors"

	"generals/game"
	"generals/infostate"
)

// Node is a world state together with both players' views of it. The views
// are advanced with every transition so they always describe the trajectory
// that produced the board.
type Node struct {
	Board      game.Board
	Infostates [2]infostate.Infostate // indexed by Player.Index()
}

func NewNode(b game.Board) (Node, error) {
	n := Node{Board: b}
	for _, p := range []game.Player{game.Blue, game.Red} {
		s, err := infostate.AtStart(p, b)
		if err != nil {
			return Node{}, errors.Wrapf(err, "%v infostate", p)
		}
		n.Infostates[p.Index()] = s
	}
	return n, nil
}

// Play applies m to the board and reports the outcome to both views.
func (n Node) Play(m game.Move) (Node, game.Outcome, error) {
	b, outcome, err := n.Board.Transition(m)
	if err != nil {
		return Node{}, outcome, err
	}
	next := Node{Board: b}
	for i := range n.Infostates {
		next.Infostates[i], err = n.Infostates[i].Apply(m, outcome)
		if err != nil {
			return Node{}, outcome, errors.Wrapf(err, "%v view", n.Infostates[i].Owner)
		}
	}
	return next, outcome, nil
}

// Signature keys the information set of the player to move.
func (n *Node) Signature() string {
	return n.Infostates[n.Board.ToMove.Index()].Signature()
}
