package game

import "github.com/pkg/errors"

var (
	// ErrIllegalMove is returned by Transition when the move cannot be played
	// on the board. The board is left untouched.
	ErrIllegalMove = errors.New("illegal move")
	// ErrInvalidMove is returned when a move encoding cannot be decoded.
	ErrInvalidMove = errors.New("invalid move encoding")
	// ErrInvalidFormation is returned for formations that do not hold exactly
	// one army.
	ErrInvalidFormation = errors.New("invalid formation")
)
