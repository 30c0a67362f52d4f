package game

import (
	"fmt"

	"github.com/pkg/errors"
)

// Square is a (row, column) coordinate. Row 0 is Blue's back row.
type Square struct {
	Row, Col int
}

func (s Square) InBounds() bool {
	return s.Row >= 0 && s.Row < Rows && s.Col >= 0 && s.Col < Columns
}

// Move is an orthogonal single-square relocation.
type Move struct {
	From, To Square
}

// NewMove builds a move from its four coordinates.
func NewMove(fromRow, fromCol, toRow, toCol int) Move {
	return Move{From: Square{fromRow, fromCol}, To: Square{toRow, toCol}}
}

// String encodes the move as four concatenated digits, e.g. "2535".
// Every coordinate of an 8x9 board fits in one digit.
func (m Move) String() string {
	return fmt.Sprintf("%d%d%d%d", m.From.Row, m.From.Col, m.To.Row, m.To.Col)
}

// MarshalText lets moves serve as map keys in persisted tables.
func (m Move) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Move) UnmarshalText(text []byte) error {
	parsed, err := ParseMove(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMove decodes the four-digit encoding produced by Move.String.
func ParseMove(s string) (Move, error) {
	if len(s) != 4 {
		return Move{}, errors.Wrapf(ErrInvalidMove, "%q: want 4 digits", s)
	}
	var c [4]int
	for i := 0; i < 4; i++ {
		if s[i] < '0' || s[i] > '9' {
			return Move{}, errors.Wrapf(ErrInvalidMove, "%q: non-digit at %d", s, i)
		}
		c[i] = int(s[i] - '0')
	}
	m := NewMove(c[0], c[1], c[2], c[3])
	if !m.From.InBounds() || !m.To.InBounds() {
		return Move{}, errors.Wrapf(ErrInvalidMove, "%q: out of bounds", s)
	}
	if !m.adjacent() {
		return Move{}, errors.Wrapf(ErrInvalidMove, "%q: not an orthogonal step", s)
	}
	return m, nil
}

func (m Move) adjacent() bool {
	dr, dc := m.To.Row-m.From.Row, m.To.Col-m.From.Col
	return dr*dr+dc*dc == 1
}
