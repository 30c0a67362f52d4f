package game

import (
	"encoding/binary"
	"hash/fnv"
	"strings"

	"github.com/pkg/errors"
)

const (
	Rows     = 8
	Columns  = 9
	ArmySize = 21
)

// Board is the arbiter's view of the game. It is a value type: Transition
// returns a fresh Board and never shares the grid with its input.
type Board struct {
	Grid            [Rows][Columns]Rank
	ToMove          Player
	BlueFlagWaiting bool // blue flag sat on row Rows-1 through a full turn
	RedFlagWaiting  bool // red flag sat on row 0 through a full turn
	Ply             int  // moves played so far
}

// At returns the rank on square s.
func (b *Board) At(s Square) Rank {
	return b.Grid[s.Row][s.Col]
}

// goalRow is the enemy back row a player's flag tries to reach.
func goalRow(p Player) int {
	if p == Blue {
		return Rows - 1
	}
	return 0
}

// forward is the row direction a player advances in.
func forward(p Player) int {
	if p == Blue {
		return 1
	}
	return -1
}

var directions = [4]Square{
	{1, 0},  // up
	{-1, 0}, // down
	{0, 1},  // right
	{0, -1}, // left
}

// LegalMoves returns every orthogonal step of the player to move onto an empty
// square or a square held by the opponent, in row-major order of the pieces.
func (b Board) LegalMoves() []Move {
	var moves []Move
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			if b.Grid[row][col].Owner() != b.ToMove {
				continue
			}
			for _, d := range directions {
				to := Square{row + d.Row, col + d.Col}
				if !to.InBounds() || b.At(to).Owner() == b.ToMove {
					continue
				}
				moves = append(moves, Move{From: Square{row, col}, To: to})
			}
		}
	}
	return moves
}

// Transition plays m and returns the resulting board and the observed outcome.
// It fails with ErrIllegalMove when the source does not hold a piece of the
// player to move, the destination holds an allied piece, or the step is not
// an in-bounds orthogonal move.
func (b Board) Transition(m Move) (Board, Outcome, error) {
	if !m.From.InBounds() || !m.To.InBounds() || !m.adjacent() {
		return b, Occupy, errors.Wrapf(ErrIllegalMove, "%v is not an orthogonal step", m)
	}
	challenger := b.At(m.From)
	if challenger.Owner() != b.ToMove {
		return b, Occupy, errors.Wrapf(ErrIllegalMove, "%v: no %v piece on the source square", m, b.ToMove)
	}
	defender := b.At(m.To)
	if defender.Owner() == b.ToMove {
		return b, Occupy, errors.Wrapf(ErrIllegalMove, "%v: destination holds an allied piece", m)
	}

	next := b // arrays copy by value
	outcome := Occupy
	if defender == Blank {
		next.Grid[m.To.Row][m.To.Col] = challenger
	} else {
		outcome = Resolve(challenger.Base(), defender.Base())
		switch outcome {
		case Win:
			next.Grid[m.To.Row][m.To.Col] = challenger
		case Draw:
			next.Grid[m.To.Row][m.To.Col] = Blank
		}
	}
	next.Grid[m.From.Row][m.From.Col] = Blank

	mover := next.ToMove
	next.ToMove = mover.Opponent()
	next.Ply++
	next.updateWaiting(mover)
	return next, outcome, nil
}

// updateWaiting sets the waiting bit of a flag standing on its goal row when it
// is unthreatened, or when the opponent has just moved without taking it. The
// bits are never cleared.
func (b *Board) updateWaiting(mover Player) {
	for _, p := range [2]Player{Blue, Red} {
		col, ok := b.flagOnGoalRow(p)
		if !ok {
			continue
		}
		if mover == p.Opponent() || !b.threatened(p, col) {
			b.setWaiting(p)
		}
	}
}

func (b *Board) setWaiting(p Player) {
	if p == Blue {
		b.BlueFlagWaiting = true
	} else {
		b.RedFlagWaiting = true
	}
}

func (b *Board) waiting(p Player) bool {
	if p == Blue {
		return b.BlueFlagWaiting
	}
	return b.RedFlagWaiting
}

// FlagSquare locates p's flag.
func (b *Board) FlagSquare(p Player) (Square, bool) {
	flag := Flag.For(p)
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			if b.Grid[row][col] == flag {
				return Square{row, col}, true
			}
		}
	}
	return Square{}, false
}

func (b *Board) flagOnGoalRow(p Player) (int, bool) {
	flag := Flag.For(p)
	row := goalRow(p)
	for col := 0; col < Columns; col++ {
		if b.Grid[row][col] == flag {
			return col, true
		}
	}
	return 0, false
}

// threatened reports whether an enemy piece stands beside p's flag on its goal
// row. Edge columns only have one neighbour to check.
func (b *Board) threatened(p Player, col int) bool {
	row := goalRow(p)
	enemy := p.Opponent()
	if col > 0 && b.Grid[row][col-1].Owner() == enemy {
		return true
	}
	if col < Columns-1 && b.Grid[row][col+1].Owner() == enemy {
		return true
	}
	return false
}

// Winner returns the side that has won, or None while the game goes on.
func (b Board) Winner() Player {
	_, blueAlive := b.FlagSquare(Blue)
	_, redAlive := b.FlagSquare(Red)
	switch {
	case !blueAlive:
		return Red
	case !redAlive:
		return Blue
	}
	for _, p := range [2]Player{Blue, Red} {
		if col, ok := b.flagOnGoalRow(p); ok && (b.waiting(p) || !b.threatened(p, col)) {
			return p
		}
	}
	return None
}

// IsTerminal reports whether a flag was captured or has safely reached the
// enemy back row.
func (b Board) IsTerminal() bool {
	return b.Winner() != None
}

// Reward is +1 when Blue has won and -1 when Red has won. It is undefined on a
// non-terminal board, which is reported through ok.
func (b Board) Reward() (reward float64, ok bool) {
	winner := b.Winner()
	if winner == None {
		return 0, false
	}
	return winner.Sign(), true
}

// Hash folds the full board into a 64-bit fnv hash.
func (b Board) Hash() uint64 {
	hasher := fnv.New64a()
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			hasher.Write([]byte{byte(b.Grid[row][col])})
		}
	}
	binary.Write(hasher, binary.LittleEndian, int64(b.ToMove))
	binary.Write(hasher, binary.LittleEndian, b.BlueFlagWaiting)
	binary.Write(hasher, binary.LittleEndian, b.RedFlagWaiting)
	return hasher.Sum64()
}

// Count returns the number of pieces p has on the board.
func (b *Board) Count(p Player) int {
	n := 0
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			if b.Grid[row][col].Owner() == p {
				n++
			}
		}
	}
	return n
}

// String draws the board with Blue at the bottom.
func (b Board) String() string {
	var sb strings.Builder
	for row := Rows - 1; row >= 0; row-- {
		for col := 0; col < Columns; col++ {
			if col > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(b.Grid[row][col].Label())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
