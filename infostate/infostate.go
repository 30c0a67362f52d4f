// Package infostate models what one player knows about the board: exact ranks
// of its own pieces and a rank range for every opposing piece, narrowed by
// the outcomes of combat.
package infostate

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"generals/game"
)

var (
	// ErrContradiction means an observation is inconsistent with the recorded
	// evidence. It signals broken move/outcome bookkeeping upstream.
	ErrContradiction = errors.New("evidence contradiction")
	// ErrUnknownSquare means an observed move does not touch the expected pieces.
	ErrUnknownSquare = errors.New("no live piece on square")
	// ErrTooManyPieces is returned when a side fields more than one army.
	ErrTooManyPieces = errors.New("more pieces than an army holds")
)

// Slot is one piece as seen by the owner of the infostate.
type Slot struct {
	Owner    game.Player
	Floor    game.Rank // lowest base rank the piece can have
	Ceiling  game.Rank // highest base rank; equal to Floor once identified
	Square   game.Square
	Captured bool
}

// Identified reports whether the rank range has collapsed to a single rank.
func (s Slot) Identified() bool { return s.Floor == s.Ceiling }

// Infostate is one player's knowledge of the game. Opponent pieces come first
// in Slots, followed by the owner's pieces.
type Infostate struct {
	Owner     game.Player
	ToMove    game.Player
	Slots     []Slot
	Opponents int // number of leading opponent slots

	// index maps a square to the slot of the live piece on it, -1 when empty.
	index [game.Rows][game.Columns]int8
}

// AtStart seeds an infostate for owner from the arbiter's board. Own pieces
// are identified, opponent pieces span the full rank scale. Piece locations
// are public.
func AtStart(owner game.Player, b game.Board) (Infostate, error) {
	s := Infostate{Owner: owner, ToMove: b.ToMove}
	var own []Slot
	for row := 0; row < game.Rows; row++ {
		for col := 0; col < game.Columns; col++ {
			r := b.Grid[row][col]
			square := game.Square{Row: row, Col: col}
			switch r.Owner() {
			case owner:
				own = append(own, Slot{Owner: owner, Floor: r.Base(), Ceiling: r.Base(), Square: square})
			case owner.Opponent():
				s.Slots = append(s.Slots, Slot{Owner: owner.Opponent(), Floor: game.Flag, Ceiling: game.Spy, Square: square})
			}
		}
	}
	if len(own) > game.ArmySize || len(s.Slots) > game.ArmySize {
		return Infostate{}, errors.Wrapf(ErrTooManyPieces, "%d own and %d opposing pieces", len(own), len(s.Slots))
	}
	s.Opponents = len(s.Slots)
	s.Slots = append(s.Slots, own...)
	s.reindex()
	return s, nil
}

func (s *Infostate) reindex() {
	for row := range s.index {
		for col := range s.index[row] {
			s.index[row][col] = -1
		}
	}
	for i, slot := range s.Slots {
		if !slot.Captured {
			s.index[slot.Square.Row][slot.Square.Col] = int8(i)
		}
	}
}

// Clone returns a deep copy sharing no storage with s.
func (s Infostate) Clone() Infostate {
	s.Slots = append([]Slot(nil), s.Slots...)
	return s
}

// SlotAt returns the index of the live piece on sq, or -1.
func (s *Infostate) SlotAt(sq game.Square) int {
	if !sq.InBounds() {
		return -1
	}
	return int(s.index[sq.Row][sq.Col])
}

// capturedSquare is the off-board parking spot for captured pieces. Each side
// has its own so live coordinates stay unique.
func capturedSquare(p game.Player) game.Square {
	if p == game.Blue {
		return game.Square{Row: -1, Col: -1}
	}
	return game.Square{Row: game.Rows + 1, Col: game.Columns + 1}
}

// Apply returns the infostate after move m produced outcome. The opposing
// piece involved in a clash has its rank range narrowed against the known
// rank of the owner's piece, captured pieces are parked off the board, and
// the player to move flips. Inconsistent observations yield ErrContradiction
// and leave s untouched.
func (s Infostate) Apply(m game.Move, outcome game.Outcome) (Infostate, error) {
	attacker := s.SlotAt(m.From)
	defender := s.SlotAt(m.To)
	if attacker < 0 {
		return s, errors.Wrapf(ErrUnknownSquare, "move %v: source %v", m, m.From)
	}
	if (outcome == game.Occupy) != (defender < 0) {
		return s, errors.Wrapf(ErrContradiction, "move %v: outcome %v with defender slot %d", m, outcome, defender)
	}

	next := s.Clone()
	if outcome != game.Occupy {
		if err := next.narrow(attacker, defender, outcome); err != nil {
			return s, errors.Wrapf(err, "move %v", m)
		}
	}

	a := &next.Slots[attacker]
	next.index[m.From.Row][m.From.Col] = -1
	switch outcome {
	case game.Occupy, game.Win:
		if outcome == game.Win {
			next.capture(defender)
		}
		a.Square = m.To
		next.index[m.To.Row][m.To.Col] = int8(attacker)
	case game.Loss:
		next.capture(attacker)
	case game.Draw:
		next.capture(attacker)
		next.capture(defender)
	}
	next.ToMove = next.ToMove.Opponent()
	return next, nil
}

func (s *Infostate) capture(i int) {
	slot := &s.Slots[i]
	if slot.Square.InBounds() && int(s.index[slot.Square.Row][slot.Square.Col]) == i {
		s.index[slot.Square.Row][slot.Square.Col] = -1
	}
	slot.Square = capturedSquare(slot.Owner)
	slot.Captured = true
}

// narrow restricts the unknown side of a clash to the ranks that would have
// produced outcome against the known side.
func (s *Infostate) narrow(attacker, defender int, outcome game.Outcome) error {
	a, d := s.Slots[attacker], s.Slots[defender]
	if a.Owner == d.Owner {
		return errors.Wrapf(ErrContradiction, "clash between two %v pieces", a.Owner)
	}
	if a.Owner == s.Owner {
		floor, ceiling, err := feasible(d, func(r game.Rank) bool {
			return game.Resolve(a.Floor, r) == outcome
		})
		if err != nil {
			return err
		}
		s.Slots[defender].Floor, s.Slots[defender].Ceiling = floor, ceiling
		return nil
	}
	floor, ceiling, err := feasible(a, func(r game.Rank) bool {
		return game.Resolve(r, d.Floor) == outcome
	})
	if err != nil {
		return err
	}
	s.Slots[attacker].Floor, s.Slots[attacker].Ceiling = floor, ceiling
	return nil
}

// feasible returns the tightest range inside slot's current range whose ranks
// agree with the observation. A flag is only kept when nothing else fits: a
// clash that a flag could survive alongside other ranks either captures it or
// ends the game, so the belief matters only when the game continues.
func feasible(slot Slot, agrees func(game.Rank) bool) (game.Rank, game.Rank, error) {
	var candidates []game.Rank
	for r := slot.Floor; r <= slot.Ceiling; r++ {
		if agrees(r) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return 0, 0, errors.Wrapf(ErrContradiction, "no rank in [%d, %d] fits", slot.Floor, slot.Ceiling)
	}
	if len(candidates) > 1 && candidates[0] == game.Flag {
		candidates = candidates[1:]
	}
	return candidates[0], candidates[len(candidates)-1], nil
}

// Evidence returns the [floor, ceiling] ranges of the opponent slots.
func (s *Infostate) Evidence() [][2]game.Rank {
	evidence := make([][2]game.Rank, s.Opponents)
	for i := range evidence {
		evidence[i] = [2]game.Rank{s.Slots[i].Floor, s.Slots[i].Ceiling}
	}
	return evidence
}

// View renders the board as the owner sees it: own pieces with their ranks,
// identified opponent pieces with theirs and the rest as game.Unknown.
func (s *Infostate) View() [game.Rows][game.Columns]game.Rank {
	var grid [game.Rows][game.Columns]game.Rank
	for _, slot := range s.Slots {
		if slot.Captured {
			continue
		}
		r := game.Unknown
		if slot.Identified() {
			r = slot.Floor.For(slot.Owner)
		}
		grid[slot.Square.Row][slot.Square.Col] = r
	}
	return grid
}

// Signature is the canonical key of the information set: owner, player to
// move and every slot's location and range. Two infostates with the same
// signature are indistinguishable to their owner.
func (s *Infostate) Signature() string {
	var sb strings.Builder
	sb.Grow(4 + 5*len(s.Slots))
	sb.WriteString(strconv.Itoa(int(s.Owner)))
	sb.WriteString(strconv.Itoa(int(s.ToMove)))
	sb.WriteByte('|')
	for _, slot := range s.Slots {
		if slot.Captured {
			sb.WriteString("xx")
		} else {
			sb.WriteByte(byte('0' + slot.Square.Row))
			sb.WriteByte(byte('0' + slot.Square.Col))
		}
		sb.WriteString(strconv.FormatInt(int64(slot.Floor), 16))
		sb.WriteString(strconv.FormatInt(int64(slot.Ceiling), 16))
		sb.WriteByte('.')
	}
	return sb.String()
}
