package game

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"golang.org/x/exp/slices"
)

// FormationSize is the number of squares of a starting formation: three rows
// of the board, front line first.
const FormationSize = 3 * Columns

// Formation lists base ranks (or Blank) for the squares of a player's three
// home rows, front line first, each row from the player's own left.
type Formation [FormationSize]Rank

// ParseFormation reads a whitespace separated list of base ranks. Missing
// trailing squares are blank.
func ParseFormation(s string) (Formation, error) {
	var f Formation
	fields := strings.Fields(s)
	if len(fields) > FormationSize {
		return f, errors.Wrapf(ErrInvalidFormation, "%d squares, at most %d allowed", len(fields), FormationSize)
	}
	for i, field := range fields {
		v, err := strconv.Atoi(field)
		if err != nil {
			return f, errors.Wrapf(ErrInvalidFormation, "square %d: %v", i, err)
		}
		if v < int(Blank) || v > int(Spy) {
			return f, errors.Wrapf(ErrInvalidFormation, "square %d: rank %d out of range", i, v)
		}
		f[i] = Rank(v)
	}
	return f, f.Validate()
}

// Validate checks that the formation holds exactly one army.
func (f Formation) Validate() error {
	var pieces []Rank
	for _, r := range f {
		if r != Blank {
			pieces = append(pieces, r)
		}
	}
	slices.Sort(pieces)
	if !slices.Equal(pieces, Army[:]) {
		return errors.Wrapf(ErrInvalidFormation, "pieces %v do not form an army", pieces)
	}
	return nil
}

// String renders the formation in the format ParseFormation reads.
func (f Formation) String() string {
	fields := make([]string, len(f))
	for i, r := range f {
		fields[i] = strconv.Itoa(int(r))
	}
	return strings.Join(fields, " ")
}

// RandomFormation shuffles the army over the home rows, keeping the flag off
// the front line.
func RandomFormation(rng *rand.Rand) Formation {
	var f Formation
	copy(f[:], Army[:])
	for {
		rng.Shuffle(len(f), func(i, j int) { f[i], f[j] = f[j], f[i] })
		if slices.Index(f[:Columns], Flag) < 0 {
			return f
		}
	}
}

// NewBoard places both formations. Blue occupies rows 0 to 2 with its front
// line on row 2, Red occupies rows 5 to 7 with its front line on row 5. Blue
// moves first.
func NewBoard(blue, red Formation) (Board, error) {
	if err := blue.Validate(); err != nil {
		return Board{}, errors.Wrap(err, "blue")
	}
	if err := red.Validate(); err != nil {
		return Board{}, errors.Wrap(err, "red")
	}
	b := Board{ToMove: Blue}
	for i := 0; i < FormationSize; i++ {
		line, pos := i/Columns, i%Columns
		// Blue faces the opposite way, so its left is the board's right.
		b.Grid[2-line][Columns-1-pos] = blue[i].For(Blue)
		b.Grid[Rows-3+line][pos] = red[i].For(Red)
	}
	return b, nil
}
