package game

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

const (
	blueFormation = "1 15 15 2 2 2 2 0 2 3 4 5 6 7 8 9 10 11 0 13 14 0 0 12 2 0 0"
	redFormation  = "1 15 0 2 2 2 2 2 2 3 4 5 6 7 0 9 10 11 12 13 14 0 0 8 15 0 0"
)

func TestParseFormation(t *testing.T) {
	t.Run("reading a full army", func(t *testing.T) {
		f, err := ParseFormation(blueFormation)
		require.NoError(t, err)
		require.Equal(t, Flag, f[0])
		require.Equal(t, blueFormation, f.String())
	})

	t.Run("rejecting incomplete armies", func(t *testing.T) {
		_, err := ParseFormation("1 2 3")
		require.True(t, errors.Is(err, ErrInvalidFormation))
	})

	t.Run("rejecting out of range ranks", func(t *testing.T) {
		_, err := ParseFormation("1 16")
		require.True(t, errors.Is(err, ErrInvalidFormation))
	})
}

func TestRandomFormation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		f := RandomFormation(rng)
		require.NoError(t, f.Validate())
		require.NotContains(t, f[:Columns], Flag, "flag should not be in the front line")
	}
}

func TestNewBoard(t *testing.T) {
	blue, err := ParseFormation(blueFormation)
	require.NoError(t, err)
	red, err := ParseFormation(redFormation)
	require.NoError(t, err)

	b, err := NewBoard(blue, red)
	require.NoError(t, err)

	require.Equal(t, Blue, b.ToMove)
	require.Equal(t, ArmySize, b.Count(Blue))
	require.Equal(t, ArmySize, b.Count(Red))
	// front lines face each other
	require.Equal(t, Flag, b.Grid[2][Columns-1])
	require.Equal(t, Flag.For(Red), b.Grid[5][0])
	for col := 0; col < Columns; col++ {
		for _, row := range []int{3, 4} {
			require.Equal(t, Blank, b.Grid[row][col])
		}
	}
	require.False(t, b.IsTerminal())
	require.NotEmpty(t, b.LegalMoves())
}
