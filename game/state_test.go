package game

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func boardFrom(grid [Rows][Columns]Rank, toMove Player) Board {
	return Board{Grid: grid, ToMove: toMove}
}

var sampleGrid = [Rows][Columns]Rank{
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 1, 0, 0, 2, 0, 0},
	{0, 0, 15, 0, 0, 9, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 23, 0, 29, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0, 16, 0, 0, 0},
	{0, 0, 0, 0, 0, 0, 0, 0, 0},
}

func TestLegalMoves(t *testing.T) {
	t.Run("enumerating moves for each side", func(t *testing.T) {
		require.Len(t, boardFrom(sampleGrid, Blue).LegalMoves(), 16)
		require.Len(t, boardFrom(sampleGrid, Red).LegalMoves(), 12)
	})

	t.Run("skipping allied squares and board edges", func(t *testing.T) {
		grid := [Rows][Columns]Rank{}
		grid[0][0] = Private
		grid[0][1] = Flag
		grid[1][0] = Private.For(Red)
		grid[7][8] = Flag.For(Red)
		b := boardFrom(grid, Blue)

		moves := b.LegalMoves()

		require.ElementsMatch(t, []Move{
			NewMove(0, 0, 1, 0), // capture
			NewMove(0, 1, 1, 1),
			NewMove(0, 1, 0, 2),
		}, moves)
	})

	t.Run("never targeting allies or leaving the grid", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		b, err := NewBoard(RandomFormation(rng), RandomFormation(rng))
		require.NoError(t, err)

		for i := 0; i < 40 && !b.IsTerminal(); i++ {
			moves := b.LegalMoves()
			require.NotEmpty(t, moves)
			for _, m := range moves {
				require.True(t, m.To.InBounds(), "move %v leaves the board", m)
				require.NotEqual(t, b.ToMove, b.At(m.To).Owner(), "move %v targets an ally", m)
			}
			b, _, err = b.Transition(moves[rng.Intn(len(moves))])
			require.NoError(t, err)
		}
	})
}

func TestTransition(t *testing.T) {
	t.Run("relocating into an empty square", func(t *testing.T) {
		b := boardFrom(sampleGrid, Blue)

		next, outcome, err := b.Transition(NewMove(2, 5, 3, 5))

		require.NoError(t, err)
		require.Equal(t, Occupy, outcome)
		require.Equal(t, Colonel, next.Grid[3][5])
		require.Equal(t, Blank, next.Grid[2][5])
		require.Equal(t, Red, next.ToMove)
		require.Equal(t, 1, next.Ply)
	})

	t.Run("leaving the input board untouched", func(t *testing.T) {
		b := boardFrom(sampleGrid, Blue)
		before := b

		first, _, err := b.Transition(NewMove(2, 5, 3, 5))
		require.NoError(t, err)
		second, _, err := b.Transition(NewMove(2, 5, 3, 5))
		require.NoError(t, err)

		require.Empty(t, cmp.Diff(before, b), "input board changed")
		require.Empty(t, cmp.Diff(first, second), "transition is not deterministic")
	})

	t.Run("capturing a flag ends the game", func(t *testing.T) {
		grid := sampleGrid
		grid[3][2] = Flag.For(Red)
		grid[6][5] = Blank

		next, outcome, err := boardFrom(grid, Blue).Transition(NewMove(2, 2, 3, 2))
		require.NoError(t, err)
		require.Equal(t, Win, outcome)
		require.True(t, next.IsTerminal())

		next, outcome, err = boardFrom(grid, Red).Transition(NewMove(3, 2, 2, 2))
		require.NoError(t, err)
		require.Equal(t, Loss, outcome)
		require.True(t, next.IsTerminal())
	})

	t.Run("rejecting illegal moves", func(t *testing.T) {
		b := boardFrom(sampleGrid, Blue)
		tests := map[string]Move{
			"empty source":  NewMove(0, 0, 1, 0),
			"enemy source":  NewMove(4, 3, 5, 3),
			"allied target": NewMove(1, 6, 1, 5),
			"diagonal step": NewMove(1, 3, 2, 4),
			"leaving board": NewMove(0, 0, -1, 0),
			"two-step jump": NewMove(2, 2, 4, 2),
		}
		b.Grid[1][5] = Sergeant
		for name, m := range tests {
			_, _, err := b.Transition(m)
			require.Truef(t, errors.Is(err, ErrIllegalMove), "%s: got %v", name, err)
		}
	})
}

func TestCombat(t *testing.T) {
	clash := func(challenger, defender Rank, mover Player) (Board, Outcome) {
		var grid [Rows][Columns]Rank
		grid[3][3] = challenger.For(mover)
		grid[4][3] = defender.For(mover.Opponent())
		// keep both flags alive unless they fight
		if challenger != Flag && defender != Flag {
			grid[0][8] = Flag.For(Blue)
			grid[7][0] = Flag.For(Red)
		}
		next, outcome, err := boardFrom(grid, mover).Transition(NewMove(3, 3, 4, 3))
		require.NoError(t, err)
		return next, outcome
	}

	t.Run("private attacking spy wins", func(t *testing.T) {
		next, outcome := clash(Private, Spy, Blue)
		require.Equal(t, Win, outcome)
		require.Equal(t, Private, next.Grid[4][3])
		require.Equal(t, Blank, next.Grid[3][3])
	})

	t.Run("spy attacking private loses", func(t *testing.T) {
		next, outcome := clash(Spy, Private, Red)
		require.Equal(t, Loss, outcome)
		require.Equal(t, Blank, next.Grid[3][3])
		require.Equal(t, Private.For(Blue), next.Grid[4][3])
	})

	t.Run("spy defeats generals", func(t *testing.T) {
		_, outcome := clash(Spy, GeneralOfTheArmy, Blue)
		require.Equal(t, Win, outcome)
	})

	t.Run("equal ranks trade", func(t *testing.T) {
		next, outcome := clash(Major, Major, Blue)
		require.Equal(t, Draw, outcome)
		require.Equal(t, Blank, next.Grid[3][3])
		require.Equal(t, Blank, next.Grid[4][3])
	})

	t.Run("higher rank wins", func(t *testing.T) {
		_, outcome := clash(Colonel, Captain, Red)
		require.Equal(t, Win, outcome)
		_, outcome = clash(Captain, Colonel, Red)
		require.Equal(t, Loss, outcome)
	})

	t.Run("moving flag captures the standing flag", func(t *testing.T) {
		next, outcome := clash(Flag, Flag, Blue)
		require.Equal(t, Win, outcome)
		require.Equal(t, Flag, next.Grid[4][3])
		require.True(t, next.IsTerminal())
		reward, ok := next.Reward()
		require.True(t, ok)
		require.Equal(t, 1.0, reward)
	})
}

func TestTerminal(t *testing.T) {
	t.Run("red private captures the blue flag", func(t *testing.T) {
		var grid [Rows][Columns]Rank
		grid[7][3] = Flag
		grid[6][3] = Private.For(Red)
		grid[7][8] = Flag.For(Red)

		next, outcome, err := boardFrom(grid, Red).Transition(NewMove(6, 3, 7, 3))

		require.NoError(t, err)
		require.Equal(t, Win, outcome)
		require.True(t, next.IsTerminal())
		reward, ok := next.Reward()
		require.True(t, ok)
		require.Equal(t, -1.0, reward)
	})

	t.Run("uncontested arrival on the back row", func(t *testing.T) {
		var grid [Rows][Columns]Rank
		grid[6][3] = Flag
		grid[7][6] = Flag.For(Red)
		grid[4][2] = Sergeant.For(Red)

		next, _, err := boardFrom(grid, Blue).Transition(NewMove(6, 3, 7, 3))

		require.NoError(t, err)
		require.True(t, next.IsTerminal())
		require.True(t, next.BlueFlagWaiting)
		reward, ok := next.Reward()
		require.True(t, ok)
		require.Equal(t, 1.0, reward)
	})

	t.Run("contested arrival waits one turn", func(t *testing.T) {
		var grid [Rows][Columns]Rank
		grid[6][3] = Flag
		grid[7][4] = Sergeant.For(Red)
		grid[7][8] = Flag.For(Red)
		grid[0][0] = Private

		arrived, _, err := boardFrom(grid, Blue).Transition(NewMove(6, 3, 7, 3))
		require.NoError(t, err)
		require.False(t, arrived.IsTerminal())
		require.False(t, arrived.BlueFlagWaiting)
		_, ok := arrived.Reward()
		require.False(t, ok, "reward must be undefined before the end")

		survived, _, err := arrived.Transition(NewMove(7, 8, 6, 8))
		require.NoError(t, err)
		require.True(t, survived.BlueFlagWaiting)
		require.True(t, survived.IsTerminal())
		require.Equal(t, Blue, survived.Winner())
	})

	t.Run("edge column checks only its inner neighbour", func(t *testing.T) {
		var grid [Rows][Columns]Rank
		grid[0][0] = Flag.For(Red)
		grid[0][2] = Private // not adjacent
		grid[5][5] = Flag
		b := boardFrom(grid, Blue)
		require.True(t, b.IsTerminal())
		require.Equal(t, Red, b.Winner())

		b.Grid[0][1] = Private
		require.False(t, b.IsTerminal())
	})

	t.Run("waiting bits never reset", func(t *testing.T) {
		rng := rand.New(rand.NewSource(11))
		b, err := NewBoard(RandomFormation(rng), RandomFormation(rng))
		require.NoError(t, err)
		blue, red := false, false
		for i := 0; i < 200 && !b.IsTerminal(); i++ {
			moves := b.LegalMoves()
			b, _, err = b.Transition(moves[rng.Intn(len(moves))])
			require.NoError(t, err)
			require.False(t, blue && !b.BlueFlagWaiting)
			require.False(t, red && !b.RedFlagWaiting)
			blue, red = b.BlueFlagWaiting, b.RedFlagWaiting
		}
	})

	t.Run("terminal boards carry a decisive reward", func(t *testing.T) {
		rng := rand.New(rand.NewSource(3))
		for game := 0; game < 5; game++ {
			b, err := NewBoard(RandomFormation(rng), RandomFormation(rng))
			require.NoError(t, err)
			for i := 0; i < 20000 && !b.IsTerminal(); i++ {
				moves := b.LegalMoves()
				b, _, err = b.Transition(moves[rng.Intn(len(moves))])
				require.NoError(t, err)
			}
			if !b.IsTerminal() {
				continue
			}
			reward, ok := b.Reward()
			require.True(t, ok)
			require.Contains(t, []float64{-1, 1}, reward)
			require.Equal(t, b.Winner().Sign(), reward)
		}
	})
}

func TestHash(t *testing.T) {
	b := boardFrom(sampleGrid, Blue)
	require.Equal(t, b.Hash(), boardFrom(sampleGrid, Blue).Hash())
	require.NotEqual(t, b.Hash(), boardFrom(sampleGrid, Red).Hash())
}
