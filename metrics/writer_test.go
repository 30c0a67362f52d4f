package metrics

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriter(t *testing.T) {
	w, err := NewWriter(t.TempDir(), "test")
	require.NoError(t, err)

	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, w.WriteGameRecords([]GameRecord{{
		ID:        1,
		BlueAgent: "cfr",
		RedAgent:  "random",
		GameMetric: GameMetric{
			Winner:     "Blue",
			StartTime:  start,
			EndTime:    start.Add(time.Second),
			Duration:   time.Second,
			TotalMoves: 42,
			Captures:   7,
		},
	}}))
	require.NoError(t, w.WriteMoveRecords([]MoveRecord{{
		Game: 1,
		MoveMetric: MoveMetric{
			Step:         1,
			Player:       "Blue",
			Move:         "2535",
			Depth:        2,
			SearchMetric: SearchMetric{Iterations: 10, Nodes: 30},
		},
	}}))

	games := readCSV(t, filepath.Join(w.Dir(), "game_records.csv"))
	require.Len(t, games, 2)
	require.Equal(t, []string{"1", "cfr", "random", "Blue", "2024-01-02T03:04:05Z", "2024-01-02T03:04:06Z", "1s", "42", "7"}, games[1])

	moves := readCSV(t, filepath.Join(w.Dir(), "move_records.csv"))
	require.Len(t, moves, 2)
	require.Equal(t, "2535", moves[1][3])
	require.Equal(t, "10", moves[1][6])
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	c.Start(4, 2, true)
	c.AddIteration()
	c.AddNode()
	c.AddNode()
	c.AddCutoff()
	c.AddTerminal()

	metric := c.Complete()

	require.Equal(t, 4, metric.Goroutines)
	require.Equal(t, 2, metric.MaxDepth)
	require.True(t, metric.Sampling)
	require.Equal(t, 1, metric.Iterations)
	require.Equal(t, 2, metric.Nodes)
	require.Equal(t, 1, metric.Cutoffs)
	require.Equal(t, 1, metric.Terminals)
	require.Equal(t, SearchMetric{}, NewDummyCollector().Complete())
}

func readCSV(t *testing.T, path string) [][]string {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}
