package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"generals/infostate"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("overlaying a file on the defaults", func(t *testing.T) {
		path := writeConfig(t, `
seed: 7
log_level: debug
solver:
  iterations: 20
  duration: 250ms
experiment:
  games: 3
  red: cfr-greedy
`)

		cfg, err := Load(path)

		require.NoError(t, err)
		want := Default()
		want.Seed = 7
		want.LogLevel = "debug"
		want.Solver.Iterations = 20
		want.Solver.Duration = 250 * time.Millisecond
		want.Experiment.Games = 3
		want.Experiment.Red = AgentGreedy
		require.Empty(t, cmp.Diff(want, cfg))
		require.Equal(t, zerolog.DebugLevel, cfg.Level())
	})

	t.Run("giving the estimator room for narrow evidence", func(t *testing.T) {
		cfg := Default()

		require.NoError(t, cfg.Validate())
		require.Equal(t, infostate.DefaultSamples, cfg.Estimator.Samples)
		require.Greater(t, cfg.Estimator.Retries, infostate.DefaultRetries)
	})

	t.Run("rejecting invalid values", func(t *testing.T) {
		for name, body := range map[string]string{
			"no budget":     "solver: {iterations: 0}",
			"bad agent":     "experiment: {blue: minimax}",
			"bad formation": "game: {blue_formation: \"1 2 3\"}",
			"bad level":     "log_level: loud",
			"no games":      "experiment: {games: 0}",
		} {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err, name)
		}
	})

	t.Run("reporting missing files", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})
}

func TestFormations(t *testing.T) {
	cfg := Default()
	cfg.Game.BlueFormation = "1 15 15 2 2 2 2 0 2 3 4 5 6 7 8 9 10 11 0 13 14 0 0 12 2 0 0"

	blue, red, err := cfg.Formations(NewRand(0))

	require.NoError(t, err)
	require.Equal(t, cfg.Game.BlueFormation, blue.String())
	require.NoError(t, red.Validate())
}

func TestNewRand(t *testing.T) {
	require.Equal(t, NewRand(0).Uint64(), NewRand(1).Uint64())
	require.NotEqual(t, NewRand(1).Uint64(), NewRand(2).Uint64())
}
