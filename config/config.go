package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
	"gopkg.in/yaml.v3"

	"generals/game"
	"generals/infostate"
)

// Agent kinds understood by the experiment runner.
const (
	AgentSampling = "cfr-sampling"
	AgentGreedy   = "cfr-greedy"
	AgentRandom   = "random"
)

type Solver struct {
	Iterations int           `yaml:"iterations"`
	MaxDepth   int           `yaml:"max_depth"` // caps the branching based depth, 0 for no cap
	Sampling   bool          `yaml:"sampling"`
	Goroutines int           `yaml:"goroutines"`
	Duration   time.Duration `yaml:"duration"`
}

type Estimator struct {
	Samples int  `yaml:"samples"`
	Retries int  `yaml:"retries"`
	Refresh bool `yaml:"refresh"` // re-estimate beliefs after every clash
}

type Game struct {
	MaxMoves      int    `yaml:"max_moves"`
	BlueFormation string `yaml:"blue_formation"` // random when empty
	RedFormation  string `yaml:"red_formation"`
}

type Experiment struct {
	Name      string `yaml:"name"`
	Games     int    `yaml:"games"`
	OutputDir string `yaml:"output_dir"`
	Blue      string `yaml:"blue"`
	Red       string `yaml:"red"`
	Tables    string `yaml:"tables"` // optional YAML file the solver tables are saved to
	Graph     string `yaml:"graph"`  // optional Graphviz file of the explored information sets
}

type Config struct {
	Seed       uint64     `yaml:"seed"`
	LogLevel   string     `yaml:"log_level"`
	Solver     Solver     `yaml:"solver"`
	Estimator  Estimator  `yaml:"estimator"`
	Game       Game       `yaml:"game"`
	Experiment Experiment `yaml:"experiment"`
}

func Default() Config {
	return Config{
		Seed:     1,
		LogLevel: "info",
		Solver: Solver{
			Iterations: 50,
			Sampling:   true,
			Goroutines: 4,
		},
		Estimator: Estimator{
			Samples: infostate.DefaultSamples,
			Retries: 50, // narrow evidence late in a game rejects most samples
		},
		Game: Game{
			MaxMoves: 500,
		},
		Experiment: Experiment{
			Name:      "cfr_vs_random",
			Games:     10,
			OutputDir: "experiments",
			Blue:      AgentSampling,
			Red:       AgentRandom,
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config %s", path)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Solver.Iterations <= 0 && c.Solver.Duration <= 0:
		return errors.New("solver needs positive iterations or duration")
	case c.Solver.MaxDepth < 0:
		return errors.Errorf("negative solver max depth %d", c.Solver.MaxDepth)
	case c.Solver.Goroutines <= 0:
		return errors.Errorf("solver goroutines must be positive, got %d", c.Solver.Goroutines)
	case c.Estimator.Samples <= 0 || c.Estimator.Retries <= 0:
		return errors.Errorf("estimator samples and retries must be positive, got %d and %d", c.Estimator.Samples, c.Estimator.Retries)
	case c.Game.MaxMoves <= 0:
		return errors.Errorf("max moves must be positive, got %d", c.Game.MaxMoves)
	case c.Experiment.Games <= 0:
		return errors.Errorf("games must be positive, got %d", c.Experiment.Games)
	}
	for _, kind := range []string{c.Experiment.Blue, c.Experiment.Red} {
		switch kind {
		case AgentSampling, AgentGreedy, AgentRandom:
		default:
			return errors.Errorf("unknown agent %q", kind)
		}
	}
	for _, f := range []string{c.Game.BlueFormation, c.Game.RedFormation} {
		if f == "" {
			continue
		}
		if _, err := game.ParseFormation(f); err != nil {
			return err
		}
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(err, "log level %q", c.LogLevel)
	}
	return nil
}

// Level is the configured zerolog level.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// Formations returns the configured formations, sampling the missing ones.
func (c Config) Formations(rng *rand.Rand) (blue, red game.Formation, err error) {
	blue, err = formation(c.Game.BlueFormation, rng)
	if err != nil {
		return blue, red, errors.Wrap(err, "blue")
	}
	red, err = formation(c.Game.RedFormation, rng)
	return blue, red, errors.Wrap(err, "red")
}

func formation(s string, rng *rand.Rand) (game.Formation, error) {
	if s == "" {
		return game.RandomFormation(rng), nil
	}
	return game.ParseFormation(s)
}

// NewRand returns a seeded source. Seed 0 maps to 1 so a zero config is
// still deterministic.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	return rand.New(rand.NewSource(seed))
}
