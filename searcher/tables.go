package searcher

import (
	"fmt"
	"hash/fnv"
	"io"
	"strings"
	"sync"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"generals/game"
)

// StrategyRecord is the latest strategy computed for an information set.
type StrategyRecord struct {
	Moves         []game.Move `yaml:"moves"`
	Probabilities []float64   `yaml:"probabilities"`
	Ply           int         `yaml:"ply"`
}

// Probability returns the weight of m, zero if m is not in the record.
func (r StrategyRecord) Probability(m game.Move) float64 {
	if i := slices.Index(r.Moves, m); i >= 0 {
		return r.Probabilities[i]
	}
	return 0
}

type Edge struct {
	Move  game.Move `yaml:"move"`
	Child string    `yaml:"child"`
}

// Tables collect what the solver learned per information set signature. They
// are safe for concurrent use and may be shared across training runs.
type Tables struct {
	sync.RWMutex
	strategies map[string]StrategyRecord
	utilities  map[string]float64
	edges      map[string][]Edge
}

type tablesFile struct {
	Strategies map[string]StrategyRecord `yaml:"strategies"`
	Utilities  map[string]float64        `yaml:"utilities"`
	Edges      map[string][]Edge         `yaml:"edges,omitempty"`
}

func NewTables() *Tables {
	return &Tables{
		strategies: make(map[string]StrategyRecord),
		utilities:  make(map[string]float64),
		edges:      make(map[string][]Edge),
	}
}

func (t *Tables) record(signature string, moves []game.Move, strategy []float64, ply int, utility float64) {
	t.Lock()
	defer t.Unlock()

	t.strategies[signature] = StrategyRecord{
		Moves:         slices.Clone(moves),
		Probabilities: slices.Clone(strategy),
		Ply:           ply,
	}
	t.utilities[signature] = utility
}

func (t *Tables) link(parent string, m game.Move, child string) {
	t.Lock()
	defer t.Unlock()

	for _, e := range t.edges[parent] {
		if e.Move == m && e.Child == child {
			return
		}
	}
	t.edges[parent] = append(t.edges[parent], Edge{Move: m, Child: child})
}

func (t *Tables) Strategy(signature string) (StrategyRecord, bool) {
	t.RLock()
	defer t.RUnlock()

	r, ok := t.strategies[signature]
	return r, ok
}

func (t *Tables) Utility(signature string) (float64, bool) {
	t.RLock()
	defer t.RUnlock()

	u, ok := t.utilities[signature]
	return u, ok
}

func (t *Tables) Len() int {
	t.RLock()
	defer t.RUnlock()

	return len(t.strategies)
}

// Save writes the tables as YAML.
func (t *Tables) Save(w io.Writer) error {
	t.RLock()
	defer t.RUnlock()

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	err := enc.Encode(tablesFile{
		Strategies: t.strategies,
		Utilities:  t.utilities,
		Edges:      t.edges,
	})
	return errors.Wrap(err, "failed to encode tables")
}

// LoadTables reads tables written by Save.
func LoadTables(r io.Reader) (*Tables, error) {
	var f tablesFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(err, "failed to decode tables")
	}
	t := NewTables()
	for k, v := range f.Strategies {
		if len(v.Moves) != len(v.Probabilities) {
			return nil, errors.Errorf("strategy %q has %d moves and %d probabilities", k, len(v.Moves), len(v.Probabilities))
		}
		t.strategies[k] = v
	}
	for k, v := range f.Utilities {
		t.utilities[k] = v
	}
	for k, v := range f.Edges {
		t.edges[k] = v
	}
	return t, nil
}

// ToDot renders the explored information sets as a Graphviz digraph. Nodes
// show the ply and utility of a set, edges the move and its probability.
func (t *Tables) ToDot() string {
	t.RLock()
	defer t.RUnlock()

	g := gographviz.NewGraph()
	if err := g.SetName("G"); err != nil {
		panic(err)
	}
	g.SetDir(true)

	signatures := sortedKeys(t.strategies)
	for _, sig := range signatures {
		r := t.strategies[sig]
		label := fmt.Sprintf("\"ply %d\\nu=%.3f\"", r.Ply, t.utilities[sig])
		g.AddNode("G", nodeID(sig), map[string]string{
			"shape": "box",
			"label": label,
		})
	}

	parents := sortedKeys(t.edges)
	for _, parent := range parents {
		r, ok := t.strategies[parent]
		if !ok {
			continue
		}
		for _, e := range t.edges[parent] {
			if _, ok := t.strategies[e.Child]; !ok {
				continue
			}
			g.AddEdge(nodeID(parent), nodeID(e.Child), true, map[string]string{
				"label": fmt.Sprintf("\"%v %.2f\"", e.Move, r.Probability(e.Move)),
			})
		}
	}
	return g.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func nodeID(signature string) string {
	h := fnv.New64a()
	h.Write([]byte(signature))
	return fmt.Sprintf("n%x", h.Sum64())
}

// Summary lists the recorded strategies of the given ply, one per line.
func (t *Tables) Summary(ply int) string {
	t.RLock()
	defer t.RUnlock()

	var sb strings.Builder
	signatures := sortedKeys(t.strategies)
	for _, sig := range signatures {
		r := t.strategies[sig]
		if r.Ply != ply {
			continue
		}
		fmt.Fprintf(&sb, "%s u=%.3f", nodeID(sig), t.utilities[sig])
		for i, m := range r.Moves {
			fmt.Fprintf(&sb, " %v:%.2f", m, r.Probabilities[i])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
