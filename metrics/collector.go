package metrics

import (
	"sync/atomic"
	"time"
)

type SearchMetric struct {
	Goroutines int
	MaxDepth   int
	Sampling   bool
	Duration   time.Duration
	Iterations int
	Nodes      int // information sets expanded
	Cutoffs    int // leaves evaluated at the depth bound
	Terminals  int // leaves that ended the game
}

type MoveMetric struct {
	Step   int
	Player string
	Move   string
	Depth  int
	SearchMetric
}

type GameMetric struct {
	Winner     string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalMoves int
	Captures   int
}

type Collector interface {
	Start(goroutines, maxDepth int, sampling bool)
	AddIteration()
	AddNode()
	AddCutoff()
	AddTerminal()
	Complete() SearchMetric
}

type collector struct {
	goroutines int
	maxDepth   int
	sampling   bool
	startTime  time.Time
	iterations atomic.Int64
	nodes      atomic.Int64
	cutoffs    atomic.Int64
	terminals  atomic.Int64
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(goroutines, maxDepth int, sampling bool) {
	m.startTime = time.Now()
	m.goroutines = goroutines
	m.maxDepth = maxDepth
	m.sampling = sampling
	m.iterations.Store(0)
	m.nodes.Store(0)
	m.cutoffs.Store(0)
	m.terminals.Store(0)
}

func (m *collector) AddIteration() {
	m.iterations.Add(1)
}

func (m *collector) AddNode() {
	m.nodes.Add(1)
}

func (m *collector) AddCutoff() {
	m.cutoffs.Add(1)
}

func (m *collector) AddTerminal() {
	m.terminals.Add(1)
}

func (m *collector) Complete() SearchMetric {
	return SearchMetric{
		Goroutines: m.goroutines,
		MaxDepth:   m.maxDepth,
		Sampling:   m.sampling,
		Duration:   time.Since(m.startTime),
		Iterations: int(m.iterations.Load()),
		Nodes:      int(m.nodes.Load()),
		Cutoffs:    int(m.cutoffs.Load()),
		Terminals:  int(m.terminals.Load()),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(goroutines, maxDepth int, sampling bool) {}
func (m *dummyCollector) AddIteration()                                 {}
func (m *dummyCollector) AddNode()                                      {}
func (m *dummyCollector) AddCutoff()                                    {}
func (m *dummyCollector) AddTerminal()                                  {}
func (m *dummyCollector) Complete() SearchMetric                        { return SearchMetric{} }
