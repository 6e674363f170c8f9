package engine

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/wesleyorama2/thunderbench/internal/config"
)

// Picker chooses the index of the next test to issue.
type Picker interface {
	Next() int
}

// NewPicker returns the picker for an execution mode. Parallel groups get
// a weighted random picker drawing from src; serial groups get a smooth
// weighted round-robin that is safe to share between virtual users.
// Tests with weight 0 are never picked.
func NewPicker(mode string, weights []float64, src rand.Source) Picker {
	if mode == config.ModeSerial {
		return newRoundRobinPicker(weights)
	}
	return newRandomPicker(weights, src)
}

// randomPicker draws indices with probability proportional to weight.
// It is not safe for concurrent use; each virtual user owns one.
type randomPicker struct {
	cumulative []float64
	total      float64
	rng        *rand.Rand
}

func newRandomPicker(weights []float64, src rand.Source) *randomPicker {
	cumulative := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		if w > 0 {
			total += w
		}
		cumulative[i] = total
	}
	return &randomPicker{cumulative: cumulative, total: total, rng: rand.New(src)}
}

func (p *randomPicker) Next() int {
	r := p.rng.Float64() * p.total
	i := sort.Search(len(p.cumulative), func(i int) bool { return p.cumulative[i] > r })
	if i == len(p.cumulative) {
		// Only reachable through float rounding at the upper edge
		i = p.last()
	}
	return i
}

func (p *randomPicker) last() int {
	for i := len(p.cumulative) - 1; i > 0; i-- {
		if p.cumulative[i] > p.cumulative[i-1] {
			return i
		}
	}
	return 0
}

// roundRobinPicker implements smooth weighted round-robin: each step adds
// every weight to its running score, picks the highest score and subtracts
// the total from it. Over total/gcd steps each test is chosen in exact
// proportion to its weight, interleaved rather than in bursts.
type roundRobinPicker struct {
	mu      sync.Mutex
	weights []float64
	current []float64
	total   float64
}

func newRoundRobinPicker(weights []float64) *roundRobinPicker {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	return &roundRobinPicker{
		weights: weights,
		current: make([]float64, len(weights)),
		total:   total,
	}
}

func (p *roundRobinPicker) Next() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	best := -1
	for i, w := range p.weights {
		if w <= 0 {
			continue
		}
		p.current[i] += w
		if best == -1 || p.current[i] > p.current[best] {
			best = i
		}
	}
	if best == -1 {
		return 0
	}
	p.current[best] -= p.total
	return best
}
