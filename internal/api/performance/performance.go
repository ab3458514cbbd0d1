// Package performance tracks query latency and picks a model for generated
// responses. A Manager is built once by the container and passed to the
// services that need it.
package performance

import (
	"math"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/FACorreiaa/go-tourism-agent/internal/types"
)

// Monitor accumulates per-process query statistics. Safe for concurrent use.
type Monitor struct {
	mu          sync.Mutex
	queryCount  int64
	totalTime   time.Duration
	cacheHits   int64
	cacheMisses int64
	errorCount  int64
	modelUsage  map[string]int64
}

func NewMonitor() *Monitor {
	return &Monitor{modelUsage: make(map[string]int64)}
}

// RecordQuery logs one answered query. model is "deterministic" for answers
// that never reached a language model.
func (m *Monitor) RecordQuery(d time.Duration, model string, cached bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCount++
	m.totalTime += d
	if cached {
		m.cacheHits++
	} else {
		m.cacheMisses++
	}
	m.modelUsage[model]++
}

func (m *Monitor) RecordError() {
	m.mu.Lock()
	m.errorCount++
	m.mu.Unlock()
}

func (m *Monitor) Stats() types.PerformanceStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	usage := make(map[string]int64, len(m.modelUsage))
	for k, v := range m.modelUsage {
		usage[k] = v
	}
	stats := types.PerformanceStats{
		QueryCount:  m.queryCount,
		CacheHits:   m.cacheHits,
		CacheMisses: m.cacheMisses,
		ErrorCount:  m.errorCount,
		ModelUsage:  usage,
	}
	if m.queryCount > 0 {
		stats.AverageSeconds = m.totalTime.Seconds() / float64(m.queryCount)
	}
	if total := m.cacheHits + m.cacheMisses; total > 0 {
		stats.CacheHitRate = round3(float64(m.cacheHits) / float64(total))
	}
	stats.ErrorRate = round3(float64(m.errorCount) / float64(max(1, m.queryCount)))
	return stats
}

func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCount, m.cacheHits, m.cacheMisses, m.errorCount = 0, 0, 0, 0
	m.totalTime = 0
	m.modelUsage = make(map[string]int64)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

// Complexity is a rough size class of a query.
type Complexity int

const (
	ComplexitySimple Complexity = iota
	ComplexityMedium
	ComplexityComplex
)

func (c Complexity) String() string {
	switch c {
	case ComplexitySimple:
		return "simple"
	case ComplexityMedium:
		return "medium"
	default:
		return "complex"
	}
}

// EstimateComplexity classifies by length: up to 50 runes is simple, over
// 100 is complex.
func EstimateComplexity(query string) Complexity {
	switch n := utf8.RuneCountInString(query); {
	case n > 100:
		return ComplexityComplex
	case n > 50:
		return ComplexityMedium
	default:
		return ComplexitySimple
	}
}

// Priority says what the selector optimises for.
type Priority string

const (
	PriorityBalanced Priority = "balanced"
	PrioritySpeed    Priority = "speed"
	PriorityQuality  Priority = "quality"
)

// ModelProfile scores a model between 0 and 1 on speed and quality.
type ModelProfile struct {
	Speed   float64
	Quality float64
}

// DefaultProfiles covers the local models the assistant is usually run with.
func DefaultProfiles() map[string]ModelProfile {
	return map[string]ModelProfile{
		"qwen2.5:0.5b": {Speed: 0.9, Quality: 0.6},
		"phi3:mini":    {Speed: 0.7, Quality: 0.8},
		"llama3.1:8b":  {Speed: 0.4, Quality: 0.95},
	}
}

const FallbackModel = "qwen2.5:0.5b"

type ModelSelector struct {
	profiles  map[string]ModelProfile
	available []string
	priority  Priority
}

func NewModelSelector(available []string, priority Priority) *ModelSelector {
	if priority == "" {
		priority = PriorityBalanced
	}
	return &ModelSelector{profiles: DefaultProfiles(), available: available, priority: priority}
}

// Select scores every available model with a known profile and returns the
// best one. Ties keep the earlier model in the available list. Simple queries
// favour fast models, complex ones favour high quality models.
func (s *ModelSelector) Select(c Complexity) string {
	if len(s.available) == 0 {
		return FallbackModel
	}

	best, bestScore := "", math.Inf(-1)
	for _, name := range s.available {
		p, ok := s.profiles[name]
		if !ok {
			continue
		}
		var score float64
		switch s.priority {
		case PrioritySpeed:
			score = p.Speed
		case PriorityQuality:
			score = p.Quality
		default:
			score = (p.Speed + p.Quality) / 2
		}
		if c == ComplexitySimple && p.Speed > 0.7 {
			score += 0.1
		}
		if c == ComplexityComplex && p.Quality > 0.8 {
			score += 0.1
		}
		if score > bestScore {
			best, bestScore = name, score
		}
	}
	if best == "" {
		return s.available[0]
	}
	return best
}

// Manager bundles the selector and monitor.
type Manager struct {
	Monitor  *Monitor
	Selector *ModelSelector
}

func NewManager(selector *ModelSelector, monitor *Monitor) *Manager {
	if monitor == nil {
		monitor = NewMonitor()
	}
	if selector == nil {
		selector = NewModelSelector(nil, PriorityBalanced)
	}
	return &Manager{Monitor: monitor, Selector: selector}
}

// RecommendModel picks a model for generating the answer to query.
func (m *Manager) RecommendModel(query string) string {
	return m.Selector.Select(EstimateComplexity(query))
}

func (m *Manager) Stats() types.PerformanceStats {
	return m.Monitor.Stats()
}

// Reset clears the monitor.
func (m *Manager) Reset() {
	m.Monitor.Reset()
}
