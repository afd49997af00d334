package splay

import "github.com/go-numdb/numdb"

// Strategy governs how a splay tree node participates in rotation: every
// pass-through during a search calls Visited, every exact match calls
// Accessed, and every rotation first asks the parent's strategy whether
// promoting the child is worth it at all — splaying is always "abortable":
// a strategy can decline and leave the rest of the path untouched
// (ported from splay_tree_strategy.h and splay_tree_base.h's splay()).
type Strategy interface {
	Visited()
	Accessed()
	ShouldSplay(child Strategy) bool
}

// Canonical always splays on a hit: the textbook, state-free discipline.
type Canonical struct{}

func NewCanonical(uint64) Strategy { return Canonical{} }

func (Canonical) Visited()                  {}
func (Canonical) Accessed()                 {}
func (Canonical) ShouldSplay(Strategy) bool { return true }

// AccessCount only promotes a child past its parent once the child has been
// accessed strictly more often, turning repeated splays into a rough
// frequency ordering (splay_tree_strategy.h's AccessCountSplayStrategy).
type AccessCount struct {
	accesses uint32
}

func NewAccessCount(uint64) Strategy { return &AccessCount{} }

func (s *AccessCount) Visited() {}

func (s *AccessCount) Accessed() {
	if s.accesses < ^uint32(0) {
		s.accesses++
	}
}

func (s *AccessCount) ShouldSplay(child Strategy) bool {
	other, ok := child.(*AccessCount)
	if !ok {
		return true
	}
	return s.accesses < other.accesses
}

// ParametrizedAccessCountConfig parameterizes ParametrizedAccessCount:
// Boost is added on Accessed, Degradation subtracted (saturating at 0) on
// Visited, Max caps the score, Initial seeds freshly inserted nodes
// (splay_tree_strategy.h's ParametrizedAccessCountSplayStrategy).
type ParametrizedAccessCountConfig struct {
	Boost       uint32
	Degradation uint32
	Max         uint32
	Initial     uint32
}

type ParametrizedAccessCount struct {
	cfg   ParametrizedAccessCountConfig
	score uint32
}

// NewParametrizedAccessCountFactory returns a strategy constructor bound to
// cfg; Tree constructors take a `func(uint64) Strategy`, so the priority
// argument is accepted but unused here — the config supplies the initial
// score instead.
func NewParametrizedAccessCountFactory(cfg ParametrizedAccessCountConfig) func(uint64) Strategy {
	return func(uint64) Strategy {
		return &ParametrizedAccessCount{cfg: cfg, score: cfg.Initial}
	}
}

func (s *ParametrizedAccessCount) Visited() {
	if s.score > s.cfg.Degradation {
		s.score -= s.cfg.Degradation
	} else {
		s.score = 0
	}
}

func (s *ParametrizedAccessCount) Accessed() {
	s.score += s.cfg.Boost
	if s.score > s.cfg.Max {
		s.score = s.cfg.Max
	}
}

func (s *ParametrizedAccessCount) ShouldSplay(child Strategy) bool {
	other, ok := child.(*ParametrizedAccessCount)
	if !ok {
		return true
	}
	return s.score < other.score
}

// DecayingPriority drives ShouldSplay from the shared two-field Priority
// score the heap-backed containers use (spec.md's decaying-priority model),
// rather than a bespoke splay-only counter, giving the splay tree a
// consistency-minded eviction-pressure signal identical in spirit to
// Priority.Access/Visit.
type DecayingPriority struct {
	priority        numdb.Priority
	degradationRate uint32
}

// NewDecayingPriorityFactory returns a strategy constructor that seeds each
// node's priority from the initial value the cache front end computed.
func NewDecayingPriorityFactory(degradationRate uint32) func(uint64) Strategy {
	return func(initial uint64) Strategy {
		p := numdb.NewPriority(clamp8(initial))
		p.Access()
		return &DecayingPriority{priority: p, degradationRate: degradationRate}
	}
}

func (s *DecayingPriority) Visited() {
	s.priority.Visit(s.degradationRate)
}

func (s *DecayingPriority) Accessed() {
	s.priority.Access()
}

func (s *DecayingPriority) ShouldSplay(child Strategy) bool {
	other, ok := child.(*DecayingPriority)
	if !ok {
		return true
	}
	return s.priority.Less(other.priority)
}

func clamp8(v uint64) uint8 {
	if v > 255 {
		return 255
	}
	return uint8(v)
}
