// Package engine exposes the admission engine's public surface: register
// patterns, normalize and admit input, inspect accumulated cost, and export
// the running configuration.
//
// Grounded on the teacher's top-level CATF type (Parse/Render/Canonicalize
// assembled behind one entry point); here EngineInstance plays that role
// for the admission pipeline instead of an attestation document.
package engine

import (
	"errors"
	"sync"

	"github.com/obinexus/obiengine/dfa"
	"github.com/obinexus/obiengine/governance"
	"github.com/obinexus/obiengine/ir"
	"github.com/obinexus/obiengine/obiconfig"
	"github.com/obinexus/obiengine/pattern"
	"github.com/obinexus/obiengine/rejection"
	"github.com/obinexus/obiengine/uscn"
)

// EngineInstance is the concurrency-safe admission engine described by the
// component design: one shared, read-mostly pattern registry guarded by a
// mutex during registration, and one Accumulator per admission (never
// shared across concurrent calls).
type EngineInstance struct {
	mu       sync.RWMutex
	cfg      obiconfig.Config
	registry *pattern.Registry
	metrics  governance.Recorder

	lastMu   sync.Mutex
	lastCost float64
}

// New builds an engine from cfg with the seven mandatory patterns already
// registered. A nil metrics.Recorder disables observability.
func New(cfg obiconfig.Config, metrics governance.Recorder) (*EngineInstance, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := pattern.NewRegistry()
	if err := pattern.RegisterMandatory(r, cfg.ZeroTrust); err != nil {
		return nil, err
	}
	return &EngineInstance{cfg: cfg, registry: r, metrics: metrics}, nil
}

// NewDefault builds an engine under the spec's default Zero-Trust posture
// (zt == true) or a lenient posture (zt == false) with no metrics.
func NewDefault(zt bool) (*EngineInstance, error) {
	cfg := obiconfig.Default()
	cfg.ZeroTrust = zt
	if !zt {
		cfg.MaxConsecutiveSkips = 1
	}
	return New(cfg, nil)
}

// Register adds a custom pattern to the engine's registry and returns its
// state id. Safe for concurrent use alongside Admit.
func (e *EngineInstance) Register(kind pattern.Kind, regex string, opts ...pattern.Option) (int, error) {
	if e == nil {
		return 0, rejection.New(rejection.ReasonInvalidInput, "engine: register on nil engine")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Register(kind, regex, opts...)
}

// Result is the outcome of one admission: the emitted IR stream, the final
// DFA state reached, and the accumulated governance cost.
type Result struct {
	Stream *ir.Stream
	State  dfa.StateID
	Cost   float64
	Warned bool
	Zone   governance.Zone
}

// Admit normalizes raw, then runs it through the DFA engine. Every
// admission decision is made against the canonical form, never raw: this
// is the engine's Zero-Trust guarantee, and it cannot be bypassed by
// calling Admit with already-normalized bytes, since Normalize is
// idempotent.
func (e *EngineInstance) Admit(raw []byte) (*Result, error) {
	if e == nil {
		return nil, rejection.New(rejection.ReasonInvalidInput, "engine: admit on nil engine")
	}
	if len(raw) == 0 {
		return nil, rejection.New(rejection.ReasonInvalidInput, "engine: empty input")
	}

	ncfg := uscn.Config{
		CaseFold:       e.cfg.CaseFold,
		WhitespaceFold: e.cfg.WhitespaceFold,
		StrictUTF8:     e.cfg.StrictUTF8,
	}
	buf, err := uscn.Normalize(raw, ncfg)
	if err != nil {
		return nil, rejection.Wrap(reasonForNormalizeErr(err), "engine: normalization failed", err)
	}

	acc := governance.New(e.metrics)
	// Hold the read lock for the whole scan: Run iterates the registry's
	// pattern slice, which a concurrent Register appends to.
	e.mu.RLock()
	de := dfa.NewEngine(e.registry, e.cfg.ZeroTrust, e.cfg.MaxConsecutiveSkips)
	stream, state, rerr := de.Run(buf.Bytes, acc)
	e.mu.RUnlock()
	if rerr != nil {
		return &Result{Stream: stream, State: state, Cost: acc.Cost(), Zone: acc.CurrentZone()}, rerr
	}

	e.recordCost(acc.Cost())
	if !acc.Warned() && e.metrics != nil {
		// Accumulator.CheckAndRecord already published a warning metric for
		// the warned case during the scan; here we only need to cover the
		// silent autonomous-zone admission.
		e.metrics.ObserveAdmitted(acc.Cost())
	}

	return &Result{
		Stream: stream,
		State:  state,
		Cost:   acc.Cost(),
		Warned: acc.Warned(),
		Zone:   acc.CurrentZone(),
	}, nil
}

// reasonForNormalizeErr maps a uscn normalization failure to its own
// taxonomy entry instead of collapsing every failure into Unnormalized:
// spec.md §7 lists BufferOverflow and InvalidUtf8InCanonicalStream as
// distinct from Unnormalized, and §8 scenario 6 requires BufferOverflow
// specifically on an overflowing admission.
func reasonForNormalizeErr(err error) rejection.Reason {
	switch {
	case errors.Is(err, uscn.ErrBufferOverflow):
		return rejection.ReasonBufferOverflow
	case errors.Is(err, uscn.ErrInvalidUTF8):
		return rejection.ReasonInvalidUTF8
	case errors.Is(err, uscn.ErrEmptyInput):
		return rejection.ReasonInvalidInput
	default:
		return rejection.ReasonUnnormalized
	}
}

func (e *EngineInstance) recordCost(cost float64) {
	e.lastMu.Lock()
	e.lastCost = cost
	e.lastMu.Unlock()
}

// Cost returns the accumulated governance cost of the most recently
// completed admission on this engine, or 0 if none has run yet.
func (e *EngineInstance) Cost() float64 {
	if e == nil {
		return 0
	}
	e.lastMu.Lock()
	defer e.lastMu.Unlock()
	return e.lastCost
}

// Close releases no resources today — EngineInstance holds no file
// descriptors or goroutines of its own — but is part of the public surface
// so callers can rely on a consistent lifecycle if a future backend (e.g.
// a persistent pattern cache) needs one.
func (e *EngineInstance) Close() error {
	return nil
}
