// Package pattern implements the registry of named semantic patterns the
// DFA engine recognizes: protocol header, security token, schema
// reference, payload delimiter, data payload, and audit marker, plus the
// structural patterns used for version parsing.
//
// Every pattern's regular expression is compiled exactly once, at
// Register time, into a github.com/coregx/coregex automaton that is
// reused for every admission — never recompiled per input or per byte
// position. coregex guarantees worst-case O(m*n) matching with no
// backtracking blowup, which is what lets the governance accumulator's
// cost bound actually hold: an adversarial pattern that triggered
// catastrophic backtracking in a naive engine would itself be a
// governance bypass.
package pattern

import (
	"fmt"

	"github.com/coregx/coregex"

	"github.com/obinexus/obiengine/rejection"
)

// Kind names a pattern's semantic role.
type Kind string

const (
	KindProtocolHeader     Kind = "ProtocolHeader"
	KindVersionParse       Kind = "VersionParse"
	KindSecurityToken      Kind = "SecurityToken"
	KindSchemaReference    Kind = "SchemaReference"
	KindPayloadDelimiter   Kind = "PayloadDelimiter"
	KindDataPayload        Kind = "DataPayload"
	KindAuditMarker        Kind = "AuditMarker"
	KindTransitionBoundary Kind = "TransitionBoundary"
	KindCanonicalDelimiter Kind = "CanonicalDelimiter"
	KindErrorRecovery      Kind = "ErrorRecovery"
)

// MaxPatternLength is OBI_MAX_PATTERN_LENGTH.
const MaxPatternLength = 512

// MaxStates is OBI_MAX_STATES: the registry may hold at most this many
// patterns.
const MaxStates = 256

// Option configures a Pattern at registration time.
type Option func(*Pattern)

// RequiresZT marks a pattern as requiring Zero-Trust enforcement: the byte
// range it matches must have come from a canonicalized buffer.
func RequiresZT() Option {
	return func(p *Pattern) { p.RequiresZT = true }
}

// CostWeight sets the fixed per-transition cost weight a match against this
// pattern contributes to the governance accumulator, before the
// match-length term the accumulator adds on top of it.
func CostWeight(w float64) Option {
	return func(p *Pattern) { p.CostWeight = w }
}

// Pattern is a registered, compiled recognizer for one semantic role.
type Pattern struct {
	ID          int
	Kind        Kind
	Regex       string
	IsAccepting bool
	RequiresZT  bool
	CostWeight  float64

	compiled *coregex.Regex
}

// IsAcceptingKind reports whether kind is one of the two kinds the spec
// designates as accepting: DataPayload and AuditMarker.
func IsAcceptingKind(k Kind) bool {
	return k == KindDataPayload || k == KindAuditMarker
}

// MatchAt reports whether the pattern matches starting exactly at position
// pos of canonical, returning the matched length (0 if no match). The
// regex is anchored to the start of the scanned window so that "matches
// here" and "matches somewhere ahead" are never confused.
func (p *Pattern) MatchAt(canonical []byte, pos int) (length int, ok bool) {
	if pos > len(canonical) {
		return 0, false
	}
	loc := p.compiled.FindIndex(canonical[pos:])
	if loc == nil || loc[0] != 0 {
		return 0, false
	}
	return loc[1] - loc[0], true
}

// Registry is the compiled, immutable-after-init set of patterns a DFA
// engine is built from.
type Registry struct {
	patterns []*Pattern
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register compiles regex and appends a new Pattern, returning its id (a
// dense, zero-based index in registration order). A bad or oversize regex
// fails with rejection.ReasonInvalidPattern, a full registry with
// rejection.ReasonRegistryFull.
func (r *Registry) Register(kind Kind, regex string, opts ...Option) (int, error) {
	if r == nil {
		return 0, fmt.Errorf("pattern: register on nil registry")
	}
	if len(regex) == 0 || len(regex) > MaxPatternLength {
		return 0, rejection.New(rejection.ReasonInvalidPattern,
			fmt.Sprintf("pattern: invalid regex length %d (max %d)", len(regex), MaxPatternLength))
	}
	if len(r.patterns) >= MaxStates {
		return 0, rejection.New(rejection.ReasonRegistryFull,
			fmt.Sprintf("pattern: registry full (max %d states)", MaxStates))
	}
	anchored := "^(?:" + regex + ")"
	compiled, err := coregex.Compile(anchored)
	if err != nil {
		return 0, rejection.Wrap(rejection.ReasonInvalidPattern,
			fmt.Sprintf("pattern: compiling %q: %v", regex, err), err)
	}
	p := &Pattern{
		ID:          len(r.patterns),
		Kind:        kind,
		Regex:       regex,
		IsAccepting: IsAcceptingKind(kind),
		CostWeight:  0.05,
		compiled:    compiled,
	}
	for _, opt := range opts {
		opt(p)
	}
	r.patterns = append(r.patterns, p)
	return p.ID, nil
}

// Get returns the pattern registered at id, or nil if out of range.
func (r *Registry) Get(id int) *Pattern {
	if r == nil || id < 0 || id >= len(r.patterns) {
		return nil
	}
	return r.patterns[id]
}

// Len returns the number of registered patterns.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.patterns)
}

// All returns the registered patterns in registration order. The slice is
// owned by the registry and must not be mutated by callers.
func (r *Registry) All() []*Pattern {
	if r == nil {
		return nil
	}
	return r.patterns
}

// RegisterMandatory registers the seven built-in patterns from the spec, in
// the order the DFA state chain expects: ProtocolHeader, VersionParse,
// SecurityToken, SchemaReference, PayloadDelimiter, DataPayload,
// AuditMarker.
func RegisterMandatory(r *Registry, zt bool) error {
	defs := []struct {
		kind  Kind
		regex string
		zt    bool
	}{
		{KindProtocolHeader, `obi-protocol-[0-9]+\.[0-9]+:`, false},
		{KindVersionParse, `[0-9]+\.[0-9]+`, false},
		{KindSecurityToken, `sec:[a-f0-9]{64}`, true},
		{KindSchemaReference, `schema:[a-za-z0-9_-]+\.[0-9]+`, false},
		{KindPayloadDelimiter, `payload\|[0-9]+\|`, false},
		{KindDataPayload, `.*`, false},
		{KindAuditMarker, `audit:[0-9]{13}`, true},
	}
	for _, d := range defs {
		var opts []Option
		if d.zt && zt {
			opts = append(opts, RequiresZT())
		}
		if _, err := r.Register(d.kind, d.regex, opts...); err != nil {
			return err
		}
	}
	return nil
}
