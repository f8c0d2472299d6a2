// Package dfa implements the layered-grammar state machine: a fixed chain
// of eight states walking a canonicalized buffer one mandatory pattern at a
// time, emitting an IR node per semantically meaningful match and charging
// the governance accumulator for every transition taken.
//
// Grounded on the teacher's catf.Parse: a single sequential scan over a
// byte buffer with explicit named checkpoints, rather than a generic
// graph-interpreter loop. The state chain here is fixed by the grammar (it
// never branches), so driving it as an ordered transition list is the same
// shape as catf.Parse's sequence of preamble/body/postamble checks.
package dfa

import "github.com/obinexus/obiengine/pattern"

// StateID identifies one of the eight fixed states in the chain.
type StateID int

const (
	S0ProtocolStart         StateID = iota // initial
	S1VersionParsing                       // optional: version already consumed by S0 in practice
	S2SecurityTokenExpected                // entered after S0/S1, expects SecurityToken
	S3TokenValidation                      // zero-width, fixed-cost ZT checkpoint
	S4SchemaReference                      // expects SchemaReference
	S5PayloadDelimiter                     // expects PayloadDelimiter, derives payload length
	S6DataPayload                          // accepting: consumes the declared payload length
	S7AuditMarker                          // accepting, terminal: expects AuditMarker
)

// Names for diagnostics and rendered output; index by StateID.
var Names = [...]string{
	"PROTOCOL_START",
	"VERSION_PARSING",
	"SECURITY_TOKEN_EXPECTED",
	"TOKEN_VALIDATION",
	"SCHEMA_REFERENCE",
	"PAYLOAD_DELIMITER",
	"DATA_PAYLOAD",
	"AUDIT_MARKER",
}

// String returns the state's spec name, or "UNKNOWN" if out of range.
func (s StateID) String() string {
	if s < 0 || int(s) >= len(Names) {
		return "UNKNOWN"
	}
	return Names[s]
}

// IsAccepting reports whether s is one of the two accepting states.
func (s StateID) IsAccepting() bool {
	return s == S6DataPayload || s == S7AuditMarker
}

// tokenValidationCost is the fixed weight charged for the S3 checkpoint,
// which consumes no bytes and matches no pattern — it represents the cost
// of enforcing that the security token just matched came from a
// canonicalized buffer, not a new lexeme.
const tokenValidationCost = 0.01

// transition is one edge in the fixed eight-state chain. The epsilon flag
// (with an empty patternKind) marks the transition at S3, which is always
// taken.
type transition struct {
	from, to   StateID
	patternKind pattern.Kind
	optional   bool // if true and the pattern does not match, advance without consuming or erroring
	epsilon    bool // if true, ignore patternKind entirely and always advance at fixed cost
}

// chain is the transition list the engine walks in order for states
// S0..S5. The last two transitions of the grammar — consuming the
// delimiter-declared payload length at S6, and the optional AuditMarker at
// S6->S7 — are handled by dedicated logic in engine.Run instead of this
// generic table, because the payload's length comes from parsing the
// PayloadDelimiter match's content (coregex has no capture groups), not
// from a second independent pattern match.
var chain = []transition{
	{from: S0ProtocolStart, to: S1VersionParsing, patternKind: pattern.KindProtocolHeader},
	{from: S1VersionParsing, to: S2SecurityTokenExpected, patternKind: pattern.KindVersionParse, optional: true},
	{from: S2SecurityTokenExpected, to: S3TokenValidation, patternKind: pattern.KindSecurityToken},
	{from: S3TokenValidation, to: S4SchemaReference, epsilon: true},
	{from: S4SchemaReference, to: S5PayloadDelimiter, patternKind: pattern.KindSchemaReference},
	{from: S5PayloadDelimiter, to: S6DataPayload, patternKind: pattern.KindPayloadDelimiter},
}

// StateCount is the fixed number of DFA states (S0..S7), used as the
// state_count term of the governance accumulator's structural prelude.
const StateCount = 8

// TransitionCount is the fixed number of transitions the grammar defines
// (the six in chain plus the payload-consumption and audit-marker
// transitions engine.Run handles specially), used as the transition_count
// term of the governance accumulator's structural prelude.
const TransitionCount = 8

func findByKind(r *pattern.Registry, kind pattern.Kind) *pattern.Pattern {
	for _, p := range r.All() {
		if p.Kind == kind {
			return p
		}
	}
	return nil
}

// statePatternKind maps each state to the pattern kind it recognizes on its
// outgoing transition. S3's checkpoint consumes no bytes and matches
// nothing, so it is tagged with the spec's own structural-boundary kind
// rather than a registered pattern's.
var statePatternKind = [...]pattern.Kind{
	S0ProtocolStart:         pattern.KindProtocolHeader,
	S1VersionParsing:        pattern.KindVersionParse,
	S2SecurityTokenExpected: pattern.KindSecurityToken,
	S3TokenValidation:       pattern.KindTransitionBoundary,
	S4SchemaReference:       pattern.KindSchemaReference,
	S5PayloadDelimiter:      pattern.KindPayloadDelimiter,
	S6DataPayload:           pattern.KindDataPayload,
	S7AuditMarker:           pattern.KindAuditMarker,
}

// TransitionExport is one outgoing edge, serialized under its source
// state's transitions[] and again, flattened, as a transition_matrix[]
// entry — the two serialized shapes spec.md §6's DFA export requires.
type TransitionExport struct {
	From       int     `json:"from" yaml:"from"`
	To         int     `json:"to" yaml:"to"`
	InputClass string  `json:"input_class" yaml:"input_class"`
	Cost       float64 `json:"cost" yaml:"cost"`
}

// StateExport is the serializable shape of one DFA state.
type StateExport struct {
	ID          int                `json:"id" yaml:"id"`
	Name        string             `json:"name" yaml:"name"`
	PatternType string             `json:"pattern_type" yaml:"pattern_type"`
	Regex       string             `json:"regex" yaml:"regex"`
	IsInitial   bool               `json:"is_initial" yaml:"is_initial"`
	IsAccepting bool               `json:"is_accepting" yaml:"is_accepting"`
	Transitions []TransitionExport `json:"transitions" yaml:"transitions"`
}

// exportTransitions renders the fixed edge list against r's registered
// patterns: the six general-chain edges plus the two payload/audit edges
// engine.Run drives with dedicated logic (runPayloadAndAudit) instead of
// the generic chain table.
func exportTransitions(r *pattern.Registry) []TransitionExport {
	out := make([]TransitionExport, 0, TransitionCount)
	for _, t := range chain {
		inputClass := "epsilon"
		var cost float64 = tokenValidationCost
		if !t.epsilon {
			inputClass = string(t.patternKind)
			cost = 0
			if p := findByKind(r, t.patternKind); p != nil {
				cost = p.CostWeight
			}
		}
		out = append(out, TransitionExport{From: int(t.from), To: int(t.to), InputClass: inputClass, Cost: cost})
	}

	var dataCost float64
	if p := findByKind(r, pattern.KindDataPayload); p != nil {
		dataCost = p.CostWeight
	}
	out = append(out, TransitionExport{
		From: int(S6DataPayload), To: int(S6DataPayload),
		InputClass: string(pattern.KindDataPayload), Cost: dataCost,
	})

	var auditCost float64
	if p := findByKind(r, pattern.KindAuditMarker); p != nil {
		auditCost = p.CostWeight
	}
	out = append(out, TransitionExport{
		From: int(S6DataPayload), To: int(S7AuditMarker),
		InputClass: string(pattern.KindAuditMarker), Cost: auditCost,
	})
	return out
}

// ExportTransitionMatrix flattens the fixed edge list for spec.md §6's
// top-level transition_matrix[].
func ExportTransitionMatrix(r *pattern.Registry) []TransitionExport {
	return exportTransitions(r)
}

// ExportStates renders the fixed eight-state chain against r's registered
// patterns for spec.md §6's states[], nesting each state's outgoing edges
// under its own transitions[].
func ExportStates(r *pattern.Registry) []StateExport {
	edges := exportTransitions(r)
	states := make([]StateExport, StateCount)
	for id := 0; id < StateCount; id++ {
		sid := StateID(id)
		kind := statePatternKind[sid]
		regex := ""
		if p := findByKind(r, kind); p != nil {
			regex = p.Regex
		}
		var outgoing []TransitionExport
		for _, e := range edges {
			if e.From == id {
				outgoing = append(outgoing, e)
			}
		}
		states[id] = StateExport{
			ID:          id,
			Name:        sid.String(),
			PatternType: string(kind),
			Regex:       regex,
			IsInitial:   sid == S0ProtocolStart,
			IsAccepting: sid.IsAccepting(),
			Transitions: outgoing,
		}
	}
	return states
}
