package dfa

import (
	"strconv"
	"strings"

	"github.com/obinexus/obiengine/governance"
	"github.com/obinexus/obiengine/ir"
	"github.com/obinexus/obiengine/pattern"
	"github.com/obinexus/obiengine/rejection"
)

// emitsIR reports whether matches of pattern kind k emit an IR node. The
// structural kinds (VersionParse, PayloadDelimiter, and the TokenValidation
// checkpoint, which has no pattern at all) advance the state chain and
// charge governance cost without contributing a lexeme to the stream —
// otherwise every well-formed message would carry spurious ErrorCondition
// nodes for its own delimiters.
func emitsIR(k pattern.Kind) bool {
	switch k {
	case pattern.KindProtocolHeader, pattern.KindSecurityToken,
		pattern.KindSchemaReference, pattern.KindDataPayload, pattern.KindAuditMarker:
		return true
	default:
		return false
	}
}

// Engine walks the fixed eight-state chain over one canonicalized buffer.
type Engine struct {
	Registry            *pattern.Registry
	ZT                  bool
	MaxConsecutiveSkips int
}

// NewEngine returns an Engine backed by r. maxConsecutiveSkips bounds the
// error-recovery byte-skip distance; pass 0 for strict Zero-Trust mode,
// where any non-match is an immediate rejection.
func NewEngine(r *pattern.Registry, zt bool, maxConsecutiveSkips int) *Engine {
	return &Engine{Registry: r, ZT: zt, MaxConsecutiveSkips: maxConsecutiveSkips}
}

// Run scans canonical from S0, emitting IR nodes and charging acc for every
// transition taken, and returns the stream, the final state reached, and
// nil on acceptance, or a *rejection.Error otherwise. acc must already be
// reset by the caller; Run adds the structural prelude itself.
func (e *Engine) Run(canonical []byte, acc *governance.Accumulator) (*ir.Stream, StateID, error) {
	stream := &ir.Stream{}
	state := S0ProtocolStart

	acc.Prelude(StateCount, TransitionCount, e.ZT)
	if !acc.CheckAndRecord() {
		return stream, state, rejection.NewAt(rejection.ReasonBudgetExceeded, 0, int(state),
			"governance cost exceeded 0.6 during structural prelude")
	}

	pos := 0
	for _, t := range chain {
		if t.epsilon {
			acc.AddTransition(tokenValidationCost, 0)
			if !acc.CheckAndRecord() {
				return stream, state, rejection.NewAt(rejection.ReasonBudgetExceeded, pos, int(state),
					"governance cost exceeded 0.6 at token validation checkpoint")
			}
			state = t.to
			continue
		}

		p := findByKind(e.Registry, t.patternKind)
		if p == nil {
			return stream, state, rejection.NewAt(rejection.ReasonRegistryExhausted, pos, int(state),
				"no registered pattern for kind "+string(t.patternKind))
		}

		length, ok := p.MatchAt(canonical, pos)
		if !ok {
			if t.optional {
				state = t.to
				continue
			}
			skipped, recovered := e.recover(canonical, pos, p)
			if !recovered {
				stream.Append(ir.NewNode(ir.KindErrorCondition, nil, int(state), acc.Cost()))
				return stream, state, rejection.NewAt(rejection.ReasonNoMatch, pos, int(state),
					"no pattern matched at position "+strconv.Itoa(pos))
			}
			pos += skipped
			length, _ = p.MatchAt(canonical, pos)
		}

		acc.AddTransition(p.CostWeight, length)
		if !acc.CheckAndRecord() {
			return stream, state, rejection.NewAt(rejection.ReasonBudgetExceeded, pos, int(state),
				"governance cost exceeded 0.6 at state "+state.String())
		}
		if emitsIR(t.patternKind) {
			stream.Append(ir.NewNode(ir.KindForPattern(t.patternKind), canonical[pos:pos+length], int(state), acc.Cost()))
		}
		if t.patternKind == pattern.KindPayloadDelimiter {
			n, perr := parsePayloadLength(canonical[pos : pos+length])
			if perr != nil {
				return stream, state, rejection.Wrap(rejection.ReasonInvalidInput,
					"malformed payload delimiter at position "+strconv.Itoa(pos), perr)
			}
			pos += length
			state = t.to
			return e.runPayloadAndAudit(canonical, pos, n, state, stream, acc)
		}
		pos += length
		state = t.to
	}

	return stream, state, nil
}

// runPayloadAndAudit consumes the delimiter-declared payload length and
// then, if bytes remain, the terminal AuditMarker. Splitting this out of
// the generic chain loop is what lets DataPayload (regex ".*") consume
// exactly the declared length instead of greedily swallowing the rest of
// the buffer, including any audit marker that follows.
func (e *Engine) runPayloadAndAudit(canonical []byte, pos, payloadLen int, state StateID, stream *ir.Stream, acc *governance.Accumulator) (*ir.Stream, StateID, error) {
	if payloadLen < 0 || pos+payloadLen > len(canonical) {
		return stream, state, rejection.NewAt(rejection.ReasonNoMatch, pos, int(state),
			"declared payload length exceeds remaining buffer")
	}
	payload := canonical[pos : pos+payloadLen]
	dataPattern := findByKind(e.Registry, pattern.KindDataPayload)
	if dataPattern == nil {
		return stream, state, rejection.NewAt(rejection.ReasonRegistryExhausted, pos, int(state),
			"no registered pattern for kind DataPayload")
	}
	length, ok := dataPattern.MatchAt(payload, 0)
	if !ok || length < payloadLen {
		return stream, state, rejection.NewAt(rejection.ReasonNoMatch, pos, int(state),
			"payload content did not satisfy the DataPayload pattern")
	}

	acc.AddTransition(dataPattern.CostWeight, payloadLen)
	if !acc.CheckAndRecord() {
		return stream, state, rejection.NewAt(rejection.ReasonBudgetExceeded, pos, int(state),
			"governance cost exceeded 0.6 at state "+state.String())
	}
	stream.Append(ir.NewNode(ir.KindPayloadBlock, payload, int(state), acc.Cost()))
	pos += payloadLen

	if pos == len(canonical) {
		return stream, state, nil
	}

	auditPattern := findByKind(e.Registry, pattern.KindAuditMarker)
	if auditPattern == nil {
		return stream, state, rejection.NewAt(rejection.ReasonRegistryExhausted, pos, int(state),
			"no registered pattern for kind AuditMarker")
	}
	length, ok = auditPattern.MatchAt(canonical, pos)
	if !ok {
		skipped, recovered := e.recover(canonical, pos, auditPattern)
		if !recovered {
			stream.Append(ir.NewNode(ir.KindErrorCondition, nil, int(state), acc.Cost()))
			return stream, state, rejection.NewAt(rejection.ReasonNoMatch, pos, int(state),
				"trailing bytes did not match AuditMarker")
		}
		pos += skipped
		length, _ = auditPattern.MatchAt(canonical, pos)
	}

	acc.AddTransition(auditPattern.CostWeight, length)
	if !acc.CheckAndRecord() {
		return stream, state, rejection.NewAt(rejection.ReasonBudgetExceeded, pos, int(state),
			"governance cost exceeded 0.6 at state "+state.String())
	}
	stream.Append(ir.NewNode(ir.KindAuditRecord, canonical[pos:pos+length], int(state), acc.Cost()))
	pos += length
	state = S7AuditMarker

	if pos != len(canonical) {
		return stream, state, rejection.NewAt(rejection.ReasonNoMatch, pos, int(state),
			"trailing bytes after audit marker")
	}
	return stream, state, nil
}

// recover implements the bounded error-recovery byte-skip: advance one byte
// at a time, up to MaxConsecutiveSkips times, retrying p at each new
// position. Returns the number of bytes skipped and whether p then matched.
// With MaxConsecutiveSkips == 0 (the strict Zero-Trust default) this is a
// no-op and every non-match is immediately terminal.
func (e *Engine) recover(canonical []byte, pos int, p *pattern.Pattern) (skipped int, ok bool) {
	for skipped = 1; skipped <= e.MaxConsecutiveSkips; skipped++ {
		next := pos + skipped
		if next > len(canonical) {
			return skipped, false
		}
		if _, matched := p.MatchAt(canonical, next); matched {
			return skipped, true
		}
	}
	return skipped - 1, false
}

// parsePayloadLength extracts N from a matched "payload|N|" delimiter.
func parsePayloadLength(matched []byte) (int, error) {
	parts := strings.Split(string(matched), "|")
	if len(parts) < 2 {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(parts[1])
}
