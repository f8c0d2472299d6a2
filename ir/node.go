// Package ir defines the Intermediate Representation the DFA engine emits:
// an ordered, typed stream of recognized lexemes, each owning a copy of its
// matched canonical bytes.
package ir

import "github.com/obinexus/obiengine/pattern"

// Kind names the semantic role of one recognized IR node.
type Kind string

const (
	KindProtocolMessage  Kind = "ProtocolMessage"
	KindSecurityContext  Kind = "SecurityContext"
	KindPayloadBlock     Kind = "PayloadBlock"
	KindSchemaValidation Kind = "SchemaValidation"
	KindAuditRecord      Kind = "AuditRecord"
	KindErrorCondition   Kind = "ErrorCondition"
)

// KindForPattern maps a registered pattern's Kind to the IR Kind it
// produces when matched, per the spec's fixed table. Patterns with no
// explicit mapping produce ErrorCondition.
func KindForPattern(k pattern.Kind) Kind {
	switch k {
	case pattern.KindProtocolHeader:
		return KindProtocolMessage
	case pattern.KindSecurityToken:
		return KindSecurityContext
	case pattern.KindDataPayload:
		return KindPayloadBlock
	case pattern.KindSchemaReference:
		return KindSchemaValidation
	case pattern.KindAuditMarker:
		return KindAuditRecord
	default:
		return KindErrorCondition
	}
}

// Node is one recognized lexeme. CanonicalContent is an owned copy: the
// source CanonicalBuffer may be released without invalidating it.
type Node struct {
	Kind             Kind
	CanonicalContent []byte
	SourceStateID    int
	Cost             float64
}

// NewNode copies content so the resulting Node owns independent storage.
func NewNode(kind Kind, content []byte, sourceStateID int, cost float64) Node {
	owned := make([]byte, len(content))
	copy(owned, content)
	return Node{Kind: kind, CanonicalContent: owned, SourceStateID: sourceStateID, Cost: cost}
}

// Stream is the ordered sequence of Nodes produced by one admission. Nodes
// are emitted in input-position order; that order is part of the contract.
type Stream struct {
	Nodes []Node
}

// Append adds n to the end of the stream.
func (s *Stream) Append(n Node) {
	s.Nodes = append(s.Nodes, n)
}

// Count returns the number of nodes in the stream.
func (s *Stream) Count() int {
	if s == nil {
		return 0
	}
	return len(s.Nodes)
}

// Kinds returns the Kind of every node, in order — convenient for
// asserting IR shape in tests.
func (s *Stream) Kinds() []Kind {
	if s == nil {
		return nil
	}
	out := make([]Kind, len(s.Nodes))
	for i, n := range s.Nodes {
		out[i] = n.Kind
	}
	return out
}
