package engine

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/obinexus/obiengine/governance"
	"github.com/obinexus/obiengine/ir"
	"github.com/obinexus/obiengine/rejection"
	"github.com/obinexus/obiengine/uscn"
)

// Literal end-to-end admission scenarios, one test per case.

func TestScenario_HappyPath(t *testing.T) {
	e, err := NewDefault(true)
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	raw := []byte("OBI-PROTOCOL-1.0:SEC:" + strings.Repeat("A", 64) +
		"SCHEMA:msg.1PAYLOAD|5|helloAUDIT:1700000000000")

	result, aerr := e.Admit(raw)
	if aerr != nil {
		t.Fatalf("expected admission, got %v", aerr)
	}
	wantKinds := []ir.Kind{
		ir.KindProtocolMessage, ir.KindSecurityContext, ir.KindSchemaValidation,
		ir.KindPayloadBlock, ir.KindAuditRecord,
	}
	got := result.Stream.Kinds()
	if len(got) != len(wantKinds) {
		t.Fatalf("got %d IR nodes, want %d: %v", len(got), len(wantKinds), got)
	}
	for i, k := range wantKinds {
		if got[i] != k {
			t.Fatalf("node %d: got %s, want %s", i, got[i], k)
		}
	}
	if result.Cost > governance.WarningThreshold {
		t.Fatalf("expected cost <= %v, got %v", governance.WarningThreshold, result.Cost)
	}
}

func TestScenario_PathTraversalNormalizationMatchesLiteralForm(t *testing.T) {
	if !uscn.Equivalent([]byte("%2e%2e%2f"), []byte("../")) {
		t.Fatalf("expected %%2e%%2e%%2f and ../ to be canonically equivalent")
	}

	e, err := NewDefault(true)
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	token := strings.Repeat("ab", 32)

	encoded := []byte("obi-protocol-1.0:sec:" + token + "schema:msg.1" +
		"payload|6|foo%2e%2e%2faudit:1700000000000")
	literal := []byte("obi-protocol-1.0:sec:" + token + "schema:msg.1" +
		"payload|6|foo../audit:1700000000000")

	rEncoded, errEncoded := e.Admit(encoded)
	rLiteral, errLiteral := e.Admit(literal)
	if errEncoded != nil || errLiteral != nil {
		t.Fatalf("expected both forms to admit, got %v / %v", errEncoded, errLiteral)
	}

	kEncoded := rEncoded.Stream.Kinds()
	kLiteral := rLiteral.Stream.Kinds()
	if len(kEncoded) != len(kLiteral) {
		t.Fatalf("IR shape differs between encoded and literal forms: %v vs %v", kEncoded, kLiteral)
	}
	for i := range kEncoded {
		if kEncoded[i] != kLiteral[i] {
			t.Fatalf("node %d kind differs: %s vs %s", i, kEncoded[i], kLiteral[i])
		}
		if !bytes.Equal(rEncoded.Stream.Nodes[i].CanonicalContent, rLiteral.Stream.Nodes[i].CanonicalContent) {
			t.Fatalf("node %d content differs: %q vs %q", i,
				rEncoded.Stream.Nodes[i].CanonicalContent, rLiteral.Stream.Nodes[i].CanonicalContent)
		}
	}
}

func TestScenario_CaseVariantTokenAdmittedIdentically(t *testing.T) {
	e, err := NewDefault(true)
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	hex := strings.Repeat("ab", 32)
	lower := []byte("obi-protocol-1.0:sec:" + hex + "schema:msg.1payload|5|helloaudit:1700000000000")
	upper := []byte("OBI-PROTOCOL-1.0:SEC:" + strings.ToUpper(hex) + "SCHEMA:msg.1PAYLOAD|5|helloAUDIT:1700000000000")

	rLower, errLower := e.Admit(lower)
	rUpper, errUpper := e.Admit(upper)
	if errLower != nil || errUpper != nil {
		t.Fatalf("expected both case variants to admit, got %v / %v", errLower, errUpper)
	}
	if len(rLower.Stream.Nodes) != len(rUpper.Stream.Nodes) {
		t.Fatalf("expected identical IR shape across case variants")
	}
	for i := range rLower.Stream.Nodes {
		if !bytes.Equal(rLower.Stream.Nodes[i].CanonicalContent, rUpper.Stream.Nodes[i].CanonicalContent) {
			t.Fatalf("node %d content differs across case variants: %q vs %q", i,
				rLower.Stream.Nodes[i].CanonicalContent, rUpper.Stream.Nodes[i].CanonicalContent)
		}
	}
}

func TestScenario_BadTokenLengthRejectedAtTokenOffset(t *testing.T) {
	e, err := NewDefault(true)
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	raw := []byte("obi-protocol-1.0:sec:" + strings.Repeat("a", 63) +
		"schema:msg.1payload|5|helloaudit:1700000000000")

	_, aerr := e.Admit(raw)
	if aerr == nil {
		t.Fatalf("expected rejection for a 63-character security token")
	}
	if !rejection.IsReason(aerr, rejection.ReasonNoMatch) {
		t.Fatalf("expected ReasonNoMatch, got %v", aerr)
	}
	wantPos := len("obi-protocol-1.0:")
	if got := rejection.PositionOf(aerr); got != wantPos {
		t.Fatalf("expected rejection position %d (the security token offset), got %d", wantPos, got)
	}
}

func TestScenario_BudgetExhaustionReturnsPartialIR(t *testing.T) {
	e, err := NewDefault(true)
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	token := strings.Repeat("ef", 32)
	payload := strings.Repeat("h", 4000)
	raw := []byte("obi-protocol-1.0:sec:" + token + "schema:msg.1" +
		"payload|4000|" + payload + "audit:1700000000000")

	result, aerr := e.Admit(raw)
	if aerr == nil {
		t.Fatalf("expected BudgetExceeded rejection")
	}
	if !rejection.IsReason(aerr, rejection.ReasonBudgetExceeded) {
		t.Fatalf("expected ReasonBudgetExceeded, got %v", aerr)
	}
	if result == nil || result.Stream == nil {
		t.Fatalf("expected the partial IR built up to the violating transition to be returned")
	}
	// Header, SecurityToken, and SchemaReference transitions complete (and
	// emit nodes) before the oversize payload transition is even attempted.
	if result.Stream.Count() != 3 {
		t.Fatalf("expected 3 partial IR nodes before the violating transition, got %d", result.Stream.Count())
	}
}

func TestScenario_OverflowRejectsWithNoIR(t *testing.T) {
	e, err := NewDefault(true)
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	raw := bytes.Repeat([]byte("a"), uscn.MaxCanonicalBytes+1)

	result, aerr := e.Admit(raw)
	if aerr == nil {
		t.Fatalf("expected BufferOverflow-driven rejection")
	}
	if !rejection.IsReason(aerr, rejection.ReasonBufferOverflow) {
		t.Fatalf("expected ReasonBufferOverflow (normalization failed before the DFA ever ran), got %v", aerr)
	}
	if !errors.Is(aerr, uscn.ErrBufferOverflow) {
		t.Fatalf("expected the wrapped cause to be uscn.ErrBufferOverflow, got %v", aerr)
	}
	if result != nil {
		t.Fatalf("expected no IR for an input that never reached the DFA, got %+v", result)
	}
}
