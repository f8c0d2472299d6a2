// Package uscn implements the Unified String Canonicalization Normalizer:
// the single authoritative choke point that every byte sequence admitted by
// the obi engine must pass through before any grammar decision is made.
package uscn

import (
	"errors"
	"fmt"

	"github.com/coregx/ahocorasick"
)

// RiskClass names the exploit category an EncodingRule defeats.
type RiskClass string

const (
	RiskPathTraversal RiskClass = "path-traversal"
	RiskUTF8Overlong  RiskClass = "utf8-overlong"
	RiskMixedEncoding RiskClass = "mixed-encoding"
	RiskBasic         RiskClass = "basic"
	RiskDelimiter     RiskClass = "delimiter"
	RiskWhitespace    RiskClass = "whitespace"
)

// EncodingRule is one mandatory rewrite of an exploit-prone byte sequence to
// its canonical form. Matching against Encoded is case-insensitive on hex
// digits; Canonical is emitted byte for byte.
type EncodingRule struct {
	Encoded   []byte
	Canonical []byte
	Risk      RiskClass
}

// DefaultEncodingRules returns the mandatory rewrite table in registration
// order. Order matters: among candidate rules with equally long matches at
// a position, the earlier entry wins. %c0%af is listed twice on purpose
// (once for the path-traversal canonicalization, once for the bare
// delimiter canonicalization) — the path-traversal entry is listed first so
// it wins the tie, resolving the ambiguity the source left implicit.
func DefaultEncodingRules() []EncodingRule {
	return []EncodingRule{
		{Encoded: []byte("%2e%2e%2f"), Canonical: []byte("../"), Risk: RiskPathTraversal},
		{Encoded: []byte("%c0%af"), Canonical: []byte("../"), Risk: RiskUTF8Overlong},
		{Encoded: []byte(".%2e/"), Canonical: []byte("../"), Risk: RiskMixedEncoding},
		{Encoded: []byte("%2e%2e/"), Canonical: []byte("../"), Risk: RiskMixedEncoding},
		{Encoded: []byte("%c0%ae"), Canonical: []byte("."), Risk: RiskUTF8Overlong},
		{Encoded: []byte("%c0%af"), Canonical: []byte("/"), Risk: RiskUTF8Overlong},
		{Encoded: []byte("%2f"), Canonical: []byte("/"), Risk: RiskBasic},
		{Encoded: []byte("%2e"), Canonical: []byte("."), Risk: RiskBasic},
		{Encoded: []byte("%20"), Canonical: []byte(" "), Risk: RiskWhitespace},
		{Encoded: []byte("%3A"), Canonical: []byte(":"), Risk: RiskDelimiter},
		{Encoded: []byte("%7C"), Canonical: []byte("|"), Risk: RiskDelimiter},
	}
}

// EncodingMap is the compiled, immutable form of an ordered rewrite table.
// It is built once (at normalizer construction) and shared by every
// admission that uses it.
type EncodingMap struct {
	rules      []EncodingRule
	lowerEnc   [][]byte
	auto       *ahocorasick.Automaton
	maxEncoded int
}

// NewEncodingMap compiles rules into an EncodingMap. An Aho-Corasick
// automaton is built once over the (lower-cased) encoded sequences so that
// Normalize can skip, in bulk, any span of canonical input that contains no
// possible rewrite site instead of probing every rule at every byte
// position — the automaton answers "where is the next possible rewrite"
// in a single linear pass; the exact longest-match/table-order tie-break
// required by spec is still resolved by checking the rule table directly at
// the position the automaton reports.
func NewEncodingMap(rules []EncodingRule) (*EncodingMap, error) {
	if len(rules) == 0 {
		return nil, errors.New("uscn: encoding map requires at least one rule")
	}
	builder := ahocorasick.NewBuilder()
	lower := make([][]byte, len(rules))
	maxLen := 0
	for i, r := range rules {
		if len(r.Encoded) == 0 {
			return nil, fmt.Errorf("uscn: rule %d has empty encoded sequence", i)
		}
		lower[i] = asciiLower(r.Encoded)
		builder.AddPattern(lower[i])
		if len(r.Encoded) > maxLen {
			maxLen = len(r.Encoded)
		}
	}
	auto, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("uscn: building encoding automaton: %w", err)
	}
	return &EncodingMap{rules: rules, lowerEnc: lower, auto: auto, maxEncoded: maxLen}, nil
}

// bestMatchAt returns the index of the rule that wins at position pos of
// lowered (the ASCII-lower-cased copy of the scan buffer), or -1 if none of
// the rules match there. Ties among equal-length matches are broken by
// table order, i.e. the first index wins.
func (m *EncodingMap) bestMatchAt(lowered []byte, pos int) int {
	best := -1
	bestLen := 0
	for i, enc := range m.lowerEnc {
		n := len(enc)
		if pos+n > len(lowered) {
			continue
		}
		if !bytesEqual(lowered[pos:pos+n], enc) {
			continue
		}
		if n > bestLen {
			best = i
			bestLen = n
		}
	}
	return best
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func asciiLower(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return out
}
