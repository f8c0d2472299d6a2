package uscn

import (
	"errors"
	"unicode/utf8"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// MaxCanonicalBytes is OBI_CANONICAL_BUFFER_SIZE: the hard cap on a
// canonical buffer's length.
const MaxCanonicalBytes = 8192

// ErrBufferOverflow is returned when substitution would push the canonical
// output past MaxCanonicalBytes. No partial result is returned alongside it.
var ErrBufferOverflow = errors.New("uscn: canonical output would exceed buffer bound")

// ErrInvalidUTF8 is returned when cfg.StrictUTF8 is set and the canonical
// stream is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("uscn: canonical stream is not valid UTF-8")

// ErrEmptyInput is returned by Normalize for a nil or zero-length input;
// callers at the admission boundary surface this as InvalidInput.
var ErrEmptyInput = errors.New("uscn: empty input")

// Config controls the optional phases of Normalize. The zero value is not
// the default configuration — use DefaultConfig.
type Config struct {
	// CaseFold lowercases ASCII letters; non-ASCII bytes pass through
	// unchanged. Default on.
	CaseFold bool
	// WhitespaceFold collapses maximal runs of {space, tab, CR, LF} to a
	// single space without trimming leading/trailing runs. Default on.
	WhitespaceFold bool
	// StrictUTF8 rejects a canonical stream that is not valid UTF-8.
	// Default off, for compatibility with arbitrary binary payload bytes.
	StrictUTF8 bool
	// EncodingMap is the compiled rewrite table to apply. A nil map uses
	// the mandatory DefaultEncodingRules compiled on first use.
	EncodingMap *EncodingMap
}

// DefaultConfig returns the engine's default normalization posture: case
// folding and whitespace folding on, strict UTF-8 off, mandatory encoding
// map.
func DefaultConfig() Config {
	m, err := NewEncodingMap(DefaultEncodingRules())
	if err != nil {
		// DefaultEncodingRules is a fixed, well-formed literal table; this
		// is unreachable in practice.
		panic("uscn: default encoding map failed to compile: " + err.Error())
	}
	return Config{
		CaseFold:       true,
		WhitespaceFold: true,
		StrictUTF8:     false,
		EncodingMap:    m,
	}
}

// CanonicalBuffer is the bounded, owned result of Normalize.
type CanonicalBuffer struct {
	Bytes  []byte
	Length int
	// OriginHash is a CIDv1 (raw + sha2-256) handle over Bytes, used to
	// correlate downstream IR nodes to their source buffer without
	// retaining the buffer itself.
	OriginHash string
}

// Normalize reduces input to its canonical form per the three-phase USCN
// algorithm: encoding substitution, case folding, whitespace folding. The
// result is deterministic and, by construction, idempotent:
// Normalize(Normalize(s).Bytes, cfg) == Normalize(s, cfg).
func Normalize(input []byte, cfg Config) (*CanonicalBuffer, error) {
	if len(input) == 0 {
		return nil, ErrEmptyInput
	}
	m := cfg.EncodingMap
	if m == nil {
		m = DefaultConfig().EncodingMap
	}

	substituted, err := substitute(input, m)
	if err != nil {
		return nil, err
	}

	out := substituted
	if cfg.CaseFold {
		foldCase(out)
	}
	if cfg.WhitespaceFold {
		out = foldWhitespace(out)
	}
	if len(out) > MaxCanonicalBytes {
		return nil, ErrBufferOverflow
	}
	if cfg.StrictUTF8 && !utf8.Valid(out) {
		return nil, ErrInvalidUTF8
	}

	return &CanonicalBuffer{
		Bytes:      out,
		Length:     len(out),
		OriginHash: originHash(out),
	}, nil
}

// originHash derives a CIDv1 (raw multicodec, sha2-256 multihash) string
// handle for a canonical buffer, so downstream IR nodes and logs can
// correlate back to the buffer they came from without retaining it. Returns
// "" only if the underlying multihash sum fails, which cannot happen for
// SHA2_256 with the default digest length.
func originHash(canonical []byte) string {
	sum, err := multihash.Sum(canonical, multihash.SHA2_256, -1)
	if err != nil {
		return ""
	}
	return cid.NewCidV1(cid.Raw, sum).String()
}

// substitute runs phase 1: longest-match rewriting driven by the
// EncodingMap's Aho-Corasick prefilter.
func substitute(input []byte, m *EncodingMap) ([]byte, error) {
	lowered := asciiLower(input)
	out := make([]byte, 0, len(input))
	pos := 0
	for pos < len(input) {
		matchStart := m.auto.Find(lowered, pos)
		if matchStart == nil {
			if len(out)+len(input)-pos > MaxCanonicalBytes {
				return nil, ErrBufferOverflow
			}
			out = append(out, input[pos:]...)
			break
		}
		start := matchStart.Start
		if start > pos {
			span := start - pos
			if len(out)+span > MaxCanonicalBytes {
				return nil, ErrBufferOverflow
			}
			out = append(out, input[pos:start]...)
			pos = start
		}
		ruleIdx := m.bestMatchAt(lowered, pos)
		if ruleIdx < 0 {
			// Automaton found a candidate start but the precise
			// longest-match check disagrees (can happen for overlapping
			// patterns where the automaton reports the earliest possible
			// site); fall back to copying one byte and retrying.
			if len(out)+1 > MaxCanonicalBytes {
				return nil, ErrBufferOverflow
			}
			out = append(out, input[pos])
			pos++
			continue
		}
		rule := m.rules[ruleIdx]
		if len(out)+len(rule.Canonical) > MaxCanonicalBytes {
			return nil, ErrBufferOverflow
		}
		out = append(out, rule.Canonical...)
		pos += len(rule.Encoded)
	}
	return out, nil
}

func foldCase(b []byte) {
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
}

func isFoldSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func foldWhitespace(b []byte) []byte {
	out := make([]byte, 0, len(b))
	i := 0
	for i < len(b) {
		if isFoldSpace(b[i]) {
			out = append(out, ' ')
			for i < len(b) && isFoldSpace(b[i]) {
				i++
			}
			continue
		}
		out = append(out, b[i])
		i++
	}
	return out
}

// Equivalent reports whether s1 and s2 canonicalize to the same bytes under
// the default configuration. This is the operational meaning of Zero Trust:
// two byte strings are interchangeable to the engine exactly when
// Equivalent reports true.
func Equivalent(s1, s2 []byte) bool {
	return EquivalentWith(s1, s2, DefaultConfig())
}

// EquivalentWith is Equivalent under a caller-supplied configuration.
func EquivalentWith(s1, s2 []byte, cfg Config) bool {
	b1, err1 := Normalize(s1, cfg)
	b2, err2 := Normalize(s2, cfg)
	if err1 != nil || err2 != nil {
		// Two inputs that fail to normalize the same way are equivalent
		// regardless of length: reflexivity must hold for any s, including
		// non-empty inputs that deterministically overflow or reject.
		return err1 == err2
	}
	if b1.Length != b2.Length {
		return false
	}
	for i := range b1.Bytes {
		if b1.Bytes[i] != b2.Bytes[i] {
			return false
		}
	}
	return true
}
