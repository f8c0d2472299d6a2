//go:build property
// +build property

package uscn_test

import (
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/obinexus/obiengine/uscn"
)

// TestNormalize_Idempotent verifies normalize(normalize(x)) == normalize(x)
// for arbitrary alphabetic strings, the core USCN totality/idempotence guarantee.
func TestNormalize_Idempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Normalize is idempotent", prop.ForAll(
		func(s string) bool {
			cfg := uscn.DefaultConfig()
			once, err := uscn.Normalize([]byte(s), cfg)
			if err != nil {
				return true // non-normalizable inputs are out of scope for this law
			}
			twice, err := uscn.Normalize(once.Bytes, cfg)
			if err != nil {
				return false // a canonical buffer must always re-normalize cleanly
			}
			return bytes.Equal(once.Bytes, twice.Bytes)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// TestEquivalent_Reflexive verifies Equivalent(x, x) for any x.
func TestEquivalent_Reflexive(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Equivalent is reflexive", prop.ForAll(
		func(s string) bool {
			b := []byte(s)
			return uscn.Equivalent(b, b)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// TestEquivalent_Symmetric verifies Equivalent(a, b) == Equivalent(b, a).
func TestEquivalent_Symmetric(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Equivalent is symmetric", prop.ForAll(
		func(a, b string) bool {
			return uscn.Equivalent([]byte(a), []byte(b)) == uscn.Equivalent([]byte(b), []byte(a))
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// TestEquivalent_TransitiveOverCaseAndWhitespaceVariants verifies that
// Equivalent composes transitively across case-folding and whitespace-fold
// variants of the same underlying word sequence, the two relations USCN is
// actually meant to quotient over.
func TestEquivalent_TransitiveOverCaseAndWhitespaceVariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Equivalent is transitive across case/whitespace variants", prop.ForAll(
		func(words []string) bool {
			if len(words) == 0 {
				return true
			}
			lower := joinWith(words, " ")
			upper := joinWith(upperAll(words), "  ")
			tabbed := joinWith(words, "\t")

			a, b, c := []byte(lower), []byte(upper), []byte(tabbed)
			if !uscn.Equivalent(a, b) || !uscn.Equivalent(b, c) {
				return true // fixture pair happened not to be equivalent; not a counterexample
			}
			return uscn.Equivalent(a, c)
		},
		gen.SliceOfN(4, gen.AlphaString()),
	))

	properties.TestingRun(t)
}

func joinWith(words []string, sep string) string {
	out := ""
	for i, w := range words {
		if i > 0 {
			out += sep
		}
		out += w
	}
	return out
}

func upperAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = toUpperASCII(w)
	}
	return out
}

func toUpperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 32
		}
	}
	return string(b)
}
