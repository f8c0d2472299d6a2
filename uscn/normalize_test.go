package uscn

import (
	"bytes"
	"strings"
	"testing"
)

func TestNormalize_CaseFoldAndWhitespaceFold(t *testing.T) {
	in := []byte("OBI-Protocol-1.0:  SEC:abc\t\r\n DEF")
	buf, err := Normalize(in, DefaultConfig())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := "obi-protocol-1.0: sec:abc def"
	if string(buf.Bytes) != want {
		t.Fatalf("got %q, want %q", string(buf.Bytes), want)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	in := []byte("OBI-PROTOCOL-1.0:\tSEC:XYZ  ..%2e%2e/")
	cfg := DefaultConfig()
	once, err := Normalize(in, cfg)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	twice, err := Normalize(once.Bytes, cfg)
	if err != nil {
		t.Fatalf("Normalize(Normalize(x)): %v", err)
	}
	if !bytes.Equal(once.Bytes, twice.Bytes) {
		t.Fatalf("normalization not idempotent: %q != %q", once.Bytes, twice.Bytes)
	}
}

func TestNormalize_EncodingSubstitution(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"overlong-c0af-prefers-path-traversal-canonicalization", "%c0%af", "../"},
		{"overlong-c0af-upper", "%C0%AF", "../"},
		{"mixed-encoding-dotdot-slash", "%2e%2e/", "../"},
		{"exact-dotdot-slash-2f", "%2e%2e%2f", "../"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			buf, err := Normalize([]byte(c.in), DefaultConfig())
			if err != nil {
				t.Fatalf("Normalize(%q): %v", c.in, err)
			}
			if string(buf.Bytes) != c.want {
				t.Fatalf("Normalize(%q) = %q, want %q", c.in, buf.Bytes, c.want)
			}
		})
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	if _, err := Normalize(nil, DefaultConfig()); err != ErrEmptyInput {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if _, err := Normalize([]byte{}, DefaultConfig()); err != ErrEmptyInput {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestNormalize_BufferOverflow(t *testing.T) {
	big := bytes.Repeat([]byte("a"), MaxCanonicalBytes+1)
	if _, err := Normalize(big, DefaultConfig()); err != ErrBufferOverflow {
		t.Fatalf("expected ErrBufferOverflow, got %v", err)
	}
}

func TestNormalize_StrictUTF8Rejection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StrictUTF8 = true
	bad := []byte{0x68, 0x69, 0xff, 0xfe}
	if _, err := Normalize(bad, cfg); err != ErrInvalidUTF8 {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
}

func TestEquivalent_ReflexiveSymmetric(t *testing.T) {
	a := []byte("OBI-Protocol-1.0:  SEC:abc")
	b := []byte("obi-protocol-1.0: sec:abc")
	if !Equivalent(a, a) {
		t.Fatalf("Equivalent is not reflexive")
	}
	if Equivalent(a, b) != Equivalent(b, a) {
		t.Fatalf("Equivalent is not symmetric")
	}
	if !Equivalent(a, b) {
		t.Fatalf("expected %q and %q to be equivalent", a, b)
	}
}

func TestEquivalent_ReflexiveOnDeterministicOverflow(t *testing.T) {
	// 9000 bytes of 'a' overflows MaxCanonicalBytes both times it is
	// normalized; Equivalent must still hold reflexivity for it, per
	// spec.md §8's reflexivity law over ALL byte strings, not just those
	// that normalize successfully.
	big := bytes.Repeat([]byte("a"), 9000)
	if !Equivalent(big, big) {
		t.Fatalf("Equivalent is not reflexive for a deterministically-overflowing input")
	}
}

func TestEquivalent_Transitive(t *testing.T) {
	a := []byte("A  B")
	b := []byte("a b")
	c := []byte("A\tB")
	if !Equivalent(a, b) || !Equivalent(b, c) {
		t.Fatalf("fixture inputs expected pairwise equivalent")
	}
	if !Equivalent(a, c) {
		t.Fatalf("Equivalent is not transitive: %q ~ %q ~ %q but not %q ~ %q", a, b, c, a, c)
	}
}

func TestEquivalent_NotEqual(t *testing.T) {
	if Equivalent([]byte("abc"), []byte("abd")) {
		t.Fatalf("expected distinct canonical forms to be inequivalent")
	}
}

func TestFoldWhitespace_PreservesSingleSpaces(t *testing.T) {
	out := foldWhitespace([]byte("a b  c\t\td\r\ne"))
	want := "a b c d e"
	if string(out) != want {
		t.Fatalf("foldWhitespace = %q, want %q", out, want)
	}
}

func TestAsciiLower_LeavesNonASCIIUntouched(t *testing.T) {
	in := []byte("ABC\xc3\xa9")
	got := asciiLower(in)
	if !strings.HasPrefix(string(got), "abc") {
		t.Fatalf("asciiLower = %q, want abc prefix", got)
	}
	if got[3] != in[3] || got[4] != in[4] {
		t.Fatalf("asciiLower mutated non-ASCII bytes")
	}
}
