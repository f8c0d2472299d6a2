// Package specexport renders an engine.Spec to the on-disk formats an
// operator or a downstream tool can consume: YAML, JSON, and a fingerprint
// digest for change detection.
//
// Grounded on the teacher's keys.digestFor: a small switch over named hash
// algorithms returning a raw digest, reused here to fingerprint an exported
// spec instead of a signed message.
package specexport

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/sha3"
	"gopkg.in/yaml.v3"

	"github.com/obinexus/obiengine/engine"
	"github.com/obinexus/obiengine/rejection"
)

// Format names a supported export encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Export renders spec in the requested format. FormatCHeader from the
// original design notes (a C struct literal for embedding the grammar in a
// native caller) is intentionally unimplemented: no component in scope
// consumes C headers, and fabricating one without a concrete consumer would
// be speculative rather than grounded.
func Export(spec *engine.Spec, format Format) ([]byte, error) {
	if spec == nil {
		return nil, rejection.New(rejection.ReasonInvalidInput, "specexport: nil spec")
	}
	switch format {
	case FormatYAML:
		return yaml.Marshal(spec)
	case FormatJSON:
		return json.MarshalIndent(spec, "", "  ")
	default:
		return nil, rejection.New(rejection.ReasonUnsupportedFormat,
			fmt.Sprintf("specexport: unsupported format %q", format))
	}
}

// digestFor returns the raw digest of message under one of two supported
// algorithms. A spec fingerprint only needs to be stable and collision
// resistant, not signed, so this mirrors keys.digestFor's two non-legacy
// cases rather than the teacher's full signing-oriented set.
func digestFor(hashAlg string, message []byte) ([]byte, error) {
	switch hashAlg {
	case "sha256":
		s := sha256.Sum256(message)
		return s[:], nil
	case "sha3-256":
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, fmt.Errorf("specexport: unsupported fingerprint algorithm %q", hashAlg)
	}
}

// Fingerprint returns a hex-encoded sha3-256 digest of spec's canonical
// JSON rendering, letting an operator detect a drifted grammar without a
// byte-for-byte diff.
func Fingerprint(spec *engine.Spec) (string, error) {
	b, err := Export(spec, FormatJSON)
	if err != nil {
		return "", err
	}
	digest, err := digestFor("sha3-256", b)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(digest), nil
}
