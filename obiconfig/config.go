// Package obiconfig loads the engine's admission policy from a JSON file.
//
// Grounded on the teacher's storage/casconfig.LoadFile: read the whole
// file, unmarshal, then run an explicit Validate pass rather than trusting
// zero-value defaults silently.
package obiconfig

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config controls how Normalize and the DFA engine treat one admission
// pipeline. The zero value is NOT valid configuration — use Default.
type Config struct {
	ZeroTrust           bool `json:"zero_trust"`
	CaseFold            bool `json:"case_fold"`
	WhitespaceFold      bool `json:"whitespace_fold"`
	StrictUTF8          bool `json:"strict_utf8"`
	MaxConsecutiveSkips int  `json:"max_consecutive_skips"`
	MetricsEnabled      bool `json:"metrics_enabled"`
}

// Default returns the spec's strict Zero-Trust posture: full canonicalization,
// strict UTF-8, and zero tolerance for unmatched bytes.
func Default() Config {
	return Config{
		ZeroTrust:           true,
		CaseFold:            true,
		WhitespaceFold:      true,
		StrictUTF8:          true,
		MaxConsecutiveSkips: 0,
		MetricsEnabled:      false,
	}
}

// LoadFile reads and validates a Config from a JSON file at path.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return Config{}, fmt.Errorf("obiconfig: empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("obiconfig: reading %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("obiconfig: parsing %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects configuration combinations the spec forbids: Zero-Trust
// mode with any tolerance for unmatched bytes defeats its own purpose, and
// skipping canonicalization steps while claiming Zero-Trust is incoherent.
func (c Config) Validate() error {
	if c.MaxConsecutiveSkips < 0 {
		return fmt.Errorf("obiconfig: max_consecutive_skips must be >= 0, got %d", c.MaxConsecutiveSkips)
	}
	if c.ZeroTrust && c.MaxConsecutiveSkips > 0 {
		return fmt.Errorf("obiconfig: zero_trust requires max_consecutive_skips == 0, got %d", c.MaxConsecutiveSkips)
	}
	if c.ZeroTrust && (!c.CaseFold || !c.WhitespaceFold) {
		return fmt.Errorf("obiconfig: zero_trust requires case_fold and whitespace_fold enabled")
	}
	return nil
}
