package engine

import (
	"github.com/obinexus/obiengine/dfa"
	"github.com/obinexus/obiengine/governance"
	"github.com/obinexus/obiengine/uscn"
)

// ProtocolVersion and SchemaVersion identify the wire protocol and the
// exported spec document's own shape, independent of each other: a future
// engine could add a new pattern (bumping SchemaVersion) without the wire
// grammar itself changing (ProtocolVersion).
const (
	ProtocolVersion = "1.0"
	SchemaVersion   = "1.0"
)

// Spec is a snapshot of one engine's running configuration and registered
// grammar, suitable for export via the specexport package. It exists so an
// operator can audit exactly what a deployed engine will admit without
// re-deriving it from source. The field set and every json/yaml tag here
// are the exact top-level keys spec.md §6's serialized DFA specification
// mandates.
type Spec struct {
	ProtocolVersion          string                 `json:"protocol_version" yaml:"protocol_version"`
	SchemaVersion            string                 `json:"schema_version" yaml:"schema_version"`
	ZeroTrustEnforced        bool                   `json:"zero_trust_enforced" yaml:"zero_trust_enforced"`
	USCNNormalizationEnabled bool                   `json:"uscn_normalization_enabled" yaml:"uscn_normalization_enabled"`
	Governance               GovernanceSpec         `json:"governance" yaml:"governance"`
	USCNMappings             []USCNMappingSpec      `json:"uscn_mappings" yaml:"uscn_mappings"`
	States                   []dfa.StateExport      `json:"states" yaml:"states"`
	TransitionMatrix         []dfa.TransitionExport `json:"transition_matrix" yaml:"transition_matrix"`
}

// GovernanceSpec carries the Sinphasé zone boundaries. Note the naming
// mismatch with governance.CostThreshold/governance.WarningThreshold: this
// package names its constants by what they gate (CostThreshold = 0.6, the
// point past which cost is rejected outright; WarningThreshold = 0.5, the
// point past which a silent admission starts carrying a warning), while
// spec.md §6 names the exported fields the other way around
// (cost_threshold = 0.5, warning_threshold = 0.6). The exported field
// values below follow spec.md's literal external contract, not this
// package's internal naming.
type GovernanceSpec struct {
	CostThreshold    float64 `json:"cost_threshold" yaml:"cost_threshold"`
	WarningThreshold float64 `json:"warning_threshold" yaml:"warning_threshold"`
}

// USCNMappingSpec is one exported EncodingRule: the encoded/canonical pair
// and its risk classification.
type USCNMappingSpec struct {
	Encoded      string `json:"encoded" yaml:"encoded"`
	Canonical    string `json:"canonical" yaml:"canonical"`
	SecurityRisk string `json:"security_risk" yaml:"security_risk"`
}

// ExportSpec snapshots the engine's current configuration, encoding map,
// and compiled grammar.
func (e *EngineInstance) ExportSpec() *Spec {
	if e == nil {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := uscn.DefaultEncodingRules()
	mappings := make([]USCNMappingSpec, 0, len(rules))
	for _, r := range rules {
		mappings = append(mappings, USCNMappingSpec{
			Encoded:      string(r.Encoded),
			Canonical:    string(r.Canonical),
			SecurityRisk: string(r.Risk),
		})
	}

	return &Spec{
		ProtocolVersion:          ProtocolVersion,
		SchemaVersion:            SchemaVersion,
		ZeroTrustEnforced:        e.cfg.ZeroTrust,
		USCNNormalizationEnabled: true, // Admit always normalizes before admission; this is the engine's Zero-Trust guarantee, not a togglable feature
		Governance: GovernanceSpec{
			CostThreshold:    governance.WarningThreshold,
			WarningThreshold: governance.CostThreshold,
		},
		USCNMappings:     mappings,
		States:           dfa.ExportStates(e.registry),
		TransitionMatrix: dfa.ExportTransitionMatrix(e.registry),
	}
}
