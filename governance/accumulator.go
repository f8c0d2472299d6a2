// Package governance implements the Sinphasé cost accumulator that bounds
// admission complexity.
//
// Modeled on the teacher's ComplianceMode: a small, explicit, engine-wide
// posture (there: Permissive/Strict threaded through every resolver
// decision; here: the accumulated-cost zone threaded through every DFA
// transition) rather than a scattered collection of ad-hoc thresholds.
package governance

import "fmt"

// Zone names where an accumulated cost falls relative to the two
// thresholds.
type Zone string

const (
	ZoneAutonomous Zone = "autonomous" // cost <= 0.5: admitted silently
	ZoneWarning    Zone = "warning"    // 0.5 < cost <= 0.6: admitted, flagged
	ZoneGovernance Zone = "governance" // cost > 0.6: rejected
)

const (
	// CostThreshold is the upper bound of the warning zone; above it,
	// admission is rejected with BudgetExceeded.
	CostThreshold = 0.6
	// WarningThreshold is the upper bound of the autonomous zone; above
	// it (and at or below CostThreshold), admission proceeds but the
	// engine flags a warning for observability.
	WarningThreshold = 0.5
)

// Accumulator is a monotonic, non-negative cost counter for one admission.
type Accumulator struct {
	cost    float64
	warned  bool
	metrics Recorder
}

// New returns a zero-cost accumulator. A nil Recorder disables metrics.
func New(metrics Recorder) *Accumulator {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &Accumulator{metrics: metrics}
}

// Reset zeroes the accumulator for reuse across admissions on the same
// EngineInstance.
func (a *Accumulator) Reset() {
	a.cost = 0
	a.warned = false
}

// Prelude adds the structural cost charged once per admission at
// initialization: 0.01*states + 0.005*transitions + (0.05 if zt).
func (a *Accumulator) Prelude(states, transitions int, zt bool) {
	c := 0.01*float64(states) + 0.005*float64(transitions)
	if zt {
		c += 0.05
	}
	a.add(c)
}

// matchLengthUnit is the byte count one unit of "match length" represents
// in the cost formula. The spec states the per-transition increment as
// cost_weight + 0.1*match_length; taken as a literal byte count that term
// alone would push a single 64-byte security-token match (0.1*64 = 6.4)
// far past the 0.6 governance ceiling, making every realistic message
// ungovernable and contradicting the spec's own happy-path claim of
// cost <= 0.5 for a full protocol message. Measuring match_length in units
// of 1000 bytes keeps the formula's literal shape while matching both the
// happy-path bound and the budget-exhaustion scenario's requirement that it
// take several (>= 7) transitions, or matches approaching the 8192-byte
// cap, to cross the ceiling. See DESIGN.md.
const matchLengthUnit = 1000.0

// AddTransition charges a DFA transition's cost: its declared weight plus
// 0.1 per matchLengthUnit of bytes matched.
func (a *Accumulator) AddTransition(weight float64, matchLength int) {
	a.add(weight + 0.1*(float64(matchLength)/matchLengthUnit))
}

func (a *Accumulator) add(delta float64) {
	if delta < 0 {
		// Accumulated cost is monotonically non-decreasing; a negative
		// delta would violate that invariant outright.
		panic(fmt.Sprintf("governance: negative cost delta %v", delta))
	}
	a.cost += delta
}

// Cost returns the current accumulated cost.
func (a *Accumulator) Cost() float64 {
	if a == nil {
		return 0
	}
	return a.cost
}

// CurrentZone classifies the accumulator's current cost.
func (a *Accumulator) CurrentZone() Zone {
	return ZoneFor(a.Cost())
}

// ZoneFor classifies a cost value into its governance zone.
func ZoneFor(cost float64) Zone {
	switch {
	case cost > CostThreshold:
		return ZoneGovernance
	case cost > WarningThreshold:
		return ZoneWarning
	default:
		return ZoneAutonomous
	}
}

// CheckAndRecord evaluates the current zone, records metrics for it, and
// reports whether admission may continue (false in the governance zone).
func (a *Accumulator) CheckAndRecord() bool {
	zone := a.CurrentZone()
	switch zone {
	case ZoneWarning:
		if !a.warned {
			a.warned = true
			a.metrics.ObserveWarning(a.cost)
		}
	case ZoneGovernance:
		a.metrics.ObserveRejection("BudgetExceeded")
		return false
	}
	return true
}

// Warned reports whether this admission crossed into the warning zone.
func (a *Accumulator) Warned() bool {
	return a.warned
}
