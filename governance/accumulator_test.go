package governance

import "testing"

func TestAccumulator_PreludeAndZones(t *testing.T) {
	a := New(nil)
	a.Prelude(8, 8, true)
	if got := a.Cost(); got <= 0 {
		t.Fatalf("expected positive prelude cost, got %v", got)
	}
	if a.CurrentZone() != ZoneAutonomous {
		t.Fatalf("expected autonomous zone after small prelude, got %s", a.CurrentZone())
	}
}

func TestAccumulator_MonotonicNonNegative(t *testing.T) {
	a := New(nil)
	a.AddTransition(0.05, 10)
	first := a.Cost()
	a.AddTransition(0.05, 10)
	if a.Cost() <= first {
		t.Fatalf("cost did not increase monotonically: %v -> %v", first, a.Cost())
	}
}

func TestAccumulator_NegativeDeltaPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on negative cost delta")
		}
	}()
	a := New(nil)
	a.add(-1)
}

func TestZoneFor_Thresholds(t *testing.T) {
	cases := []struct {
		cost float64
		want Zone
	}{
		{0, ZoneAutonomous},
		{0.5, ZoneAutonomous},
		{0.50001, ZoneWarning},
		{0.6, ZoneWarning},
		{0.60001, ZoneGovernance},
		{10, ZoneGovernance},
	}
	for _, c := range cases {
		if got := ZoneFor(c.cost); got != c.want {
			t.Fatalf("ZoneFor(%v) = %s, want %s", c.cost, got, c.want)
		}
	}
}

type spyRecorder struct {
	warnings   int
	admitted   int
	rejections []string
}

func (s *spyRecorder) ObserveWarning(float64)  { s.warnings++ }
func (s *spyRecorder) ObserveAdmitted(float64) { s.admitted++ }
func (s *spyRecorder) ObserveRejection(reason string) {
	s.rejections = append(s.rejections, reason)
}

func TestCheckAndRecord_WarningLatchesOnce(t *testing.T) {
	spy := &spyRecorder{}
	a := New(spy)
	a.add(0.55)
	if !a.CheckAndRecord() {
		t.Fatalf("expected CheckAndRecord to allow admission in the warning zone")
	}
	if !a.CheckAndRecord() {
		t.Fatalf("expected repeated CheckAndRecord calls to keep allowing admission in the warning zone")
	}
	if spy.warnings != 1 {
		t.Fatalf("expected exactly one warning observation, got %d", spy.warnings)
	}
	if !a.Warned() {
		t.Fatalf("expected Warned() to report true")
	}
}

func TestCheckAndRecord_GovernanceRejects(t *testing.T) {
	spy := &spyRecorder{}
	a := New(spy)
	a.add(0.61)
	if a.CheckAndRecord() {
		t.Fatalf("expected CheckAndRecord to reject admission above threshold")
	}
	if len(spy.rejections) != 1 || spy.rejections[0] != "BudgetExceeded" {
		t.Fatalf("expected one BudgetExceeded rejection, got %v", spy.rejections)
	}
}

func TestAccumulator_NilCostIsZero(t *testing.T) {
	var a *Accumulator
	if a.Cost() != 0 {
		t.Fatalf("expected nil accumulator Cost() == 0")
	}
}

func TestAccumulator_Reset(t *testing.T) {
	a := New(nil)
	a.add(0.3)
	a.Reset()
	if a.Cost() != 0 {
		t.Fatalf("expected Reset to zero cost")
	}
	if a.Warned() {
		t.Fatalf("expected Reset to clear warned flag")
	}
}
