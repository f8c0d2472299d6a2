package engine

import (
	"strconv"

	"github.com/obinexus/obiengine/governance"
)

// BatchResult pairs one input's Result with the error Admit returned for
// it, so a batch outcome can be inspected item-by-item.
type BatchResult struct {
	Result *Result
	Err    error
}

// AdmitBatch runs Admit over every input independently and returns a
// result/error pair per input, in order. A rejection for one input never
// aborts the batch.
func (e *EngineInstance) AdmitBatch(inputs [][]byte) []BatchResult {
	out := make([]BatchResult, len(inputs))
	for i, in := range inputs {
		res, err := e.Admit(in)
		out[i] = BatchResult{Result: res, Err: err}
	}
	return out
}

// AdmitBatchStrict wraps AdmitBatch with the teacher's strict-resolution
// semantics: any rejection, or any admission that crossed into the warning
// zone, fails the whole batch. Modeled on resolver.ResolveStrict, which
// layers "no ambiguity" enforcement over a lenient base resolution rather
// than reimplementing it.
func (e *EngineInstance) AdmitBatchStrict(inputs [][]byte) ([]*Result, error) {
	base := e.AdmitBatch(inputs)
	out := make([]*Result, 0, len(base))
	for i, br := range base {
		if br.Err != nil {
			return nil, br.Err
		}
		if br.Result.Zone != governance.ZoneAutonomous {
			return nil, &strictZoneError{index: i, zone: br.Result.Zone}
		}
		out = append(out, br.Result)
	}
	return out, nil
}

type strictZoneError struct {
	index int
	zone  governance.Zone
}

func (e *strictZoneError) Error() string {
	return "engine: strict batch admission rejected input at index " + strconv.Itoa(e.index) + ": zone=" + string(e.zone)
}
