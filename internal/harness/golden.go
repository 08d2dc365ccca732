package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/reqlgate/internal/ir"
)

// TraceSnapshot captures the trace of a scenario run.
type TraceSnapshot struct {
	ScenarioName string      `json:"scenario_name"`
	Trace        []StepTrace `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to plain values for canonical JSON.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, step := range s.Trace {
		stepMap := map[string]any{
			"step":   step.Step,
			"query":  step.Query,
			"status": step.Status,
		}
		if step.Term != "" {
			stepMap["term"] = step.Term
		}
		if step.Message != "" {
			stepMap["message"] = step.Message
		}
		if step.Documents != nil {
			stepMap["documents"] = step.Documents
		}
		traceList[i] = stepMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares a result's trace against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	}

	traceJSON, err := ir.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
