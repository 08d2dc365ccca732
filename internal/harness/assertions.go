package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/reqlgate/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string      // Assertion type for categorization
	Expected string      // Human-readable expected outcome
	Actual   string      // Human-readable actual outcome
	Trace    []StepTrace // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, step := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s -> %s\n", step.Step, step.Query, step.Status)
	}

	return buf.String()
}

func evaluateAssertion(a Assertion, result *Result) error {
	switch a.Type {
	case AssertStatusCount:
		return assertStatusCount(result, a)
	case AssertSameFingerprint:
		return assertSameFingerprint(result, a)
	case AssertContainsDocument:
		return assertContainsDocument(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertStatusCount checks the number of recorded executions with a status.
func assertStatusCount(result *Result, a Assertion) error {
	got := result.Counts[a.Status]
	if got == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertStatusCount,
		Expected: fmt.Sprintf("%d executions with status %s", a.Count, a.Status),
		Actual:   fmt.Sprintf("%d", got),
		Trace:    result.Trace,
	}
}

// assertSameFingerprint checks that the listed steps parsed to equal
// descriptors.
func assertSameFingerprint(result *Result, a Assertion) error {
	first := result.Trace[a.Steps[0]].Fingerprint
	for _, s := range a.Steps[1:] {
		fp := result.Trace[s].Fingerprint
		if fp == "" || fp != first {
			return &AssertionError{
				Type:     AssertSameFingerprint,
				Expected: fmt.Sprintf("step %d fingerprint %q", s, first),
				Actual:   fmt.Sprintf("%q", fp),
				Trace:    result.Trace,
			}
		}
	}
	return nil
}

// assertContainsDocument checks that a step's result has a document whose
// fields include every field of a.Document.
func assertContainsDocument(result *Result, a Assertion) error {
	for _, doc := range result.Trace[a.Step].Documents {
		if matchSubset(doc, a.Document) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertContainsDocument,
		Expected: fmt.Sprintf("step %d contains %v", a.Step, a.Document),
		Actual:   fmt.Sprintf("%v", result.Trace[a.Step].Documents),
		Trace:    result.Trace,
	}
}

// matchSubset compares through the IR so that 3 from YAML equals 3.0 from
// the driver.
func matchSubset(doc any, expected map[string]any) bool {
	m, ok := doc.(map[string]any)
	if !ok {
		return false
	}
	for key, want := range expected {
		got, present := m[key]
		if !present {
			return false
		}
		wantIR, err := ir.FromNative(want)
		if err != nil {
			return false
		}
		gotIR, err := ir.FromNative(got)
		if err != nil {
			return false
		}
		if !ir.Equal(wantIR, gotIR) {
			return false
		}
	}
	return true
}
