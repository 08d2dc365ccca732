package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/reqlgate/internal/failure"
	"github.com/roach88/reqlgate/internal/store"
)

// Scenario defines a gateway scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps are executed in order, each with its own mocked connection.
	Steps []Step `yaml:"steps"`

	// Assertions validate the execution history after all steps ran.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one query and the server behaviour it meets.
type Step struct {
	// Query is the REQL chain text.
	Query string `yaml:"query"`

	// Respond is returned by the mocked server.
	Respond any `yaml:"respond,omitempty"`

	// ServerError makes the server reject the query with this message.
	ServerError string `yaml:"server_error,omitempty"`

	// ConnectionClosed makes the connection drop while running.
	ConnectionClosed bool `yaml:"connection_closed,omitempty"`

	// DialError makes the dial fail with this message.
	DialError string `yaml:"dial_error,omitempty"`

	// Expect validates the step outcome. If nil, no validation is performed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Status is "ok" or a failure kind such as AUTH_FAILED.
	Status string `yaml:"status"`

	// Documents is the expected number of result documents.
	Documents *int `yaml:"documents,omitempty"`

	// Message must be a substring of the failure message.
	Message string `yaml:"message,omitempty"`
}

// Assertion validates the history after the run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Status and Count are used by status_count.
	Status string `yaml:"status,omitempty"`
	Count  int    `yaml:"count,omitempty"`

	// Steps lists 0-based step indexes (same_fingerprint).
	Steps []int `yaml:"steps,omitempty"`

	// Step and Document are used by contains_document. Document is a
	// subset match.
	Step     int            `yaml:"step,omitempty"`
	Document map[string]any `yaml:"document,omitempty"`
}

// Assertion type constants.
const (
	AssertStatusCount      = "status_count"
	AssertSameFingerprint  = "same_fingerprint"
	AssertContainsDocument = "contains_document"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "expects:" vs "expect:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Query == "" {
			return fmt.Errorf("steps[%d]: query is required", i)
		}
		behaviours := 0
		if step.ServerError != "" {
			behaviours++
		}
		if step.ConnectionClosed {
			behaviours++
		}
		if step.DialError != "" {
			behaviours++
		}
		if behaviours > 1 {
			return fmt.Errorf("steps[%d]: server_error, connection_closed and dial_error are mutually exclusive", i)
		}
		if behaviours > 0 && step.Respond != nil {
			return fmt.Errorf("steps[%d]: respond cannot be combined with a failure", i)
		}
		if step.Expect != nil {
			if err := validateStatus(step.Expect.Status); err != nil {
				return fmt.Errorf("steps[%d].expect: %w", i, err)
			}
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], len(s.Steps)); err != nil {
			return err
		}
	}

	return nil
}

func validateStatus(status string) error {
	if status == store.StatusOK {
		return nil
	}
	for _, k := range failure.Kinds {
		if status == string(k) {
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", status)
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertStatusCount:
		if err := validateStatus(a.Status); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for status_count", index)
		}
	case AssertSameFingerprint:
		if len(a.Steps) < 2 {
			return fmt.Errorf("assertions[%d]: same_fingerprint needs at least two steps", index)
		}
		for _, s := range a.Steps {
			if s < 0 || s >= steps {
				return fmt.Errorf("assertions[%d]: step %d out of range", index, s)
			}
		}
	case AssertContainsDocument:
		if a.Step < 0 || a.Step >= steps {
			return fmt.Errorf("assertions[%d]: step %d out of range", index, a.Step)
		}
		if len(a.Document) == 0 {
			return fmt.Errorf("assertions[%d]: document is required for contains_document", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
