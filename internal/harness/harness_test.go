package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reqlgate/internal/store"
)

func TestScenarios_Golden(t *testing.T) {
	for _, name := range []string{"authors_crud", "failures"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_HistoryCounts(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/failures.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	// Parse failures never reach the executor, so they are not recorded.
	assert.Equal(t, map[string]int{
		"AUTH_FAILED":       1,
		"CONNECTION_FAILED": 2,
		"SERVER_REJECTED":   1,
	}, result.Counts)
}

func TestRun_PasswordNeverInTrace(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/failures.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	for _, step := range result.Trace {
		assert.NotContains(t, step.Message, Params.Password.Reveal())
	}
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	docs := 2
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "expectations that do not hold",
		Steps: []Step{
			{Query: "db('test').table('a')", Respond: []any{map[string]any{"id": 1}}, Expect: &Expect{Status: store.StatusOK, Documents: &docs}},
			{Query: "db('test').table('a')", DialError: "connection refused", Expect: &Expect{Status: store.StatusOK}},
		},
		Assertions: []Assertion{
			{Type: AssertStatusCount, Status: store.StatusOK, Count: 2},
			{Type: AssertContainsDocument, Step: 0, Document: map[string]any{"id": 2}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 4)
}

func TestRun_SameFingerprintDetectsDifference(t *testing.T) {
	scenario := &Scenario{
		Name:        "different",
		Description: "different chains",
		Steps: []Step{
			{Query: "db('test').table('a')"},
			{Query: "db('test').table('b')"},
		},
		Assertions: []Assertion{{Type: AssertSameFingerprint, Steps: []int{0, 1}}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "same_fingerprint")
}

func TestLoadScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"missing name", "description: d\nsteps: [{query: \"db('t')\"}]\n", "name is required"},
		{"missing steps", "name: n\ndescription: d\n", "steps list"},
		{"unknown field", "name: n\ndescription: d\nstep: []\n", "field step not found"},
		{"unknown status", "name: n\ndescription: d\nsteps: [{query: \"db('t')\", expect: {status: NOPE}}]\n", "unknown status"},
		{"two failures", "name: n\ndescription: d\nsteps: [{query: \"db('t')\", dial_error: x, server_error: y}]\n", "mutually exclusive"},
		{"bad assertion", "name: n\ndescription: d\nsteps: [{query: \"db('t')\"}]\nassertions: [{type: same_fingerprint, steps: [0, 5]}]\n", "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scenario.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadScenario(path)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
