package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{
		"document_clear",
		"export_without_duty_cycling",
		"no_stopped_transition",
	} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestMarshalSnapshot_Stable(t *testing.T) {
	snap := TraceSnapshot{
		ScenarioName: "stable",
		Pass:         true,
		Trace: []TraceEvent{
			{Seq: 1, Op: "clear_all", Result: map[string]int64{"deleted": 0}},
		},
	}

	first, err := MarshalSnapshot(snap)
	require.NoError(t, err)
	second, err := MarshalSnapshot(snap)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, byte('\n'), first[len(first)-1])
	assert.NotContains(t, string(first), `"args"`)
}
