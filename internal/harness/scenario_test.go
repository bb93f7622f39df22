package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"seed.yaml", "ref.yaml"} {
		data, err := os.ReadFile(filepath.Join("testdata", "programs", "kb_and.yaml"))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenario_ResolvesPaths(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "dce_only.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "dce_only", s.Name)
	assert.Equal(t, filepath.Join("testdata", "programs", "kb_and_dead.yaml"), s.Program)
	assert.Equal(t, filepath.Join("testdata", "programs", "kb_and.yaml"), s.Reference)
	require.NotNil(t, s.Run.Steps)
	assert.Equal(t, 0, *s.Run.Steps)
	assert.Len(t, s.Assertions, 6)
}

func TestLoadScenario_OpSetFileRelativeToScenario(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "kb_top_search.yaml"))
	require.NoError(t, err)

	set, err := s.Run.ResolveOpSet()
	require.NoError(t, err)
	assert.Equal(t, "bitwise", set.Name)
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "unknown field",
			body: "name: x\ndescription: d\nprogram: seed.yaml\nreference: ref.yaml\nassertion: []\n",
			want: "failed to parse YAML",
		},
		{
			name: "missing name",
			body: "description: d\nprogram: seed.yaml\nreference: ref.yaml\nassertions: [{type: max_ops, count: 1}]\n",
			want: "name is required",
		},
		{
			name: "missing reference",
			body: "name: x\ndescription: d\nprogram: seed.yaml\nassertions: [{type: max_ops, count: 1}]\n",
			want: "reference is required",
		},
		{
			name: "missing program file",
			body: "name: x\ndescription: d\nprogram: nope.yaml\nreference: ref.yaml\nassertions: [{type: max_ops, count: 1}]\n",
			want: "program file not found",
		},
		{
			name: "no assertions",
			body: "name: x\ndescription: d\nprogram: seed.yaml\nreference: ref.yaml\n",
			want: "assertions list is required",
		},
		{
			name: "min_score without score",
			body: "name: x\ndescription: d\nprogram: seed.yaml\nreference: ref.yaml\nassertions: [{type: min_score}]\n",
			want: "score is required for min_score",
		},
		{
			name: "unknown operator",
			body: "name: x\ndescription: d\nprogram: seed.yaml\nreference: ref.yaml\nassertions: [{type: contains_op, op: frob}]\n",
			want: `unknown operator "frob"`,
		},
		{
			name: "unknown assertion type",
			body: "name: x\ndescription: d\nprogram: seed.yaml\nreference: ref.yaml\nassertions: [{type: trace_order}]\n",
			want: `unknown assertion type "trace_order"`,
		},
		{
			name: "negative count",
			body: "name: x\ndescription: d\nprogram: seed.yaml\nreference: ref.yaml\nassertions: [{type: max_ops, count: -1}]\n",
			want: "count must be non-negative",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
