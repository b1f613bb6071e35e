package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/copyleftdev/bioristor/internal/optimization"
	"github.com/copyleftdev/bioristor/internal/solver"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSolveCommand(t *testing.T) {
	out, err := execute(t, "solve", "-o", "json")
	require.NoError(t, err)

	var report solver.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, solver.AlgorithmAdaptive2, report.Algorithm)
	assert.InDelta(t, 0.0052, report.Solution.Variables.Concentration, 5e-4)
}

func TestSolveCommandOverrides(t *testing.T) {
	out, err := execute(t, "solve", "--algorithm", "brute_force", "--loss", "squared")
	require.NoError(t, err)

	var report solver.Report
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, solver.AlgorithmBruteForce, report.Algorithm)
	assert.Equal(t, solver.LossSquared, report.Loss)
	assert.Equal(t, 1000, report.Solution.Evaluations)
}

func TestSolveCommandProfileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("algorithm: newton\n"), 0o644))

	out, err := execute(t, "solve", "--profile", path, "-o", "json")
	require.NoError(t, err)

	var report solver.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, solver.AlgorithmNewton, report.Algorithm)
}

func TestSolveCommandDiverged(t *testing.T) {
	out, err := execute(t, "solve", "--algorithm", "gradient_descent", "-o", "json")
	require.Error(t, err)
	assert.ErrorIs(t, err, optimization.ErrDiverged)

	var est map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &est))
	assert.Equal(t, solver.AlgorithmGradientDescent, est["algorithm"])
	assert.Contains(t, est, "concentration")
	assert.Positive(t, est["iterations"])
}

func TestSolveCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unsupported algorithm", []string{"solve", "--algorithm", "simplex"}},
		{"unknown output", []string{"solve", "-o", "xml"}},
		{"missing profile", []string{"solve", "--profile", "/nonexistent/profile.yaml"}},
		{"extra argument", []string{"solve", "now"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestProfileCommand(t *testing.T) {
	out, err := execute(t, "profile")
	require.NoError(t, err)

	var p solver.Profile
	require.NoError(t, yaml.Unmarshal([]byte(out), &p))
	assert.Equal(t, solver.DefaultProfile(), p)
}

func TestProfileCommandOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")

	out, err := execute(t, "profile", "--out", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	// The saved file is a valid profile for solve.
	out, err = execute(t, "solve", "--profile", path, "-o", "json")
	require.NoError(t, err)

	var report solver.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, solver.DefaultProfile().Algorithm, report.Algorithm)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var p solver.Profile
	require.NoError(t, yaml.Unmarshal(data, &p))
	assert.Equal(t, solver.DefaultProfile(), p)
}

func TestAlgorithmsCommand(t *testing.T) {
	out, err := execute(t, "algorithms")
	require.NoError(t, err)

	assert.Contains(t, out, "ALGORITHM")
	for _, c := range solver.Algorithms() {
		assert.Contains(t, out, c.Algorithm)
	}
}
