package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/surcharge/aggregate"
	"github.com/jonwraymond/surcharge/stress"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := newApp(&stdout, &stderr).Run(context.Background(), append([]string{"surcharge"}, args...))
	return stdout.String(), err
}

func parseProfileCSV(t *testing.T, data string) (zs, sigmas []float64) {
	t.Helper()
	records, err := csv.NewReader(bytes.NewBufferString(data)).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, aggregate.ProfileHeader, records[0])
	for _, rec := range records[1:] {
		z, err := strconv.ParseFloat(rec[0], 64)
		require.NoError(t, err)
		s, err := strconv.ParseFloat(rec[1], 64)
		require.NoError(t, err)
		zs = append(zs, z)
		sigmas = append(sigmas, s)
	}
	return zs, sigmas
}

func TestCircle_OnAxis(t *testing.T) {
	dir := t.TempDir()
	out, err := runApp(t, "--cache-dir", dir, "--log-level", "error",
		"circle", "--q", "100", "--radius", "2", "--depths", "4,2")
	require.NoError(t, err)

	zs, sigmas := parseProfileCSV(t, out)
	assert.Equal(t, []float64{2, 4}, zs)
	assert.InDelta(t, 64.645, sigmas[0], 1e-3)
	assert.InDelta(t, 28.45, sigmas[1], 1e-2)

	files, err := filepath.Glob(filepath.Join(dir, "circular-profile_*.npz"))
	require.NoError(t, err)
	assert.Len(t, files, 1)

	again, err := runApp(t, "--cache-dir", dir, "--log-level", "error",
		"circle", "--q", "100", "--radius", "2", "--depths", "2,4")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestCircle_Sweep(t *testing.T) {
	out, err := runApp(t, "--memory-only", "--log-level", "error",
		"circle", "--q", "50", "--radius", "1", "--x", "3", "--zmin", "1", "--zmax", "3", "--nz", "3")
	require.NoError(t, err)

	zs, sigmas := parseProfileCSV(t, out)
	assert.Equal(t, []float64{1, 2, 3}, zs)
	for _, s := range sigmas {
		assert.Greater(t, s, 0.0)
		assert.Less(t, s, 50.0)
	}
}

func TestCircle_InvalidInput(t *testing.T) {
	_, err := runApp(t, "--memory-only", "--log-level", "error",
		"circle", "--q", "100", "--radius=-1")
	assert.Error(t, err)

	_, err = runApp(t, "--memory-only", "--log-level", "error",
		"circle", "--q", "100", "--radius", "1", "--nz=-3")
	var verr *stress.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, -3, verr.Value)
}

func TestRect_SummaryAndProfile(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(t.TempDir(), "profile.csv")

	out, err := runApp(t, "--cache-dir", dir, "--log-level", "error",
		"rect", "--q", "100", "--lx", "2", "--ly", "2",
		"--nx", "5", "--ny", "5", "--nz", "4",
		"--profile-x", "0", "--profile-y", "0", "--slice-y", "0",
		"--csv", csvPath)
	require.NoError(t, err)

	var summary aggregate.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "rectangular", summary.Load.Kind)
	assert.Equal(t, 100, summary.Points)
	assert.Equal(t, -2.0, summary.Grid.XMin)
	assert.Equal(t, 4.0, summary.Grid.ZMax)
	assert.Equal(t, []string{"profile@x=0,y=0", "xz@y=0"}, summary.Views)
	assert.Greater(t, summary.SigmaMax, 0.0)
	assert.Less(t, summary.SigmaMax, 100.0)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	_, sigmas := parseProfileCSV(t, string(data))
	require.Len(t, sigmas, 4)
	assert.IsDecreasing(t, sigmas[1:])

	files, err := filepath.Glob(filepath.Join(dir, "rectangular_*.npz"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestRect_CSVNeedsProfile(t *testing.T) {
	_, err := runApp(t, "--memory-only", "--log-level", "error",
		"rect", "--q", "100", "--lx", "1", "--ly", "1", "--nx", "2", "--ny", "2", "--nz", "2",
		"--csv", filepath.Join(t.TempDir(), "p.csv"))
	assert.ErrorContains(t, err, "--csv")
}

func TestHealth(t *testing.T) {
	out, err := runApp(t, "--cache-dir", t.TempDir(), "--log-level", "error", "health")
	require.NoError(t, err)

	var report struct {
		Status string `json:"status"`
		Checks []struct {
			Name string `json:"name"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "healthy", report.Status)
	require.Len(t, report.Checks, 3)
	assert.Equal(t, "disk", report.Checks[0].Name)
	assert.Equal(t, "cache", report.Checks[1].Name)
	assert.Equal(t, "memory", report.Checks[2].Name)
}

func TestHealth_MemoryOnly(t *testing.T) {
	out, err := runApp(t, "--memory-only", "--log-level", "error", "health", "--strict")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "healthy"`)
	assert.NotContains(t, out, `"name": "disk"`)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "surcharge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  gauss_order: 0\n"), 0o600))

	_, err := runApp(t, "--config", path, "health")
	assert.ErrorContains(t, err, "engine.gauss_order")
}
