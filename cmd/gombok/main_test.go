package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhump/gombok/internal/config"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cfg, err := config.LoadEnv(map[string]string{})
	require.NoError(t, err)
	var stdout, stderr bytes.Buffer
	root := newRootCommand(cfg, &stdout, &stderr)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeModule(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/demo\n\ngo 1.21\n"), 0644))
	for name, contents := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644))
	}
	return dir
}

const serviceSource = `package demo

// Service does things.
//
// @gombok.Perf4jAware
type Service struct {
	name string
}
`

const metricsYAML = `
providers:
  - name: metrics
    annotation: MetricsAware
    type: example.com/metrics.Recorder
    default: example.com/metrics.NopRecorder
    factory: Nop
    methods:
      - name: Count
        params:
          - {name: key, type: string}
`

func TestProvidersCommand(t *testing.T) {
	defs := filepath.Join(t.TempDir(), "metrics.yaml")
	require.NoError(t, os.WriteFile(defs, []byte(metricsYAML), 0644))

	out, _, err := run(t, "providers", "--providers", defs)
	require.NoError(t, err)
	assert.Contains(t, out, "perf4j")
	assert.Contains(t, out, "@gombok.Perf4jAware")
	assert.Contains(t, out, "WithStopwatch, WithStopwatchTagged")
	assert.Contains(t, out, "metrics")
	assert.Contains(t, out, "@gombok.MetricsAware")
	assert.Contains(t, out, "example.com/metrics.NopRecorder.Nop()")
}

func TestPlanCommand(t *testing.T) {
	dir := writeModule(t, map[string]string{"demo.go": serviceSource})

	out, _, err := run(t, "plan", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "# example.com/demo\n")
	assert.Contains(t, out, "Service:\n")
	assert.Contains(t, out, "SetPerf4jProvider")
	assert.Contains(t, out, "WithStopwatchTagged")

	data, err := os.ReadFile(filepath.Join(dir, "demo.go"))
	require.NoError(t, err)
	assert.Equal(t, serviceSource, string(data), "plan must not modify sources")
	assert.NoFileExists(t, filepath.Join(dir, "demo_gombok.go"))
}

func TestGenerateCommand(t *testing.T) {
	dir := writeModule(t, map[string]string{"demo.go": serviceSource})
	outDir := t.TempDir()

	out, _, err := run(t, "generate", "-C", dir, "--output-dir", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 2 file(s)")

	gen, err := os.ReadFile(filepath.Join(outDir, "example.com", "demo", "demo_gombok.go"))
	require.NoError(t, err)
	assert.Contains(t, string(gen), "// Code generated by gombok. DO NOT EDIT.")
	assert.Contains(t, string(gen), "func (s *Service) SetPerf4jProvider(")

	src, err := os.ReadFile(filepath.Join(outDir, "example.com", "demo", "demo.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "perf4jProvider perf4j.Provider")
}

func TestGenerateCommand_NothingAnnotated(t *testing.T) {
	dir := writeModule(t, map[string]string{"demo.go": "package demo\n\ntype Plain struct{}\n"})

	out, _, err := run(t, "generate", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "no annotated types found")
	assert.NoFileExists(t, filepath.Join(dir, "demo_gombok.go"))
}

func TestCommandErrors(t *testing.T) {
	_, _, err := run(t, "providers", "--log-level", "shouting")
	assert.ErrorContains(t, err, `invalid log level "shouting"`)

	_, _, err = run(t, "providers", "--providers", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to load provider definitions")

	dir := writeModule(t, map[string]string{"demo.go": `package demo

// @gombok.ProviderAware{Provider: "tracing"}
type Service struct{}
`})
	_, _, err = run(t, "generate", "-C", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "demo.go:3:")
	assert.Contains(t, errors.GetAllHints(err), "provider definitions can be loaded with --providers")

	_, _, err = run(t, "providers", "extra")
	assert.Error(t, err)
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, errors.WithHint(errors.New("it broke"), "try again"))
	assert.Contains(t, buf.String(), "it broke")
	assert.Contains(t, buf.String(), "try again")
}

func TestPackageDirs(t *testing.T) {
	dir := writeModule(t, map[string]string{"demo.go": serviceSource})
	a := &app{cfg: &config.Config{}, dir: dir}
	cfg := a.loaderConfig([]string{"./..."})
	contexts, err := cfg.Load(context.Background())
	require.NoError(t, err)
	dirs := packageDirs(contexts)
	require.Contains(t, dirs, "example.com/demo")
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(dirs["example.com/demo"])
	require.NoError(t, err)
	assert.Equal(t, resolved, got)
}
