package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jdziat/simple-recurring-visits/pkg/core"
)

type testEnv struct {
	dir    string
	config string
}

func newTestEnv(t *testing.T, extra string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{dir: dir, config: filepath.Join(dir, "visits.toml")}
	env.writeConfig(t, extra)
	return env
}

func (e *testEnv) writeConfig(t *testing.T, extra string) {
	t.Helper()
	body := fmt.Sprintf(`
[database]
dsn = %q

[logging]
level = "debug"
output = %q
%s`, filepath.Join(e.dir, "visits.db"), filepath.Join(e.dir, "visits.log"), extra)
	require.NoError(t, os.WriteFile(e.config, []byte(body), 0o644))
}

func (e *testEnv) run(ctx context.Context, args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.config}, args...))
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(context.Background(), args...)
	require.NoError(t, err, out)
	return strings.TrimSpace(out)
}

const templateYAML = `
customer_id: acme-hq
assigned_to_id: tech-ana
date: 2024-12-02
groups:
  - name: Lobby
    points:
      - plant_type: Ficus
        pot_type: Ceramic
      - plant_type: Fern
points:
  - plant_type: Palm
    pot_type: Planter
`

func (e *testEnv) importTemplate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(e.dir, "template.yaml")
	require.NoError(t, os.WriteFile(path, []byte(templateYAML), 0o644))
	return e.mustRun(t, "template", "import", path)
}

func TestCommandStructure(t *testing.T) {
	root := newRootCmd()
	found := make(map[string]bool)
	for _, c := range root.Commands() {
		found[c.Name()] = true
	}
	for _, want := range []string{"version", "migrate", "pattern", "template", "preview", "generate", "serve"} {
		assert.True(t, found[want], "missing command %s", want)
	}
}

func TestVersion_NeedsNoConfig(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", "/does/not/exist.toml", "version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Version: "+Version)
}

func TestInvalidConfig(t *testing.T) {
	env := newTestEnv(t, `
[materialize]
concurrency = 0
`)
	_, err := env.run(context.Background(), "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "materialize.concurrency")
}

func TestWorkflow_ImportCreatePreviewGenerate(t *testing.T) {
	env := newTestEnv(t, "")
	assert.Equal(t, "schema up to date", env.mustRun(t, "migrate"))

	templateID := env.importTemplate(t)
	require.NotEmpty(t, templateID)

	patternID := env.mustRun(t, "pattern", "create",
		"--frequency", "weekly", "--days", "thu,mon", "--start", "2025-01-01")
	require.NotEmpty(t, patternID)

	// Preview as JSON
	out := env.mustRun(t, "preview", patternID, "--from", "2025-01-01", "-n", "3", "--json")
	var preview []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &preview))
	require.Len(t, preview, 3)
	assert.Equal(t, map[string]string{"date": "2025-01-02", "dayOfWeek": "Thursday"}, preview[0])
	assert.Equal(t, "2025-01-06", preview[1]["date"])
	assert.Equal(t, "2025-01-09", preview[2]["date"])

	// Generate
	out = env.mustRun(t, "generate", patternID, "--template", templateID, "--from", "2025-01-01", "-n", "3")
	ids := strings.Fields(out)
	require.Len(t, ids, 3)

	// Show
	out = env.mustRun(t, "pattern", "show", patternID)
	var view patternView
	require.NoError(t, yaml.Unmarshal([]byte(out), &view))
	assert.Equal(t, "weekly", view.Frequency)
	assert.Equal(t, []string{"monday", "thursday"}, view.DaysOfWeek)
	require.Len(t, view.Jobs, 3)
	for i, j := range view.Jobs {
		assert.Equal(t, ids[i], j.ID)
		assert.Equal(t, preview[i]["date"], j.Date)
		assert.Equal(t, string(core.StatusAssigned), j.Status)
	}

	// List
	out = env.mustRun(t, "pattern", "list")
	assert.Contains(t, out, patternID)
	assert.Contains(t, out, "monday,thursday")

	// A pattern with jobs cannot be deleted
	_, err := env.run(context.Background(), "pattern", "delete", patternID)
	assert.ErrorIs(t, err, core.ErrPatternInUse)

	spare := env.mustRun(t, "pattern", "create", "--frequency", "custom", "--interval", "3", "--end-after", "4")
	assert.Equal(t, "deleted "+spare, env.mustRun(t, "pattern", "delete", spare))
}

func TestGenerate_UnknownTemplate(t *testing.T) {
	env := newTestEnv(t, "")
	env.mustRun(t, "migrate")
	patternID := env.mustRun(t, "pattern", "create", "--frequency", "daily", "--start", "2025-01-01")

	_, err := env.run(context.Background(), "generate", patternID, "--template", "nope")
	assert.ErrorIs(t, err, core.ErrTemplateNotFound)

	_, err = env.run(context.Background(), "generate", patternID)
	assert.ErrorIs(t, err, core.ErrTemplateRequired)
}

func TestPatternCreate_Invalid(t *testing.T) {
	env := newTestEnv(t, "")
	env.mustRun(t, "migrate")

	_, err := env.run(context.Background(), "pattern", "create", "--frequency", "yearly")
	assert.ErrorIs(t, err, core.ErrInvalidPattern)

	_, err = env.run(context.Background(), "pattern", "create", "--frequency", "weekly", "--days", "funday")
	assert.ErrorIs(t, err, core.ErrInvalidPattern)

	_, err = env.run(context.Background(), "pattern", "create", "--frequency", "daily", "--start", "01/02/2025")
	assert.ErrorContains(t, err, "YYYY-MM-DD")
}

func TestTemplateImport_RejectsIncompleteTemplate(t *testing.T) {
	env := newTestEnv(t, "")
	env.mustRun(t, "migrate")

	path := filepath.Join(env.dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("customer_id: acme\n"), 0o644))
	_, err := env.run(context.Background(), "template", "import", path)
	assert.ErrorIs(t, err, core.ErrTemplateIncomplete)

	require.NoError(t, os.WriteFile(path, []byte("customer_id: acme\nassigned_to_id: t\ncolour: red\n"), 0o644))
	_, err = env.run(context.Background(), "template", "import", path)
	assert.ErrorContains(t, err, "colour")
}

func TestServe_TopsUpPlansUntilCancelled(t *testing.T) {
	env := newTestEnv(t, "")
	env.mustRun(t, "migrate")
	templateID := env.importTemplate(t)
	patternID := env.mustRun(t, "pattern", "create", "--frequency", "daily")

	env.writeConfig(t, fmt.Sprintf(`
[horizon]
schedule = "@every 1h"
run_on_start = true

[[horizon.plans]]
pattern_id = %q
template_job_id = %q
occurrences = 4

[metrics]
listen = "127.0.0.1:0"
`, patternID, templateID))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_, err := env.run(ctx, "serve")
	require.NoError(t, err)

	out := env.mustRun(t, "pattern", "show", patternID)
	var view patternView
	require.NoError(t, yaml.Unmarshal([]byte(out), &view))
	assert.Len(t, view.Jobs, 4)
}

func TestServe_RequiresPlans(t *testing.T) {
	env := newTestEnv(t, "")
	_, err := env.run(context.Background(), "serve")
	assert.ErrorContains(t, err, "no horizon plans")
}
