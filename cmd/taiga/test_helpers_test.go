package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taiga/internal/testsupport"
)

type cliTestEnv struct {
	configPath string
	dataDir    string
	tasksPath  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\n\n[tasks]\nfilename = %q\n",
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		cfg.Tasks.Filename,
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{
		configPath: configPath,
		dataDir:    cfg.Paths.DataDir,
		tasksPath:  cfg.TasksFile(),
	}
}

// runCLI executes a fresh command tree against the test config and captures
// its output. stdin defaults to empty, so confirmation prompts answer no.
func (env *cliTestEnv) runCLI(t *testing.T, args []string, stdin string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (env *cliTestEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, _, err := env.runCLI(t, args, "")
	if err != nil {
		t.Fatalf("taiga %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func (env *cliTestEnv) tasksFile(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(env.tasksPath)
	if err != nil {
		t.Fatalf("read tasks file: %v", err)
	}
	return string(data)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q to not contain %q", output, substr)
	}
}
