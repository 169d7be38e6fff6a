package pomodoro

import (
	"reflect"
	"testing"

	"taiga/internal/testsupport"
)

func TestSpawnArgsForwardConfigPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.SourcePath = "/tmp/custom.toml"

	got := spawnArgs(cfg)
	want := []string{"pomo", "daemon", "--config", "/tmp/custom.toml"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("spawnArgs = %v, want %v", got, want)
	}

	cfg.SourcePath = ""
	got = spawnArgs(cfg)
	want = []string{"pomo", "daemon"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("spawnArgs without source path = %v, want %v", got, want)
	}
}
