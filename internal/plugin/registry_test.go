package plugin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"taiga/internal/logging"
)

type fakePlugin struct {
	Base
	name      string
	loadErr   error
	loadCalls int
	execErr   error
	lastCmd   string
	lastArgs  []string
}

func (f *fakePlugin) Name() string        { return f.name }
func (f *fakePlugin) Version() string     { return "1.0.0" }
func (f *fakePlugin) Description() string { return "test capability" }

func (f *fakePlugin) Commands() []CommandDef {
	return []CommandDef{
		NewCommand("ping", "Check readiness"),
		NewCommand("start", "Begin work").WithArg(OptionalArg("minutes", "Duration")),
	}
}

func (f *fakePlugin) OnLoad() error {
	f.loadCalls++
	return f.loadErr
}

func (f *fakePlugin) Execute(command string, args []string, ctx *Context) (CommandResult, error) {
	if f.execErr != nil {
		return CommandResult{}, f.execErr
	}
	f.lastCmd = command
	f.lastArgs = args
	return Success("ok"), nil
}

func newTestRegistry() *Registry {
	return NewRegistry(logging.NewNop())
}

func TestRegisterStaticRunsLoadHook(t *testing.T) {
	r := newTestRegistry()
	p := &fakePlugin{name: "pomo"}

	if err := r.RegisterStatic(p); err != nil {
		t.Fatalf("RegisterStatic: %v", err)
	}
	if p.loadCalls != 1 {
		t.Fatalf("load hook calls = %d, want 1", p.loadCalls)
	}
	if !r.Has("pomo") {
		t.Fatal("registered plugin not found")
	}
}

func TestRegisterStaticRejectsDuplicate(t *testing.T) {
	r := newTestRegistry()
	if err := r.RegisterStatic(&fakePlugin{name: "pomo"}); err != nil {
		t.Fatalf("first register: %v", err)
	}

	err := r.RegisterStatic(&fakePlugin{name: "pomo"})
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("duplicate register error = %v, want ErrDuplicateName", err)
	}
}

func TestRegisterStaticLoadHookFailure(t *testing.T) {
	r := newTestRegistry()
	p := &fakePlugin{name: "pomo", loadErr: fmt.Errorf("missing state dir")}

	if err := r.RegisterStatic(p); err == nil {
		t.Fatal("expected load hook failure to propagate")
	}
	if r.Has("pomo") {
		t.Fatal("plugin registered despite failed load hook")
	}
}

func TestExecuteDispatches(t *testing.T) {
	r := newTestRegistry()
	p := &fakePlugin{name: "pomo"}
	if err := r.RegisterStatic(p); err != nil {
		t.Fatalf("RegisterStatic: %v", err)
	}

	result, err := r.Execute("pomo", "start", []string{"25"}, NewContext(t.TempDir()))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Kind != ResultSuccess {
		t.Fatalf("result kind = %v, want success", result.Kind)
	}
	if p.lastCmd != "start" || len(p.lastArgs) != 1 || p.lastArgs[0] != "25" {
		t.Fatalf("dispatched command = %q args = %v", p.lastCmd, p.lastArgs)
	}
}

func TestExecuteUnknownPlugin(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Execute("ghost", "ping", nil, NewContext(t.TempDir()))
	if !errors.Is(err, ErrPluginNotFound) {
		t.Fatalf("error = %v, want ErrPluginNotFound", err)
	}
}

func TestExecuteWrapsCapabilityFailure(t *testing.T) {
	r := newTestRegistry()
	cause := fmt.Errorf("daemon unreachable")
	if err := r.RegisterStatic(&fakePlugin{name: "pomo", execErr: cause}); err != nil {
		t.Fatalf("RegisterStatic: %v", err)
	}

	_, err := r.Execute("pomo", "ping", nil, NewContext(t.TempDir()))
	if !errors.Is(err, cause) {
		t.Fatalf("error = %v, want wrapped %v", err, cause)
	}
}

func TestHasCommand(t *testing.T) {
	r := newTestRegistry()
	if err := r.RegisterStatic(&fakePlugin{name: "pomo"}); err != nil {
		t.Fatalf("RegisterStatic: %v", err)
	}

	if !r.HasCommand("pomo", "ping") {
		t.Fatal("expected ping command")
	}
	if r.HasCommand("pomo", "vanish") {
		t.Fatal("unexpected vanish command")
	}
	if r.HasCommand("ghost", "ping") {
		t.Fatal("unknown plugin reported a command")
	}
}

func TestInfos(t *testing.T) {
	r := newTestRegistry()
	if err := r.RegisterStatic(&fakePlugin{name: "pomo"}); err != nil {
		t.Fatalf("RegisterStatic: %v", err)
	}

	infos := r.Infos()
	if len(infos) != 1 {
		t.Fatalf("infos = %d, want 1", len(infos))
	}
	if infos[0].Name != "pomo" || infos[0].Version != "1.0.0" {
		t.Fatalf("info = %+v", infos[0])
	}
	if len(infos[0].Commands) != 2 {
		t.Fatalf("commands = %d, want 2", len(infos[0].Commands))
	}
}

func TestUnloadAll(t *testing.T) {
	r := newTestRegistry()
	if err := r.RegisterStatic(&fakePlugin{name: "pomo"}); err != nil {
		t.Fatalf("RegisterStatic: %v", err)
	}

	r.UnloadAll()
	if r.Has("pomo") {
		t.Fatal("plugin survived UnloadAll")
	}
	if len(r.Infos()) != 0 {
		t.Fatal("infos not empty after UnloadAll")
	}
}

func TestDiscoverSkipsMissingAndInvalid(t *testing.T) {
	dir := t.TempDir()
	// Not a real shared library; loading must fail and be skipped.
	bogus := filepath.Join(dir, "libpomo"+librarySuffix())
	if err := os.WriteFile(bogus, []byte("not a library"), 0o644); err != nil {
		t.Fatalf("write bogus library: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}

	r := newTestRegistry()
	r.AddSearchPath(filepath.Join(dir, "does-not-exist"))
	r.AddSearchPath(dir)

	if loaded := r.Discover(); len(loaded) != 0 {
		t.Fatalf("loaded = %v, want none", loaded)
	}
}

func TestDiscoverLoadsSharedArtifactOnce(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	// The same plugin artifact visible through two roots, one with the
	// lib prefix and one without. Both resolve to the base name "greeter".
	if err := os.WriteFile(filepath.Join(first, "libgreeter"+librarySuffix()), nil, 0o644); err != nil {
		t.Fatalf("write library: %v", err)
	}
	if err := os.WriteFile(filepath.Join(second, "greeter"+librarySuffix()), nil, 0o644); err != nil {
		t.Fatalf("write library: %v", err)
	}

	r := newTestRegistry()
	var loads []string
	r.loadLibrary = func(path string) error {
		loads = append(loads, path)
		return nil
	}
	r.AddSearchPath(first)
	r.AddSearchPath(second)

	loaded := r.Discover()
	if len(loaded) != 1 || len(loads) != 1 {
		t.Fatalf("loaded = %v, load attempts = %v, want exactly one", loaded, loads)
	}
	if want := filepath.Join(first, "libgreeter"+librarySuffix()); loads[0] != want {
		t.Fatalf("loaded %s, want the first search root to win", loads[0])
	}
}

func TestLibraryBaseName(t *testing.T) {
	cases := map[string]string{
		"libpomo.so":    "pomo",
		"libpomo.dylib": "pomo",
		"pomo.dll":      "pomo",
		"pomo.so":       "pomo",
		"libonly":       "only",
	}
	for in, want := range cases {
		if got := libraryBaseName(in); got != want {
			t.Errorf("libraryBaseName(%q) = %q, want %q", in, got, want)
		}
	}
}
