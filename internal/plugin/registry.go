package plugin

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	goplugin "plugin"
	"runtime"
	"strings"

	"taiga/internal/logging"
)

// dynamicPlugin pairs a reconstructed capability with its backing library.
// The library reference must outlive the capability; see UnloadAll.
type dynamicPlugin struct {
	capability Plugin
	library    *goplugin.Plugin
}

// Registry is the name-indexed directory of capabilities, both compiled-in
// and dynamically loaded. It owns every registered capability exclusively.
type Registry struct {
	logger  *slog.Logger
	static  map[string]Plugin
	dynamic map[string]*dynamicPlugin
	paths   []string

	// loadLibrary is LoadDynamic, replaceable in tests where no real
	// shared library can exist.
	loadLibrary func(path string) error
}

// NewRegistry constructs an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	r := &Registry{
		logger:  logging.NewComponentLogger(logger, "plugins"),
		static:  map[string]Plugin{},
		dynamic: map[string]*dynamicPlugin{},
	}
	r.loadLibrary = r.LoadDynamic
	return r
}

// AddSearchPath appends a directory to the ordered discovery search list.
func (r *Registry) AddSearchPath(dir string) {
	if strings.TrimSpace(dir) == "" {
		return
	}
	r.paths = append(r.paths, dir)
}

// RegisterStatic inserts a compiled-in capability and eagerly runs its load
// hook, propagating hook failure. Duplicate names are rejected.
func (r *Registry) RegisterStatic(p Plugin) error {
	name := p.Name()
	if r.has(name) {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateName)
	}
	if err := p.OnLoad(); err != nil {
		return fmt.Errorf("plugin %q load hook: %w", name, err)
	}
	r.static[name] = p
	return nil
}

// LoadDynamic opens a shared library, resolves the creation symbol, and
// registers the reconstructed capability. The load hook is deliberately not
// invoked here: a hook failure during bulk discovery would have to unwind
// across the library boundary, which cannot be done reliably.
func (r *Registry) LoadDynamic(path string) error {
	library, err := goplugin.Open(path)
	if err != nil {
		return fmt.Errorf("load plugin library %s: %w", path, err)
	}

	symbol, err := library.Lookup(EntrySymbol)
	if err != nil {
		return fmt.Errorf("plugin %s: %w: %v", path, ErrMissingEntryPoint, err)
	}
	create, ok := symbol.(CreateFunc)
	if !ok {
		return fmt.Errorf("plugin %s: %w: symbol %s has wrong type", path, ErrMissingEntryPoint, EntrySymbol)
	}

	handle := create()
	if handle.IsNil() {
		return fmt.Errorf("plugin %s: %w", path, ErrCreateFailed)
	}
	capability := handle.Capability()

	name := capability.Name()
	if r.has(name) {
		return fmt.Errorf("load %s: plugin %q: %w", path, name, ErrDuplicateName)
	}

	r.dynamic[name] = &dynamicPlugin{capability: capability, library: library}
	r.logger.Info("dynamic plugin registered",
		logging.String(logging.FieldPlugin, name),
		logging.String("path", path))
	return nil
}

// Discover scans every search directory, in order, for libraries with the
// platform's native suffix and loads the ones it finds. It returns the loaded
// file paths. Candidates whose base name matches one already loaded in this
// pass are skipped, so the same plugin found through multiple search roots
// loads once. Note the match is by base name, which treats distinct plugins
// sharing a base name as duplicates.
//
// Individual load failures are logged and skipped; duplicate-name failures
// are expected on overlapping roots and stay silent.
func (r *Registry) Discover() []string {
	suffix := librarySuffix()
	var loaded []string
	seen := map[string]bool{}

	for _, dir := range r.paths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				r.logger.Warn("read plugin directory",
					logging.String("dir", dir),
					logging.Error(err))
			}
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
				continue
			}
			base := libraryBaseName(entry.Name())
			if seen[base] {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			if err := r.loadLibrary(path); err != nil {
				if !errors.Is(err, ErrDuplicateName) {
					r.logger.Warn("load plugin",
						logging.String("path", path),
						logging.Error(err))
				}
				continue
			}
			seen[base] = true
			loaded = append(loaded, path)
			r.logger.Debug("plugin loaded", logging.String("path", path))
		}
	}
	return loaded
}

// Get returns a capability by name.
func (r *Registry) Get(name string) (Plugin, bool) {
	if p, ok := r.static[name]; ok {
		return p, true
	}
	if d, ok := r.dynamic[name]; ok {
		return d.capability, true
	}
	return nil, false
}

// Has reports whether a capability with the given name is registered.
func (r *Registry) Has(name string) bool {
	return r.has(name)
}

// HasCommand reports whether the named capability provides the command.
func (r *Registry) HasCommand(name, command string) bool {
	p, ok := r.Get(name)
	if !ok {
		return false
	}
	for _, def := range p.Commands() {
		if def.Name == command {
			return true
		}
	}
	return false
}

// Infos returns snapshots of every registered capability, static first.
func (r *Registry) Infos() []Info {
	infos := make([]Info, 0, len(r.static)+len(r.dynamic))
	for _, p := range r.static {
		infos = append(infos, InfoOf(p))
	}
	for _, d := range r.dynamic {
		infos = append(infos, InfoOf(d.capability))
	}
	return infos
}

// Execute dispatches one command to the named capability.
func (r *Registry) Execute(name, command string, args []string, ctx *Context) (CommandResult, error) {
	p, ok := r.Get(name)
	if !ok {
		return CommandResult{}, fmt.Errorf("plugin %q: %w", name, ErrPluginNotFound)
	}
	result, err := p.Execute(command, args, ctx)
	if err != nil {
		return CommandResult{}, fmt.Errorf("plugin %q command %q: %w", name, command, err)
	}
	return result, nil
}

// UnloadAll drops every capability. Per-capability unload hooks are skipped:
// like load hooks during discovery, they would run across the library
// boundary during teardown. Capability references are released before library
// references so no capability can outlive its library.
func (r *Registry) UnloadAll() {
	clear(r.static)
	for name, d := range r.dynamic {
		d.capability = nil
		d.library = nil
		delete(r.dynamic, name)
	}
}

func (r *Registry) has(name string) bool {
	if _, ok := r.static[name]; ok {
		return true
	}
	_, ok := r.dynamic[name]
	return ok
}

func librarySuffix() string {
	switch runtime.GOOS {
	case "darwin":
		return ".dylib"
	case "windows":
		return ".dll"
	default:
		return ".so"
	}
}

func libraryBaseName(filename string) string {
	base := strings.TrimPrefix(filename, "lib")
	for _, suffix := range []string{".so", ".dylib", ".dll"} {
		if strings.HasSuffix(base, suffix) {
			return strings.TrimSuffix(base, suffix)
		}
	}
	return base
}
