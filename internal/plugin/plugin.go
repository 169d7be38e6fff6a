package plugin

// CommandDef describes one command a capability provides. Values are
// immutable after construction.
type CommandDef struct {
	Name        string
	Description string
	Usage       string
	Args        []ArgDef
}

// ArgDef describes a single command argument for help output.
type ArgDef struct {
	Name        string
	Description string
	Required    bool
}

// NewCommand builds a command definition with the given name and description.
func NewCommand(name, description string) CommandDef {
	return CommandDef{Name: name, Description: description}
}

// WithUsage sets the usage string.
func (c CommandDef) WithUsage(usage string) CommandDef {
	c.Usage = usage
	return c
}

// WithArg appends an argument definition.
func (c CommandDef) WithArg(arg ArgDef) CommandDef {
	c.Args = append(append([]ArgDef{}, c.Args...), arg)
	return c
}

// RequiredArg builds a required argument definition.
func RequiredArg(name, description string) ArgDef {
	return ArgDef{Name: name, Description: description, Required: true}
}

// OptionalArg builds an optional argument definition.
func OptionalArg(name, description string) ArgDef {
	return ArgDef{Name: name, Description: description}
}

// Context is the per-call execution context passed to capabilities. It is
// mutable during a call and never retained across calls.
type Context struct {
	// DataDir is the host data directory.
	DataDir string
	// Extra carries free-form host-provided values.
	Extra map[string]string
	// ConfigJSON is an optional serialized configuration blob the capability
	// deserializes itself.
	ConfigJSON string
}

// NewContext builds a context rooted at the given data directory.
func NewContext(dataDir string) *Context {
	return &Context{DataDir: dataDir, Extra: map[string]string{}}
}

// WithExtra sets a free-form context value.
func (c *Context) WithExtra(key, value string) *Context {
	c.Extra[key] = value
	return c
}

// WithConfig attaches a serialized configuration blob.
func (c *Context) WithConfig(configJSON string) *Context {
	c.ConfigJSON = configJSON
	return c
}

// ResultKind classifies a command result.
type ResultKind int

const (
	// ResultSuccess means the command completed; Message may be empty.
	ResultSuccess ResultKind = iota
	// ResultError means the command failed; Message holds the reason.
	ResultError
	// ResultAsync means the command started background work; Message
	// describes what is happening.
	ResultAsync
)

// CommandResult is the outcome of executing one capability command.
type CommandResult struct {
	Kind    ResultKind
	Message string
}

// Success builds a successful result with an optional message.
func Success(message string) CommandResult {
	return CommandResult{Kind: ResultSuccess, Message: message}
}

// Failure builds a failed result.
func Failure(message string) CommandResult {
	return CommandResult{Kind: ResultError, Message: message}
}

// Async builds a result describing started background work.
func Async(message string) CommandResult {
	return CommandResult{Kind: ResultAsync, Message: message}
}

// Plugin is the capability contract every plugin implements. A registered
// capability is exclusively owned by the registry; a dynamically loaded one
// must not outlive its backing library.
type Plugin interface {
	// Name returns the unique capability name, used as the CLI subcommand.
	Name() string
	// Version returns the capability version string.
	Version() string
	// Description returns a short human-readable description.
	Description() string
	// Commands enumerates the commands this capability provides.
	Commands() []CommandDef
	// Execute runs one command. Handler-level failures belong in the
	// CommandResult; the error return is for infrastructure failures.
	Execute(command string, args []string, ctx *Context) (CommandResult, error)
	// OnLoad runs optional initialization. Called eagerly for static
	// registration only; see Registry.LoadDynamic.
	OnLoad() error
	// OnUnload runs optional cleanup. Not called during bulk teardown.
	OnUnload() error
}

// Base provides no-op lifecycle hooks for plugins that need none.
type Base struct{}

func (Base) OnLoad() error { return nil }

func (Base) OnUnload() error { return nil }

// Info is a plain snapshot of a capability used for listings.
type Info struct {
	Name        string
	Version     string
	Description string
	Commands    []CommandDef
}

// InfoOf captures a capability snapshot.
func InfoOf(p Plugin) Info {
	return Info{
		Name:        p.Name(),
		Version:     p.Version(),
		Description: p.Description(),
		Commands:    p.Commands(),
	}
}
