// Package plugin defines the capability contract extensions implement and the
// registry that indexes them by name.
//
// A capability describes itself through Name, Version, Description, and a list
// of command definitions, and handles dispatch through Execute. Compiled-in
// capabilities register directly; shared libraries export a creation function
// under EntrySymbol that returns an opaque Handle, which the registry
// reconstructs into a live capability.
//
// The registry owns every registered capability exclusively. Lifecycle hooks
// run only for compiled-in capabilities: invoking them across a shared-library
// boundary during bulk discovery or teardown cannot fail safely, so dynamic
// loads and UnloadAll skip them.
package plugin
