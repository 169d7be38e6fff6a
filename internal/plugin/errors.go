package plugin

import "errors"

var (
	// ErrDuplicateName reports a registration conflict. The existing
	// capability always wins; the new one is rejected.
	ErrDuplicateName = errors.New("plugin name already registered")

	// ErrPluginNotFound reports a dispatch against an unknown capability.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrMissingEntryPoint reports a library without the creation symbol.
	ErrMissingEntryPoint = errors.New("plugin missing entry point")

	// ErrCreateFailed reports a creation function that returned a null
	// handle.
	ErrCreateFailed = errors.New("plugin creation returned null handle")
)
