package logging

// Standardized attribute keys shared across components.
const (
	FieldComponent = "component"
	FieldEventType = "event_type"
	FieldPlugin    = "plugin"
	FieldSocket    = "socket"
	FieldSessionID = "session_id"
)
