// Package ipc provides the local point-to-point channel used between the CLI
// and plugin daemons, plus the message codec that runs over it.
//
// Channels are keyed by an opaque string path produced by SocketPath; platform
// naming rules are hidden from callers. Messages are JSON payloads framed with
// a fixed-size length header so a partial or oversized frame is always a
// detectable error rather than silent truncation.
//
// A daemon connection carries exactly one request and one response; neither
// side reuses channels.
package ipc
