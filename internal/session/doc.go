// Package session opens authenticated device sessions for discovered
// cameras: credential verification, media profile selection, and
// stream/snapshot URL resolution.
//
// A session open either yields a complete, immutable device.Record or a
// typed *Error whose FailureKind explains which step failed. Sessions are
// never retried; a device that fails to open is simply excluded from the
// discovery pass that probed it.
//
// Partial capability is preserved: if exactly one of the two access URLs
// resolves, the record is returned with the other field empty. Only a
// device that yields no usable URL at all is rejected.
package session
