// Package relay moves imagery from cameras to HTTP clients: single JPEG
// snapshots and continuous MJPEG (multipart/x-mixed-replace) streams.
//
// The relay never decodes video itself. Snapshots come straight from a
// camera's snapshot endpoint; frames for RTSP-only requests are delegated
// to an external frame-extraction service. Streams are built by
// re-fetching the snapshot endpoint at a fixed interval, with a longer
// back-off after a failed frame, and end only on context cancellation or
// client disconnect.
package relay
