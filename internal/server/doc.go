// Package server exposes the daemon's HTTP API: discovery triggering,
// registry reads, snapshot and MJPEG relays, and a WebSocket feed that
// pushes the device list on every registry publish.
//
// All JSON error responses share the {ok:false,error} shape. The API is
// CORS-open so browser frontends can talk to it directly.
package server
