// Package config loads the camrelay daemon configuration.
//
// Configuration is a single YAML file. The location follows platform
// conventions (XDG on Linux/macOS, LOCALAPPDATA on Windows) and can be
// overridden with the --config flag. A missing file is not an error; every
// field has a default, so the daemon runs with no configuration at all.
//
// # File Format
//
//	listen_addr: ":8080"
//	log_level: "info"
//	discovery:
//	  timeout_ms: 5000
//	  enable_mdns: true
//	relay:
//	  frame_interval_ms: 200
//	  frame_retry_ms: 1000
//	  extractor_url: "http://camera-service"
//
// Credentials are never stored in the configuration file. They arrive with
// each discovery request and live only for the duration of the pass.
package config
