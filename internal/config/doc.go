// Package config loads the visionmon client configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/visionmon/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # Default Values
//
//   - Server: 127.0.0.1:8000
//   - Stream path: /ws/llm_output/
//   - Initial state path: /initial_state/
//   - Log file: ~/.local/share/visionmon/visionmon.log
//   - Log level: info
//   - Cache: ~/.cache/visionmon/state.cbor (enabled)
//   - Metrics: disabled
//
// # TOML Format
//
//	server = "monitor.lan:8000"
//	stream_path = "/ws/llm_output/"
//	initial_state_path = "/initial_state/"
//	log_file = "~/.local/share/visionmon/visionmon.log"
//	log_level = "debug"
//	cache_path = "~/.cache/visionmon/state.cbor"
//	cache = false
//	metrics_addr = "127.0.0.1:9100"
//
// Every field is optional. server accepts host:port or a full http(s) URL.
// An unknown log_level is a load error; everything else degrades to its
// default.
//
// # Path Expansion
//
// log_file and cache_path support tilde expansion and are made absolute.
package config
