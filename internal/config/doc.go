// Package config provides the ptyterm configuration.
//
// Settings are resolved in three layers, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  3. Environment (PTYTERM_*) │  ← Highest priority
//	├─────────────────────────────┤
//	│  2. Config file             │  ← TOML or YAML
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Command line flags are applied by the caller on top of the resolved
// Config.
//
// # File formats
//
// The format is chosen by extension: .toml uses go-toml, .yaml and .yml
// use yaml.v3. Unknown keys are rejected so typos surface as errors.
//
//	[terminal]
//	cols = 120
//	scrollback = 5000
//	backend = "builtin"
//
//	[process]
//	grace_period = "750ms"
//
// # Live reload
//
// Watcher observes the config file with fsnotify and delivers a freshly
// resolved Config after each debounced change.
package config
