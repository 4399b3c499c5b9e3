package config

import "time"

// History backends.
const (
	BackendCLI   = "cli"
	BackendGoGit = "gogit"
)

// Defaults applied when neither the config file, the environment nor a
// flag sets a value.
const (
	DefaultBackend       = BackendCLI
	DefaultMerges        = "skip"
	DefaultLogLevel      = "warn"
	DefaultWatchDebounce = 300 * time.Millisecond
	DefaultCacheTTL      = 10 * time.Minute
)
