package config

// DefaultConfig returns the default configuration: a single worker, the
// spec's default 60s collection timeout, no per-read timeout, and no
// cost/inflate flags set.
func DefaultConfig() *DispatcherConfig {
	return &DispatcherConfig{
		WorkerCount:           1,
		CollectionTimeoutSecs: 60,
		Graphs:                map[string]GraphConfig{},
	}
}
