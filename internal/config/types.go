package config

// GraphConfig describes a named graph entry: a description and an
// output_tasks list. Load and Save carry it; cmd/dagsched does not read it
// (the CLI picks its graph from internal/examples and takes output tasks
// from its -output-tasks flag).
type GraphConfig struct {
	Description string   `json:"description,omitempty"`
	OutputTasks []string `json:"output_tasks,omitempty"`
}

// DispatcherConfig is the top-level configuration for scheduling and
// executing a graph: worker count, timeouts, and result-shaping flags.
type DispatcherConfig struct {
	WorkerCount           int                    `json:"worker_count"`
	PerReadTimeoutSecs    float64                `json:"per_read_timeout_secs,omitempty"`
	CollectionTimeoutSecs float64                `json:"collection_timeout_secs"`
	Costs                 bool                   `json:"costs"`
	Inflate               bool                   `json:"inflate"`
	Graphs                map[string]GraphConfig `json:"graphs"`
}
