package baseline

import "time"

// Baseline is a named snapshot of the lab's group variables, kept for drift
// comparison.
type Baseline struct {
	Name         string            `json:"name"`
	Root         string            `json:"root"`         // project root the snapshot was taken from
	ConfigHash   string            `json:"configHash"`   // artifact configVersion
	ConfigValues map[string]string `json:"configValues"` // group.key -> canonical JSON
	Timestamp    time.Time         `json:"timestamp"`
}

// BaselineSummary is a lightweight view for listing baselines.
type BaselineSummary struct {
	Name       string    `json:"name"`
	Root       string    `json:"root"`
	ConfigHash string    `json:"configHash"`
	Keys       int       `json:"keys"`
	Timestamp  time.Time `json:"timestamp"`
}
