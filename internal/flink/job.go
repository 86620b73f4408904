// Package flink defines the canonical job model and the logic that derives
// it from FlinkDeployment custom resources.
package flink

// JobType distinguishes the two deployment modes of the Flink operator.
type JobType string

const (
	// JobTypeApplication is a deployment running a single bundled job.
	JobTypeApplication JobType = "APPLICATION"
	// JobTypeSession is a long-running cluster accepting job submissions.
	JobTypeSession JobType = "SESSION"
)

// StatusUnknown is reported when the operator has not populated any job state.
const StatusUnknown = "UNKNOWN"

// Resource keys of the Job.Resources map. Both are always present.
const (
	JobManagerKey  = "jm"
	TaskManagerKey = "tm"
)

// JobResources describes the sizing of one Flink component. The cpu and mem
// values are raw Kubernetes quantity strings, empty when unset upstream.
type JobResources struct {
	Replicas int    `json:"replicas"`
	CPU      string `json:"cpu"`
	Mem      string `json:"mem"`
}

// Job is the normalized, read-only view of one FlinkDeployment. It is built
// fresh on every normalization call and never mutated afterwards.
type Job struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Status       string                  `json:"status"`
	Type         JobType                 `json:"type"`
	StartTime    *int64                  `json:"startTime,omitempty"`
	ShortImage   string                  `json:"shortImage"`
	FlinkVersion string                  `json:"flinkVersion"`
	Parallelism  int                     `json:"parallelism"`
	Resources    map[string]JobResources `json:"resources"`
	Metadata     map[string]string       `json:"metadata"`
}
