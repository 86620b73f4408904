package flink

import (
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// taskSlotsKey is the Flink configuration entry used to derive parallelism
// when the job spec does not declare it.
const taskSlotsKey = "taskmanager.numberOfTaskSlots"

// Normalize converts a raw FlinkDeployment document into a Job. It is pure
// and never fails: every missing, null, or oddly-typed field degrades to its
// documented default.
func Normalize(u *unstructured.Unstructured) Job {
	obj := u.Object

	jobType := jobTypeOf(obj)

	jmReplicas := nestedInt(obj, "spec", "jobManager", "replicas")
	tmReplicas := nestedInt(obj, "spec", "taskManager", "replicas")
	if tmReplicas == 0 && jobType == JobTypeApplication {
		// Application deployments scale task managers through the operator;
		// the observed count lives in status.
		tmReplicas = nestedInt(obj, "status", "taskManager", "replicas")
	}

	return Job{
		ID:           string(u.GetUID()),
		Name:         u.GetName(),
		Status:       statusOf(obj),
		Type:         jobType,
		StartTime:    startTimeOf(obj),
		ShortImage:   shortImageOf(obj),
		FlinkVersion: flinkVersionOf(obj),
		Parallelism:  parallelismOf(obj),
		Resources: map[string]JobResources{
			JobManagerKey: {
				Replicas: jmReplicas,
				CPU:      quantityString(nestedValue(obj, "spec", "jobManager", "resource", "cpu")),
				Mem:      quantityString(nestedValue(obj, "spec", "jobManager", "resource", "memory")),
			},
			TaskManagerKey: {
				Replicas: tmReplicas,
				CPU:      quantityString(nestedValue(obj, "spec", "taskManager", "resource", "cpu")),
				Mem:      quantityString(nestedValue(obj, "spec", "taskManager", "resource", "memory")),
			},
		},
		Metadata: nestedStringMap(obj, "metadata", "labels"),
	}
}

// jobTypeOf derives the deployment mode: a spec without a job block is a
// session cluster.
func jobTypeOf(obj map[string]interface{}) JobType {
	if nestedValue(obj, "spec", "job") == nil {
		return JobTypeSession
	}
	return JobTypeApplication
}

// statusOf reads status.jobStatus.state, falling back to status.state for
// operator versions that report it there, then to the UNKNOWN sentinel.
func statusOf(obj map[string]interface{}) string {
	if state := nestedString(obj, "status", "jobStatus", "state"); state != "" {
		return state
	}
	if state := nestedString(obj, "status", "state"); state != "" {
		return state
	}
	return StatusUnknown
}

func startTimeOf(obj map[string]interface{}) *int64 {
	epoch, ok := asEpoch(nestedValue(obj, "status", "jobStatus", "startTime"))
	if !ok {
		return nil
	}
	return &epoch
}

// shortImageOf strips the registry/repository prefix from the container
// image, keeping everything after the first slash.
func shortImageOf(obj map[string]interface{}) string {
	image := nestedString(obj, "spec", "image")
	if idx := strings.Index(image, "/"); idx >= 0 {
		return image[idx+1:]
	}
	return image
}

// flinkVersionOf rewrites the operator's version enum to dotted form,
// e.g. "v1_18" becomes "1.18".
func flinkVersionOf(obj map[string]interface{}) string {
	raw := nestedString(obj, "spec", "flinkVersion")
	raw = strings.ReplaceAll(raw, "_", ".")
	return strings.ReplaceAll(raw, "v", "")
}

// parallelismOf prefers the explicit spec.job.parallelism; otherwise it is
// the product of configured task slots and task manager replicas, or 0 when
// either input is missing or non-numeric.
func parallelismOf(obj map[string]interface{}) int {
	if p := nestedInt(obj, "spec", "job", "parallelism"); p != 0 {
		return p
	}

	slotsVal := nestedValue(obj, "spec", "flinkConfiguration", taskSlotsKey)
	replicasVal := nestedValue(obj, "spec", "taskManager", "replicas")
	if slotsVal == nil || replicasVal == nil {
		return 0
	}
	slots, ok := asInt(slotsVal)
	if !ok {
		return 0
	}
	replicas, ok := asInt(replicasVal)
	if !ok {
		return 0
	}
	return slots * replicas
}
