package flink

import (
	"strconv"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Safe accessors over the raw FlinkDeployment document. Operator releases
// rename and drop fields, so every read tolerates an absent, null, or
// differently-typed value and degrades to a zero value instead of failing.

// nestedValue returns the value at the path, or nil when any segment is
// absent or not a map.
func nestedValue(obj map[string]interface{}, fields ...string) interface{} {
	val, found, err := unstructured.NestedFieldNoCopy(obj, fields...)
	if !found || err != nil {
		return nil
	}
	return val
}

// nestedString returns the string at the path, converting scalar values,
// or "" when absent.
func nestedString(obj map[string]interface{}, fields ...string) string {
	return stringify(nestedValue(obj, fields...))
}

// nestedInt returns the integer at the path, accepting JSON numbers and
// numeric strings, or 0 when absent or unparseable.
func nestedInt(obj map[string]interface{}, fields ...string) int {
	n, _ := asInt(nestedValue(obj, fields...))
	return n
}

// nestedStringMap returns the map of strings at the path, or an empty map.
// Non-string values are stringified rather than dropped.
func nestedStringMap(obj map[string]interface{}, fields ...string) map[string]string {
	result := map[string]string{}
	raw, ok := nestedValue(obj, fields...).(map[string]interface{})
	if !ok {
		return result
	}
	for k, v := range raw {
		result[k] = stringify(v)
	}
	return result
}

func stringify(val interface{}) string {
	switch v := val.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func asInt(val interface{}) (int, bool) {
	switch v := val.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// quantityString renders a resource quantity the way the operator reports it.
// Unset and zero values collapse to "" so absent sizing never shows as "0".
func quantityString(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case int64:
		if v == 0 {
			return ""
		}
		return strconv.FormatInt(v, 10)
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	default:
		return ""
	}
}

// asEpoch converts a status timestamp to an epoch value. Operators emit
// either epoch milliseconds or an RFC3339 timestamp depending on release;
// RFC3339 values convert to epoch milliseconds. Returns false when the value
// is absent or unparseable.
func asEpoch(val interface{}) (int64, bool) {
	switch v := val.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return ts.UnixMilli(), true
		}
		return 0, false
	default:
		return 0, false
	}
}
