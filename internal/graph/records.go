package graph

import (
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// record accessors tolerate the numeric types the driver hands back

func asString(r map[string]any, key string) (string, error) {
	switch v := r[key].(type) {
	case string:
		return v, nil
	case nil:
		return "", fmt.Errorf("record field %q is missing", key)
	default:
		return "", fmt.Errorf("record field %q: unexpected type %T", key, v)
	}
}

func asInt(r map[string]any, key string) (int, error) {
	switch v := r[key].(type) {
	case int64:
		return int(v), nil
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case nil:
		return 0, fmt.Errorf("record field %q is missing", key)
	default:
		return 0, fmt.Errorf("record field %q: unexpected type %T", key, v)
	}
}

func asFloat(r map[string]any, key string) (float64, error) {
	switch v := r[key].(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case nil:
		return 0, fmt.Errorf("record field %q is missing", key)
	default:
		return 0, fmt.Errorf("record field %q: unexpected type %T", key, v)
	}
}

func asInts(r map[string]any, key string) ([]int, error) {
	raw, ok := r[key].([]any)
	if !ok {
		return nil, fmt.Errorf("record field %q: expected list, got %T", key, r[key])
	}
	values := make([]int, 0, len(raw))
	for i := range raw {
		v, err := asInt(map[string]any{key: raw[i]}, key)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func asTime(r map[string]any, key string) (time.Time, error) {
	switch v := r[key].(type) {
	case time.Time:
		return v, nil
	case neo4j.LocalDateTime:
		return v.Time(), nil
	case nil:
		return time.Time{}, fmt.Errorf("record field %q is missing", key)
	default:
		return time.Time{}, fmt.Errorf("record field %q: unexpected type %T", key, v)
	}
}
