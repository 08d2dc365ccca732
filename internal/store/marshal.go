package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/reqlgate/internal/ir"
)

// marshalDetails converts failure details to canonical JSON TEXT for storage.
func marshalDetails(details map[string]string) (string, error) {
	if len(details) == 0 {
		return "{}", nil
	}
	data, err := ir.MarshalCanonical(details)
	if err != nil {
		return "", fmt.Errorf("marshal details: %w", err)
	}
	return string(data), nil
}

// unmarshalDetails parses details JSON TEXT. An empty object yields nil.
func unmarshalDetails(data string) (map[string]string, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var details map[string]string
	if err := json.Unmarshal([]byte(data), &details); err != nil {
		return nil, fmt.Errorf("unmarshal details: %w", err)
	}
	return details, nil
}

// timeLayout keeps a fixed width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func marshalTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func unmarshalTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unmarshal started_at: %w", err)
	}
	return t, nil
}
