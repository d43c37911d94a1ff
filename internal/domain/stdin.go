package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FormatStdin joins the input items of one test case into a stdin payload.
// Arrays are space-joined, objects are JSON encoded and everything else is
// stringified; items are separated by newlines.
func FormatStdin(input []interface{}) string {
	lines := make([]string, 0, len(input))
	for _, item := range input {
		lines = append(lines, formatInputItem(item))
	}
	return strings.Join(lines, "\n")
}

func formatInputItem(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, elem := range t {
			parts = append(parts, formatInputItem(elem))
		}
		return strings.Join(parts, " ")
	case []string:
		return strings.Join(t, " ")
	case map[string]interface{}:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
