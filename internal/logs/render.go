package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Keys Render prints in its own columns rather than as key=value pairs.
var headerKeys = map[string]bool{"ts": true, "time": true, "level": true, "msg": true, "source": true}

// Render formats one JSON log record as "15:04:05 LEVEL message key=value".
// The timestamp is read from "ts", falling back to "time".
// Lines that are not JSON objects are returned unchanged.
func Render(line string) string {
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil || record == nil {
		return line
	}

	var b strings.Builder
	ts, ok := record["ts"].(string)
	if !ok {
		ts, ok = record["time"].(string)
	}
	if ok {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			ts = parsed.Local().Format("15:04:05")
		}
		b.WriteString(ts)
		b.WriteByte(' ')
	}
	if level, ok := record["level"].(string); ok {
		fmt.Fprintf(&b, "%-5s ", strings.ToUpper(level))
	}
	if msg, ok := record["msg"].(string); ok {
		b.WriteString(msg)
	}

	keys := make([]string, 0, len(record))
	for key := range record {
		if !headerKeys[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(formatValue(record[key]))
	}
	return b.String()
}

func formatValue(v any) string {
	switch value := v.(type) {
	case string:
		if value == "" || strings.ContainsAny(value, " \t\n\"=") {
			return fmt.Sprintf("%q", value)
		}
		return value
	case float64:
		return fmt.Sprintf("%g", value)
	case nil:
		return "null"
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}
		return string(data)
	}
}
