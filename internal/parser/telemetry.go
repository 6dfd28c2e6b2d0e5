// Package parser handles the pipe-delimited telemetry wire format
// emitted by the microcontroller.
//
// Telemetry wire format (device -> bridge), one record per line:
//
//	TS:<millis> | ARM:<0|1> | BATT:<percent> | ...
//
// Field order is not fixed and unknown fields are passed through. The
// bridge appends a derived AGE field to records carrying a parsable TS.
package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// TimestampMarker prefixes the device-clock field of a telemetry record.
const TimestampMarker = "TS:"

// Timestamp scans the pipe-delimited fields of line for the TS marker and
// parses its decimal millisecond value. The second result is false when no
// field carries the marker or its value is not a valid integer.
func Timestamp(line string) (int64, bool) {
	for _, field := range strings.Split(line, "|") {
		field = strings.TrimSpace(field)
		if !strings.HasPrefix(field, TimestampMarker) {
			continue
		}
		ms, err := strconv.ParseInt(strings.TrimSpace(field[len(TimestampMarker):]), 10, 64)
		if err != nil {
			return 0, false
		}
		return ms, true
	}
	return 0, false
}

// Fields splits a record into its pipe-delimited KEY:VALUE pairs, in wire
// order. Fields without a colon are returned with an empty value.
func Fields(line string) []Field {
	var out []Field
	for _, raw := range strings.Split(line, "|") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		key, value, found := strings.Cut(raw, ":")
		if !found {
			out = append(out, Field{Key: raw})
			continue
		}
		out = append(out, Field{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
	}
	return out
}

// Field is one KEY:VALUE pair of a telemetry record.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Annotate appends the derived inter-sample age to a telemetry record.
// Age may be zero or negative; the device clock is not assumed monotonic.
func Annotate(line string, ageMs int64) string {
	return fmt.Sprintf("%s | AGE:%dms", line, ageMs)
}
