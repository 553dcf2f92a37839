// Package format holds the string contracts of the stream pipeline:
// summary message formatting, the metadata serialization contract, and
// the record timestamp layout.
package format

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	dErrors "streamlog/pkg/domain-errors"
)

// ISO8601Milli is the record timestamp layout: UTC with millisecond
// precision.
const ISO8601Milli = "2006-01-02T15:04:05.000Z"

// Timestamp formats t for storage and transport.
func Timestamp(t time.Time) string {
	return t.UTC().Format(ISO8601Milli)
}

// positionalDirective matches printf directives with an explicit
// argument position in the %1$s style and rewrites them to Go's %[1]s.
var positionalDirective = regexp.MustCompile(`%(\d+)\$`)

// badDirective matches fmt's error markers for missing or mistyped
// arguments, e.g. %!s(MISSING) or %!d(string=x).
var badDirective = regexp.MustCompile(`%!\w?\([^)]*\)`)

// Summary substitutes args into a printf-style message. Both sequential
// (%s, %d) and explicitly positioned (%1$s) directives are supported.
//
// In strict mode an argument-count or argument-type mismatch is an
// error so broken connector messages surface during development. In
// lenient mode the mismatch degrades: missing arguments render as
// empty, surplus arguments are ignored.
func Summary(message string, args []any, strict bool) (string, error) {
	translated := positionalDirective.ReplaceAllString(message, "%[$1]")
	out := fmt.Sprintf(translated, args...)

	if !strings.Contains(out, "%!") {
		return out, nil
	}
	if strict {
		return "", dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("summary format mismatch: %q with %d args", message, len(args)))
	}
	if i := strings.Index(out, "%!(EXTRA"); i >= 0 {
		out = out[:i]
	}
	out = badDirective.ReplaceAllString(out, "")
	return out, nil
}

// Stringify converts an arbitrary metadata value to its stored string
// form. The contract, per value type:
//
//   - nil: dropped (ok is false)
//   - string: unchanged
//   - bool: "true" / "false"
//   - integers: base-10
//   - floats: shortest round-trip decimal
//   - time.Time: ISO-8601 with millisecond precision, UTC
//   - fmt.Stringer: its String()
//   - sequences and maps: compact JSON
//
// Anything JSON cannot encode falls back to fmt's %v rendering so a
// value never aborts logging.
func Stringify(v any) (s string, ok bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case int:
		return strconv.Itoa(val), true
	case int8, int16, int32:
		return fmt.Sprintf("%d", val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case time.Time:
		return Timestamp(val), true
	case fmt.Stringer:
		return val.String(), true
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v), true
		}
		return string(b), true
	}
}
