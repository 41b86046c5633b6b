package serializer

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var headerCase = cases.Upper(language.English)

// writeTable renders data as flattened field/value rows. The value is
// round-tripped through its JSON form first, so the field names match
// what --format json would print.
func writeTable(out io.Writer, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to flatten for table output: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("failed to flatten for table output: %w", err)
	}

	var rows [][2]string
	flatten("", generic, &rows)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\n", headerCase.String("field"), headerCase.String("value"))
	if len(rows) == 0 {
		fmt.Fprintf(tw, "%s\t\n", "<empty>")
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1])
	}
	return tw.Flush()
}

// flatten walks the generic JSON value depth-first, emitting one row
// per scalar. Map keys are visited in sorted order so output is stable.
func flatten(prefix string, v any, rows *[][2]string) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flatten(joinKey(prefix, k), val[k], rows)
		}
	case []any:
		for i, item := range val {
			flatten(fmt.Sprintf("%s[%d]", prefix, i), item, rows)
		}
	case nil:
		*rows = append(*rows, [2]string{prefix, ""})
	case float64:
		*rows = append(*rows, [2]string{prefix, formatNumber(val)})
	default:
		*rows = append(*rows, [2]string{prefix, fmt.Sprintf("%v", val)})
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// formatNumber prints integers without a decimal point; JSON decoding
// gives every number as float64.
func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
