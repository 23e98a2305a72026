package reports

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const timestampLayout = time.RFC3339

// EncodeCSV writes headers and rows separated by "\n" with no trailing newline.
// A field containing a quote, comma, CR or LF is quoted and its quotes doubled.
func EncodeCSV(t Table) []byte {
	var b strings.Builder
	writeCSVRow(&b, stringsToAny(t.Headers))
	for _, row := range t.Data {
		b.WriteByte('\n')
		writeCSVRow(&b, row)
	}
	return []byte(b.String())
}

func writeCSVRow(b *strings.Builder, fields []any) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeCSVField(FormatCell(f)))
	}
}

func escapeCSVField(s string) string {
	if !strings.ContainsAny(s, "\",\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// FormatCell renders one table cell as text. Money keeps two decimals, times are
// RFC3339 in UTC and nil is empty.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case decimal.Decimal:
		return x.StringFixed(2)
	case time.Time:
		return x.UTC().Format(timestampLayout)
	case *time.Time:
		if x == nil {
			return ""
		}
		return x.UTC().Format(timestampLayout)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
