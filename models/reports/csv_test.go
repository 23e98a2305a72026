package reports

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCSVQuotesAndDoublesQuotes(t *testing.T) {
	table := Table{
		Headers: []string{"Name", "Note"},
		Data: [][]any{
			{"Gizmo, Deluxe", `the "best" one`},
			{"plain", "line\nbreak"},
			{" padded", "cr\rhere"},
		},
	}

	got := string(EncodeCSV(table))
	want := "Name,Note\n" +
		`"Gizmo, Deluxe","the ""best"" one"` + "\n" +
		"plain,\"line\nbreak\"\n" +
		" padded,\"cr\rhere\""
	assert.Equal(t, want, got)
}

func TestEncodeCSVHeadersOnlyHasNoTrailingNewline(t *testing.T) {
	assert.Equal(t, "a,b", string(EncodeCSV(Table{Headers: []string{"a", "b"}})))
}

func TestEncodeCSVRoundTripsThroughEncodingCSV(t *testing.T) {
	table := Table{
		Headers: []string{"Text", "Money", "Count", "Empty"},
		Data: [][]any{
			{`a "quoted", value`, decimal.RequireFromString("12.5"), 3, nil},
			{"multi\nline", decimal.Zero, int64(-1), ""},
		},
	}

	records, err := csv.NewReader(strings.NewReader(string(EncodeCSV(table)))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{`a "quoted", value`, "12.50", "3", ""}, records[1])
	assert.Equal(t, []string{"multi\nline", "0.00", "-1", ""}, records[2])
}

func TestFormatCell(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 30, 0, 0, time.FixedZone("x", 2*3600))
	s := "ptr"
	var nilTime *time.Time
	var nilString *string

	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"text", "text"},
		{&s, "ptr"},
		{nilString, ""},
		{decimal.RequireFromString("3.14159"), "3.14"},
		{decimal.NewFromInt(7), "7.00"},
		{at, "2024-03-01T08:30:00Z"},
		{&at, "2024-03-01T08:30:00Z"},
		{nilTime, ""},
		{42, "42"},
		{int64(9), "9"},
		{true, "true"},
		{1.5, "1.5"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatCell(tc.in), "%#v", tc.in)
	}
}
