// Package nemcsv decodes the line-oriented flat-file format used by NEMWEB
// reports. Every file is a sequence of comma-separated rows discriminated by
// their first column: C (comment/control), I (header declaring column names
// for one sub-table) and D (data, positional against the most recent I row
// of the same sub-table). The first four columns of every row identify the
// row and are the only positions that may be read without a header.
package nemcsv

import (
	"strconv"
	"strings"
	"time"
)

// MarketZone is the single civil timezone all feed timestamps are
// normalized to: AEST, UTC+10, no daylight saving.
var MarketZone = time.FixedZone("AEST", 10*60*60)

const timeLayout = "2006/01/02 15:04:05"

// IDColumns is the count of universal identification columns
// (record type, report, sub-table, version) present on every row.
const IDColumns = 4

// Fields splits one report line on commas and strips the surrounding
// quotes NEMWEB places around dates and some identifiers. Field values in
// these reports never contain embedded commas.
func Fields(line string) []string {
	parts := strings.Split(line, ",")
	for i, p := range parts {
		parts[i] = Unquote(p)
	}
	return parts
}

// Unquote trims whitespace and one layer of surrounding double quotes.
func Unquote(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

// ParseTime decodes a report timestamp ("2006/01/02 15:04:05") in MarketZone.
func ParseTime(raw string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, Unquote(raw), MarketZone)
}

// FormatTime renders t in the report timestamp layout.
func FormatTime(t time.Time) string {
	return t.In(MarketZone).Format(timeLayout)
}

// FloatOrZero decodes a numeric field, yielding 0.0 for empty,
// whitespace-only or non-numeric input. Flow and telemetry fields use this
// default; decoding never fails.
func FloatOrZero(raw string) float64 {
	s := Unquote(raw)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// OptionalFloat decodes a numeric field, yielding nil for empty or
// non-numeric input. Optional analytic fields use this so absence stays
// distinguishable from zero.
func OptionalFloat(raw string) *float64 {
	s := Unquote(raw)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// OptionalInt decodes an integer field, yielding nil for empty or
// non-numeric input. Accepts float renderings of whole numbers, which some
// report versions emit for condition levels.
func OptionalInt(raw string) *int {
	s := Unquote(raw)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return nil
		}
		v = int(f)
	}
	return &v
}

// ColumnIndex maps column names to positions for one sub-table. It is built
// from an I row and passed explicitly to row decoders; a new I row for the
// same sub-table replaces it, so column lookup survives report-version
// changes that reorder or insert columns mid-stream.
type ColumnIndex map[string]int

// HeaderIndex builds a ColumnIndex from the fields of an I row.
func HeaderIndex(fields []string) ColumnIndex {
	idx := make(ColumnIndex, len(fields))
	for i, name := range fields {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		idx[name] = i
	}
	return idx
}

// Field returns the named column from a data row, or "" when the column is
// unknown or the row is too short.
func (ci ColumnIndex) Field(fields []string, name string) string {
	i, ok := ci[name]
	if !ok || i >= len(fields) {
		return ""
	}
	return fields[i]
}

// Float returns the named column decoded with OptionalFloat.
func (ci ColumnIndex) Float(fields []string, name string) *float64 {
	return OptionalFloat(ci.Field(fields, name))
}

// FloatOrZero returns the named column decoded with FloatOrZero.
func (ci ColumnIndex) FloatOrZero(fields []string, name string) float64 {
	return FloatOrZero(ci.Field(fields, name))
}

// Int returns the named column decoded with OptionalInt.
func (ci ColumnIndex) Int(fields []string, name string) *int {
	return OptionalInt(ci.Field(fields, name))
}

// Time returns the named column decoded as a report timestamp; the zero
// time when absent or malformed.
func (ci ColumnIndex) Time(fields []string, name string) time.Time {
	raw := ci.Field(fields, name)
	if raw == "" {
		return time.Time{}
	}
	t, err := ParseTime(raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
