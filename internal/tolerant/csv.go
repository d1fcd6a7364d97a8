// Package tolerant provides forgiving readers for loosely structured report text:
// quoted CSV lines and irregular HTML tables.
package tolerant

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// SplitLine splits one CSV line on commas, honoring a single level of double-quote
// enclosure. Enclosing quotes are dropped, a doubled quote inside a quoted field
// collapses to one quote, and each field is trimmed.
// A line with N unquoted commas always yields N+1 fields.
func SplitLine(line string) []string {
	line = strings.TrimRight(line, "\r\n")

	var fields []string
	var sb strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				sb.WriteByte('"')
				i++ // skip escaped quote
				continue
			}
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(sb.String()))
			sb.Reset()
		default:
			sb.WriteByte(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(sb.String()))

	return fields
}

// StripQuotes trims whitespace and one pair of surrounding double quotes.
func StripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// numberReplacer removes currency symbols, thousands separators and percent signs.
var numberReplacer = strings.NewReplacer("$", "", ",", "", "%", "", " ", "", "\u00a0", "")

// decimalPattern accepts plain decimal numbers with an optional exponent.
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// NumberOrNull coerces a currency- or number-like field to a float.
// Returns nil for "", "-", unparsable text and non-finite results.
func NumberOrNull(field string) *float64 {
	s := StripQuotes(field)
	s = numberReplacer.Replace(s)
	if !decimalPattern.MatchString(s) {
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Field returns fields[i], or "" when the row is too short.
func Field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

// Lines splits text into non-blank lines, tolerating CRLF endings and a UTF-8 BOM.
func Lines(text string) []string {
	text = strings.TrimPrefix(text, "\ufeff")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
