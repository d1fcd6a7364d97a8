package tolerant

import (
	"html"
	"regexp"
	"strings"
)

// DefaultHeaderLookahead is how many rows after the marker row are scanned
// for the hour-ending header.
const DefaultHeaderLookahead = 3

var (
	tableTagPattern = regexp.MustCompile(`(?i)<(/?)table\b[^>]*>`)
	rowOpenPattern  = regexp.MustCompile(`(?i)<tr\b[^>]*>`)
	rowEndPattern   = regexp.MustCompile(`(?i)</tr\s*>|</table\s*>`)
	cellPattern     = regexp.MustCompile(`(?is)<t[dh]\b[^>]*>(.*?)</t[dh]\s*>`)
	breakPattern    = regexp.MustCompile(`(?i)<br\s*/?>`)
	tagPattern      = regexp.MustCompile(`(?s)<[^>]*>`)
	nbspPattern     = regexp.MustCompile(`(?i)&nbsp;?|&#160;|&#xa0;`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// tableSpan locates one <table> element in the source document.
type tableSpan struct {
	start int // offset of "<table"
	end   int // offset just past "</table>" (or end of input when unclosed)
}

// FindTable returns the innermost table whose content contains marker
// (case-insensitive). When no table contains the marker the first table in the
// document is returned and matched is false. Returns "" when there is no table.
func FindTable(src, marker string) (table string, matched bool) {
	spans := tableSpans(src)
	if len(spans) == 0 {
		return "", false
	}

	if marker != "" {
		lowerSrc := asciiLower(src)
		lowerMarker := asciiLower(marker)
		from := 0
		for {
			idx := strings.Index(lowerSrc[from:], lowerMarker)
			if idx < 0 {
				break
			}
			pos := from + idx
			if best, ok := innermost(spans, pos, pos+len(lowerMarker)); ok {
				return src[best.start:best.end], true
			}
			from = pos + len(lowerMarker)
		}
	}

	first := spans[0]
	for _, s := range spans[1:] {
		if s.start < first.start {
			first = s
		}
	}
	return src[first.start:first.end], false
}

// tableSpans pairs opening and closing table tags, honoring nesting.
func tableSpans(src string) []tableSpan {
	var spans []tableSpan
	var stack []int

	for _, m := range tableTagPattern.FindAllStringSubmatchIndex(src, -1) {
		closing := m[3] > m[2]
		if !closing {
			stack = append(stack, m[0])
			continue
		}
		if len(stack) == 0 {
			continue // stray closing tag
		}
		open := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		spans = append(spans, tableSpan{start: open, end: m[1]})
	}

	// Unclosed tables run to the end of input
	for _, open := range stack {
		spans = append(spans, tableSpan{start: open, end: len(src)})
	}

	return spans
}

// innermost returns the smallest span that encloses [from, to).
func innermost(spans []tableSpan, from, to int) (tableSpan, bool) {
	var best tableSpan
	found := false
	for _, s := range spans {
		if s.start <= from && to <= s.end {
			if !found || s.end-s.start < best.end-best.start {
				best = s
				found = true
			}
		}
	}
	return best, found
}

// Rows splits a table fragment into row fragments. Attributes on <tr> are
// tolerated, as are rows missing their closing tag.
func Rows(table string) []string {
	locs := rowOpenPattern.FindAllStringIndex(table, -1)
	rows := make([]string, 0, len(locs))

	for i, loc := range locs {
		end := len(table)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		segment := table[loc[1]:end]
		if cut := rowEndPattern.FindStringIndex(segment); cut != nil {
			segment = segment[:cut[0]]
		}
		rows = append(rows, segment)
	}

	return rows
}

// Cells extracts cleaned text from every <td>/<th> pair in a row fragment.
func Cells(row string) []string {
	matches := cellPattern.FindAllStringSubmatch(row, -1)
	cells := make([]string, 0, len(matches))
	for _, m := range matches {
		cells = append(cells, CleanText(m[1]))
	}
	return cells
}

// CleanText strips tags, turns <br> and non-breaking spaces into single spaces,
// unescapes entities and collapses whitespace.
func CleanText(s string) string {
	s = breakPattern.ReplaceAllString(s, " ")
	s = nbspPattern.ReplaceAllString(s, " ")
	s = tagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Table is a convenience returning the cell grid of the table chosen by FindTable.
func Table(src, marker string) (grid [][]string, matched bool) {
	table, matched := FindTable(src, marker)
	if table == "" {
		return nil, false
	}
	for _, row := range Rows(table) {
		grid = append(grid, Cells(row))
	}
	return grid, matched
}

// HourHeader describes the hour-ending header row of a table.
type HourHeader struct {
	MarkerRow int         // row containing the marker text
	Row       int         // row carrying the "1".."24" literals
	Columns   map[int]int // column index -> HE
}

// FirstColumn returns the lowest column index carrying an HE label.
func (h HourHeader) FirstColumn() int {
	first := -1
	for col := range h.Columns {
		if first < 0 || col < first {
			first = col
		}
	}
	return first
}

// minHeaderHours is the number of distinct HE literals a row needs to qualify
// as the hour header (23 keeps short DST days).
const minHeaderHours = 23

// FindHourHeader locates the row containing marker and then scans that row and
// up to lookahead following rows for a row of literal "1".."24" cells.
// Returns false when either the marker or the header row cannot be found.
func FindHourHeader(grid [][]string, marker string, lookahead int) (HourHeader, bool) {
	if lookahead < 0 {
		lookahead = DefaultHeaderLookahead
	}

	markerRow := -1
	lowerMarker := asciiLower(marker)
	for i, row := range grid {
		for _, cell := range row {
			if strings.Contains(asciiLower(cell), lowerMarker) {
				markerRow = i
				break
			}
		}
		if markerRow >= 0 {
			break
		}
	}
	if markerRow < 0 {
		return HourHeader{}, false
	}

	for r := markerRow; r <= markerRow+lookahead && r < len(grid); r++ {
		cols := make(map[int]int)
		seen := make(map[int]bool)
		for c, cell := range grid[r] {
			he, ok := hourLiteral(cell)
			if !ok || seen[he] {
				continue
			}
			seen[he] = true
			cols[c] = he
		}
		if len(seen) >= minHeaderHours && seen[1] {
			return HourHeader{MarkerRow: markerRow, Row: r, Columns: cols}, true
		}
	}

	return HourHeader{}, false
}

// hourLiteral parses a cell that is exactly an integer 1..24.
func hourLiteral(cell string) (int, bool) {
	if len(cell) == 0 || len(cell) > 2 {
		return 0, false
	}
	n := 0
	for i := 0; i < len(cell); i++ {
		if cell[i] < '0' || cell[i] > '9' {
			return 0, false
		}
		n = n*10 + int(cell[i]-'0')
	}
	if n < 1 || n > 24 || (len(cell) == 2 && cell[0] == '0') {
		return 0, false
	}
	return n, true
}

// asciiLower lowercases A-Z only, keeping byte offsets aligned with the input.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// IndexFold returns the offset of the first ASCII case-insensitive match of
// substr in s at or after from, or -1.
func IndexFold(s, substr string, from int) int {
	if from < 0 {
		from = 0
	}
	if from > len(s) {
		return -1
	}
	idx := strings.Index(asciiLower(s[from:]), asciiLower(substr))
	if idx < 0 {
		return -1
	}
	return from + idx
}

// NextCell returns the cleaned text of the first complete <td>/<th> cell at or
// after from, plus the offset just past it.
func NextCell(s string, from int) (text string, end int, ok bool) {
	if from < 0 || from > len(s) {
		return "", -1, false
	}
	loc := cellPattern.FindStringSubmatchIndex(s[from:])
	if loc == nil {
		return "", -1, false
	}
	return CleanText(s[from+loc[2] : from+loc[3]]), from + loc[1], true
}
