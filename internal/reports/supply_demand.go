package reports

import (
	"regexp"
	"strconv"
	"strings"

	"power-market-lab/internal/tolerant"
)

// Supply/demand labels read by default.
const (
	LabelNetInterchange  = "Net Actual Interchange"
	LabelBritishColumbia = "British Columbia"
	LabelMontana         = "Montana"
	LabelSaskatchewan    = "Saskatchewan"
	LabelInternalLoad    = "Alberta Internal Load (AIL)"
)

// DefaultSupplyDemandLabels is the label set read when none is configured.
var DefaultSupplyDemandLabels = []string{
	LabelNetInterchange,
	LabelBritishColumbia,
	LabelMontana,
	LabelSaskatchewan,
	LabelInternalLoad,
}

// IntertiePaths maps supply/demand labels to intertie path codes.
var IntertiePaths = map[string]string{
	LabelBritishColumbia: "BC",
	LabelMontana:         "MATL",
	LabelSaskatchewan:    "SK",
}

var signedIntegerPattern = regexp.MustCompile(`[-+]?\d[\d,]*`)

// InterchangeSnapshot holds the signed MW values found per label.
type InterchangeSnapshot struct {
	Values  map[string]int `json:"values"`
	Missing []string       `json:"missing,omitempty"`
}

// Value returns the value for label.
func (s InterchangeSnapshot) Value(label string) (int, bool) {
	v, ok := s.Values[label]
	return v, ok
}

// ParseSupplyDemand reads each label's value from the cell that follows it.
// Labels are independent: a missing label does not affect the others.
func ParseSupplyDemand(html string, labels []string) (InterchangeSnapshot, Debug) {
	debug := NewDebug(ReportSupplyDemand)
	if len(labels) == 0 {
		labels = DefaultSupplyDemandLabels
	}
	snap := InterchangeSnapshot{Values: make(map[string]int)}
	debug.Lines = strings.Count(html, "\n") + 1

	if strings.TrimSpace(html) == "" {
		snap.Missing = append(snap.Missing, labels...)
		debug.Missing = snap.Missing
		debug.Finish(0, "empty input")
		return snap, debug
	}

	for _, label := range labels {
		v, ok := labelValue(html, label)
		if !ok {
			snap.Missing = append(snap.Missing, label)
			continue
		}
		snap.Values[label] = v
		debug.Sample("%s=%d", label, v)
	}

	debug.Rows = len(labels)
	debug.Cells = len(snap.Values)
	debug.Skipped = len(snap.Missing)
	debug.Missing = snap.Missing
	debug.Finish(len(snap.Values), "no labels found")
	return snap, debug
}

// labelValue tries each occurrence of label until the following cell holds an integer.
func labelValue(html, label string) (int, bool) {
	for from := 0; ; {
		idx := tolerant.IndexFold(html, label, from)
		if idx < 0 {
			return 0, false
		}
		from = idx + len(label)
		text, _, ok := tolerant.NextCell(html, from)
		if !ok {
			return 0, false
		}
		if v, ok := signedInteger(text); ok {
			return v, true
		}
	}
}

func signedInteger(text string) (int, bool) {
	text = strings.ReplaceAll(text, "\u2212", "-")
	m := signedIntegerPattern.FindString(text)
	if m == "" {
		return 0, false
	}
	v, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return 0, false
	}
	return v, true
}
