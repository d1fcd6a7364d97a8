package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"power-market-lab/internal/domain"
	"power-market-lab/internal/reconcile"
	"power-market-lab/internal/reports"
	"power-market-lab/internal/synthetic"
)

var (
	testDate = time.Date(2025, 11, 18, 0, 0, 0, 0, time.UTC)
	fixedNow = func() time.Time { return time.Date(2025, 11, 18, 12, 30, 0, 0, time.UTC) }
)

const actualForecastCSV = `Date (HE),Forecast Pool Price,Actual Posted Pool Price,Forecast AIL,Actual AIL
"11/18/2025 05",25.10,22.00,9500,9400
"11/18/2025 06","$31.00",,9600,
`

const windCSV = `Date,Most Likely,Actual
2025-11-18 10:00,90,100
2025-11-18 10:30,110,120
`

const supplyDemandHTML = `<table>
<tr><td>Net Actual Interchange</td><td>-400</td></tr>
<tr><td>British Columbia</td><td>-250</td></tr>
<tr><td>Montana</td><td>75</td></tr>
</table>`

func capabilityHTML() string {
	var sb strings.Builder
	sb.WriteString(`<table><tr><th colspan="26">Hour Ending</th></tr><tr><th>Fuel</th><th>Date</th>`)
	for he := 1; he <= 24; he++ {
		fmt.Fprintf(&sb, "<th>%d</th>", he)
	}
	sb.WriteString("</tr>")
	for _, row := range []struct {
		label, date string
		base        int
	}{
		{`<td rowspan="2">GAS</td>`, "17-Nov-25", 70},
		{"", "18-Nov-25", 80},
	} {
		sb.WriteString("<tr>" + row.label + "<td>" + row.date + "</td>")
		for he := 1; he <= 24; he++ {
			fmt.Fprintf(&sb, "<td>%d%%</td>", row.base)
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</table>")
	return sb.String()
}

func TestAssemble_NoReportsIsSynthetic(t *testing.T) {
	view := Assemble(testDate, NewRawReports(), Reference{}, Options{Now: fixedNow})

	assert.Equal(t, synthetic.Generate(testDate, domain.DayRolePrimary), view.Records)
	assert.Equal(t, 0, view.LiveHours)
	assert.Nil(t, view.Capability)
	assert.NotEmpty(t, view.SnapshotID)
	assert.Equal(t, fixedNow(), view.GeneratedAt)
	assert.Equal(t, reports.StatusEmpty, view.Debug[reports.ReportReference].Status)
}

func TestAssemble_ActualForecastOverlay(t *testing.T) {
	raw := NewRawReports()
	raw.Set(KeyActualForecast, actualForecastCSV)

	view := Assemble(testDate, raw, Reference{}, Options{NullPolicy: reconcile.DefaultNullPolicy(), Now: fixedNow})

	require.Len(t, view.Records, 24)
	assert.Equal(t, 2, view.LiveHours)
	assert.Equal(t, reports.StatusOK, view.Debug[KeyActualForecast].Status)

	he5, ok := view.Record(5)
	require.True(t, ok)
	assert.Equal(t, domain.ProvenanceLiveAugmented, he5.Provenance)
	assert.Equal(t, 25.10, *he5.ForecastPrice)
	assert.Equal(t, 22.00, *he5.ActualPrice)
	assert.Equal(t, 9400.0, *he5.ActualLoad)
	require.NotNil(t, he5.CushionPercent)
	assert.InDelta(t, *he5.CushionMw / 9400, *he5.CushionPercent, 1e-9)

	// Blank actual load retains the baseline under the default policy.
	baseline := synthetic.Generate(testDate, domain.DayRolePrimary)
	he6, _ := view.Record(6)
	assert.Equal(t, 31.0, *he6.ForecastPrice)
	assert.Equal(t, *baseline[5].ActualLoad, *he6.ActualLoad)

	he7, _ := view.Record(7)
	assert.Equal(t, domain.ProvenanceSynthetic, he7.Provenance)
}

func TestAssemble_BlankPolicyClearsLoad(t *testing.T) {
	raw := NewRawReports()
	raw.Set(KeyActualForecast, actualForecastCSV)
	policy, err := reconcile.ParseNullPolicy("retain,actual_load=blank")
	require.NoError(t, err)

	view := Assemble(testDate, raw, Reference{}, Options{NullPolicy: policy})

	he6, _ := view.Record(6)
	assert.Nil(t, he6.ActualLoad)
	assert.Nil(t, he6.CushionPercent)
	assert.Equal(t, domain.CushionUnknown, he6.CushionFlag)
}

func TestAssemble_FetchFailure(t *testing.T) {
	raw := NewRawReports()
	raw.Fail(KeyActualForecast, errors.New("connection refused"))
	raw.Set(KeyWind, "")

	view := Assemble(testDate, raw, Reference{}, Options{})

	af := view.Debug[KeyActualForecast]
	assert.Equal(t, reports.StatusFetchFailed, af.Status)
	assert.Equal(t, "connection refused", af.Reason)
	assert.Equal(t, reports.StatusEmpty, view.Debug[KeyWind].Status)
	assert.Equal(t, KeyWind, view.Debug[KeyWind].Report)
	assert.Equal(t, 0, view.LiveHours)
	_, requested := view.Debug[KeySolar]
	assert.False(t, requested)
}

func TestAssemble_RenewablesInMarketZone(t *testing.T) {
	raw := NewRawReports()
	raw.Set(KeyWind, windCSV)

	view := Assemble(testDate, raw, Reference{}, Options{
		SourceLocation: time.UTC,
		MarketLocation: time.UTC,
	})

	he11, _ := view.Record(11)
	assert.Equal(t, 110.0, *he11.WindActual)
	assert.Equal(t, 100.0, *he11.WindForecast)
	assert.Equal(t, domain.ProvenanceLiveAugmented, he11.Provenance)
}

func TestAssemble_InterchangeAppliesToCurrentHour(t *testing.T) {
	raw := NewRawReports()
	raw.Set(KeySupplyDemand, supplyDemandHTML)

	view := Assemble(testDate, raw, Reference{}, Options{CurrentHE: 13})

	assert.Equal(t, -400, view.Interchange.Values[reports.LabelNetInterchange])
	he13, _ := view.Record(13)
	assert.Equal(t, domain.ProvenanceLiveAugmented, he13.Provenance)
	flows := map[string]float64{}
	for _, it := range he13.Interties {
		flows[it.Path] = it.ActualMw
	}
	assert.Equal(t, -250.0, flows["BC"])
	assert.Equal(t, 75.0, flows["MATL"])
	assert.Equal(t, 1, view.LiveHours)

	// Without a current hour the snapshot is reported but not merged.
	view = Assemble(testDate, raw, Reference{}, Options{})
	assert.Equal(t, 0, view.LiveHours)
	assert.Equal(t, -250, view.Interchange.Values[reports.LabelBritishColumbia])
}

func TestAssemble_CapabilityView(t *testing.T) {
	raw := NewRawReports()
	raw.Set(KeyCapability, capabilityHTML())

	view := Assemble(testDate, raw, Reference{}, Options{CurrentHE: 13})

	require.NotNil(t, view.Capability)
	assert.True(t, view.Capability.Requested)
	assert.Equal(t, testDate, view.Capability.Date)
	require.Len(t, view.Capability.DailyAverage, 1)
	assert.Equal(t, "GAS", view.Capability.DailyAverage[0].Fuel)
	assert.Equal(t, 80.0, view.Capability.DailyAverage[0].Percent)
	assert.Equal(t, 24, view.Capability.DailyAverage[0].Hours)
	require.Len(t, view.Capability.Current, 1)
	assert.Equal(t, 13, view.Capability.HE)
	assert.Len(t, view.Capability.Dates, 2)

	// A date outside the report falls back to the most recent one.
	later := testDate.AddDate(0, 0, 3)
	view = Assemble(later, raw, Reference{}, Options{})
	require.NotNil(t, view.Capability)
	assert.False(t, view.Capability.Requested)
	assert.Equal(t, testDate, view.Capability.Date)
	assert.Nil(t, view.Capability.Current)
}

func TestAssemble_AttachesReference(t *testing.T) {
	ref := SyntheticReference(testDate)

	view := Assemble(testDate, NewRawReports(), ref, Options{})

	assert.Equal(t, ReferenceSynthetic, view.Reference.Source)
	for i, r := range view.Records {
		require.NotNil(t, r.ReferenceLoad, "HE %d", r.HE)
		assert.Equal(t, *ref.Records[i].ActualLoad, *r.ReferenceLoad)
	}
	assert.Len(t, view.Reference.NetFlow, 24)
	assert.Equal(t, reports.StatusOK, view.Debug[reports.ReportReference].Status)
}

func TestAssemble_SnapshotIDTracksContent(t *testing.T) {
	raw := NewRawReports()
	raw.Set(KeyActualForecast, actualForecastCSV)

	a := Assemble(testDate, raw, Reference{}, Options{Now: fixedNow})
	b := Assemble(testDate, raw, Reference{}, Options{Now: time.Now})
	assert.Equal(t, a.SnapshotID, b.SnapshotID)
	assert.Equal(t, a.SourceDigests, b.SourceDigests)

	raw.Set(KeyActualForecast, strings.Replace(actualForecastCSV, "9400", "9401", 1))
	c := Assemble(testDate, raw, Reference{}, Options{})
	assert.NotEqual(t, a.SnapshotID, c.SnapshotID)
	assert.NotEqual(t, a.SourceDigests[KeyActualForecast], c.SourceDigests[KeyActualForecast])
}

func TestDayView_DebugListOrder(t *testing.T) {
	raw := NewRawReports()
	raw.Set(KeySolar, "")
	raw.Set(KeyActualForecast, "")

	view := Assemble(testDate, raw, Reference{}, Options{})

	var names []string
	for _, d := range view.DebugList() {
		names = append(names, d.Report)
	}
	assert.Equal(t, []string{KeyActualForecast, KeySolar, reports.ReportReference}, names)
}
