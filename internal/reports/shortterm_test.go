package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShortTermRenewable_AveragesBucket(t *testing.T) {
	text := "Short term wind report\n" +
		"Forecast Transaction Date,Most Likely,Actual\n" +
		"2025-11-19 10:00,90,100\n" +
		"2025-11-19 10:30,,120\n" +
		"2025-11-19 11:10,80,\n" +
		"2025-11-20 10:00,1,1\n"

	hours, debug := ParseShortTermRenewable(text, RenewableOptions{
		TargetDate: time.Date(2025, 11, 19, 0, 0, 0, 0, time.UTC),
	})

	require.Contains(t, hours, 11)
	assert.InDelta(t, 110, *hours[11].Actual, 1e-9)
	assert.InDelta(t, 90, *hours[11].Forecast, 1e-9)
	assert.Equal(t, 2, hours[11].Readings)

	require.Contains(t, hours, 12)
	assert.Nil(t, hours[12].Actual)
	assert.InDelta(t, 80, *hours[12].Forecast, 1e-9)

	assert.Len(t, hours, 2)
	assert.Equal(t, 1, debug.Skipped)
	assert.Equal(t, StatusOK, debug.Status)
	assert.Equal(t, []string{"2025-11-19"}, debug.Dates)
}

func TestParseShortTermRenewable_ConvertsZones(t *testing.T) {
	mst := time.FixedZone("MST", -7*60*60)
	text := "Date,Actual\n" +
		"11/19/2025 17:00:00,40\n" + // 10:00 MST
		"11/19/2025 06:30,55\n" // 23:30 MST on the 18th

	hours, debug := ParseShortTermRenewable(text, RenewableOptions{
		TargetDate:     time.Date(2025, 11, 19, 0, 0, 0, 0, mst),
		SourceLocation: time.UTC,
		MarketLocation: mst,
	})

	require.Len(t, hours, 1)
	require.Contains(t, hours, 11)
	assert.InDelta(t, 40, *hours[11].Actual, 1e-9)
	assert.Equal(t, 1, debug.Skipped)
}

func TestParseShortTermRenewable_TimestampFallsBackToFirstColumn(t *testing.T) {
	text := "When,Actual\n2025-11-19 00:15,12\n"

	hours, _ := ParseShortTermRenewable(text, RenewableOptions{})

	require.Contains(t, hours, 1)
	assert.InDelta(t, 12, *hours[1].Actual, 1e-9)
}

func TestParseShortTermRenewable_NoActualColumn(t *testing.T) {
	hours, debug := ParseShortTermRenewable("Date,Value\n2025-11-19 00:15,12\n", RenewableOptions{})

	assert.Empty(t, hours)
	assert.Equal(t, StatusEmpty, debug.Status)
	assert.Equal(t, "no Actual column in header", debug.Reason)
}

func TestFetchFailed(t *testing.T) {
	d := FetchFailed(ReportShortTerm, assert.AnError)

	assert.Equal(t, StatusFetchFailed, d.Status)
	assert.Equal(t, assert.AnError.Error(), d.Reason)
	assert.Equal(t, ReportShortTerm, d.Report)
}

func TestParseShortTermRenewable_PrefersReadingDateColumn(t *testing.T) {
	text := "Forecast Transaction Date,Date,Min,Most Likely,Max,Actual\n" +
		"2025-11-19 06:05,2025-11-19 10:00,80,90,95,100\n" +
		"2025-11-19 06:05,2025-11-19 10:30,80,90,95,120\n"

	hours, debug := ParseShortTermRenewable(text, RenewableOptions{
		TargetDate: time.Date(2025, 11, 19, 0, 0, 0, 0, time.UTC),
	})

	require.Len(t, hours, 1)
	require.Contains(t, hours, 11)
	assert.InDelta(t, 110, *hours[11].Actual, 1e-9)
	assert.InDelta(t, 90, *hours[11].Forecast, 1e-9)
	assert.Equal(t, StatusOK, debug.Status)
}
