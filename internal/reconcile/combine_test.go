package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"power-market-lab/internal/domain"
	"power-market-lab/internal/reports"
	"power-market-lab/internal/synthetic"
)

func TestCombine_EarlierWins(t *testing.T) {
	first := domain.LiveSet{1: domain.NewLiveHour(1)}
	first[1].Set(domain.FieldActualLoad, domain.Float(9000))
	first[1].Set(domain.FieldActualPrice, nil)
	first[1].SetIntertie("BC", -100)

	second := domain.LiveSet{1: domain.NewLiveHour(1), 2: domain.NewLiveHour(2)}
	second[1].Set(domain.FieldActualLoad, domain.Float(1))
	second[1].Set(domain.FieldActualPrice, domain.Float(99))
	second[1].Set(domain.FieldWindActual, domain.Float(700))
	second[1].SetIntertie("BC", 5)
	second[1].SetIntertie("SK", 6)
	second[2].Set(domain.FieldSolarActual, domain.Float(0))

	out := Combine(first, second)

	require.Len(t, out, 2)
	assert.Equal(t, 9000.0, *out[1].Values[domain.FieldActualLoad])
	v, covered := out[1].Values[domain.FieldActualPrice]
	assert.True(t, covered)
	assert.Nil(t, v)
	assert.Equal(t, 700.0, *out[1].Values[domain.FieldWindActual])
	assert.Equal(t, map[string]float64{"BC": -100, "SK": 6}, out[1].Interties)
	assert.Equal(t, 0.0, *out[2].Values[domain.FieldSolarActual])
}

func TestCombine_CopiesValues(t *testing.T) {
	in := domain.LiveSet{3: domain.NewLiveHour(3)}
	p := domain.Float(10)
	in[3].Set(domain.FieldWindActual, p)

	out := Combine(in)
	*p = 20

	assert.Equal(t, 10.0, *out[3].Values[domain.FieldWindActual])
}

func TestCombine_DropsEmptyAndInvalid(t *testing.T) {
	out := Combine(domain.LiveSet{0: &domain.LiveHour{HE: 0, Values: map[domain.Field]*float64{domain.FieldActualLoad: domain.Float(1)}}, 5: domain.NewLiveHour(5)})

	assert.Empty(t, out)
}

func TestFromActualForecast(t *testing.T) {
	rows := map[int]*reports.ActualForecastRow{
		5: {Date: testDate, HE: 5, ForecastPrice: domain.Float(25.1), ActualLoad: domain.Float(9400)},
	}

	set := FromActualForecast(rows)

	require.Contains(t, set, 5)
	vals := set[5].Values
	assert.Equal(t, 25.1, *vals[domain.FieldForecastPrice])
	assert.Equal(t, 9400.0, *vals[domain.FieldActualLoad])
	actual, covered := vals[domain.FieldActualPrice]
	assert.True(t, covered)
	assert.Nil(t, actual)
	_, covered = vals[domain.FieldSystemMarginalPrice]
	assert.False(t, covered)
}

func TestFromRenewables(t *testing.T) {
	hours := map[int]*reports.RenewableHour{
		11: {HE: 11, Actual: domain.Float(110)},
		12: {HE: 12, Forecast: domain.Float(80)},
		13: {HE: 13},
	}

	set := FromRenewables(hours, domain.FieldWindActual, domain.FieldWindForecast)

	require.Len(t, set, 2)
	assert.Equal(t, 110.0, *set[11].Values[domain.FieldWindActual])
	_, covered := set[11].Values[domain.FieldWindForecast]
	assert.False(t, covered)
	assert.Equal(t, 80.0, *set[12].Values[domain.FieldWindForecast])
}

func TestFromInterchange(t *testing.T) {
	snap := reports.InterchangeSnapshot{Values: map[string]int{
		reports.LabelBritishColumbia: -600,
		reports.LabelMontana:         150,
		reports.LabelInternalLoad:    10412,
	}}

	set := FromInterchange(14, snap)

	require.Contains(t, set, 14)
	assert.Equal(t, map[string]float64{"BC": -600, "MATL": 150}, set[14].Interties)
	assert.Empty(t, set[14].Values)

	assert.Empty(t, FromInterchange(0, snap))
	assert.Empty(t, FromInterchange(3, reports.InterchangeSnapshot{}))
}

func TestAttachReference(t *testing.T) {
	records := []domain.HourlyRecord{baselineRecord(1, 10000, 1000), baselineRecord(2, 10000, 1000)}
	reference := []domain.HourlyRecord{{Date: testDate.AddDate(-1, 0, 0), HE: 1, ActualPrice: domain.Float(33), ActualLoad: domain.Float(9800)}}

	out := AttachReference(records, reference)

	assert.Equal(t, 33.0, *out[0].ReferencePrice)
	assert.Equal(t, 9800.0, *out[0].ReferenceLoad)
	assert.InDelta(t, 200, *out[0].ReferenceLoadDelta(), 1e-9)
	assert.Nil(t, out[1].ReferencePrice)
	assert.Nil(t, records[0].ReferencePrice)
}

func TestEndToEnd_ActualForecastIntoBaseline(t *testing.T) {
	rows, _ := reports.ParseActualForecast(`"11/19/2025 05",25.10,22.00,9500,9400`+"\n", reports.ActualForecastOptions{
		TargetDate: testDate,
	})
	baseline := synthetic.Generate(testDate, domain.DayRolePrimary)

	out := Merge(baseline, FromActualForecast(rows), DefaultNullPolicy())

	rec := out[4]
	require.Equal(t, 5, rec.HE)
	assert.Equal(t, 22.0, *rec.ActualPrice)
	assert.Equal(t, 9400.0, *rec.ActualLoad)
	assert.InDelta(t, *baseline[4].CushionMw-(9400-*baseline[4].ActualLoad), *rec.CushionMw, 1e-9)
	assert.Equal(t, *baseline[4].SystemMarginalPrice, *rec.SystemMarginalPrice)
	assert.Equal(t, time.Date(2025, 11, 19, 0, 0, 0, 0, time.UTC), rec.Date)
}
