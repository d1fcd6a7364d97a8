package synthetic

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"power-market-lab/internal/domain"
)

var testDate = time.Date(2025, 11, 19, 0, 0, 0, 0, time.UTC)

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(testDate, domain.DayRolePrimary)
	b := Generate(testDate, domain.DayRolePrimary)

	assert.Equal(t, a, b)
}

func TestGenerate_IgnoresTimeOfDay(t *testing.T) {
	a := Generate(testDate, domain.DayRolePrimary)
	b := Generate(testDate.Add(15*time.Hour+7*time.Minute), domain.DayRolePrimary)

	assert.Equal(t, a, b)
}

func TestGenerate_RolesAndDatesDiffer(t *testing.T) {
	primary := Generate(testDate, domain.DayRolePrimary)
	reference := Generate(testDate, domain.DayRoleReference)
	nextDay := Generate(testDate.AddDate(0, 0, 1), domain.DayRolePrimary)

	assert.NotEqual(t, primary, reference)

	differs := false
	for i := range primary {
		if *primary[i].ActualLoad != *nextDay[i].ActualLoad {
			differs = true
		}
	}
	assert.True(t, differs)
}

func TestGenerate_Shape(t *testing.T) {
	records := Generate(testDate, domain.DayRolePrimary)

	require.Len(t, records, 24)
	for i, rec := range records {
		assert.Equal(t, i+1, rec.HE)
		assert.Equal(t, testDate, rec.Date)
		assert.Equal(t, domain.ProvenanceSynthetic, rec.Provenance)

		require.NotNil(t, rec.ActualLoad)
		require.NotNil(t, rec.ForecastLoad)
		require.NotNil(t, rec.ActualPrice)
		require.NotNil(t, rec.ForecastPrice)
		require.NotNil(t, rec.SystemMarginalPrice)
		require.NotNil(t, rec.CushionMw)
		assert.Greater(t, *rec.ActualLoad, 0.0)
		assert.Greater(t, *rec.ActualPrice, 0.0)
		assert.Nil(t, rec.ReferencePrice)

		require.Len(t, rec.Interties, 3)
		assert.Equal(t, "BC", rec.Interties[0].Path)
		assert.Equal(t, "MATL", rec.Interties[1].Path)
		assert.Equal(t, "SK", rec.Interties[2].Path)
	}
}

func TestGenerate_SolarIsZeroAtNight(t *testing.T) {
	records := Generate(testDate, domain.DayRolePrimary)

	assert.Equal(t, 0.0, *records[0].SolarForecast)
	assert.Equal(t, 0.0, *records[0].SolarActual)
	assert.Greater(t, *records[11].SolarForecast, 0.0)
}

func TestGenerate_CushionConsistency(t *testing.T) {
	for _, role := range []domain.DayRole{domain.DayRolePrimary, domain.DayRoleReference} {
		for _, rec := range Generate(testDate, role) {
			require.NotNil(t, rec.CushionPercent, "HE %d", rec.HE)
			assert.InDelta(t, *rec.CushionMw / *rec.ActualLoad, *rec.CushionPercent, 1e-12)
			assert.Equal(t, domain.ClassifyCushion(rec.CushionPercent), rec.CushionFlag)
		}
	}
}

func TestGenerate_CapabilityPartitionSums(t *testing.T) {
	for d := 0; d < 30; d++ {
		date := testDate.AddDate(0, 0, d)
		for _, rec := range Generate(date, domain.DayRolePrimary) {
			require.Len(t, rec.CapabilityByFuel, len(Fuels))

			available := 0
			for i, fc := range rec.CapabilityByFuel {
				assert.Equal(t, Fuels[i], fc.Fuel)
				assert.GreaterOrEqual(t, fc.AvailableMw, 0)
				assert.GreaterOrEqual(t, fc.OutageMw, 0)
				available += fc.AvailableMw
			}
			// available capability is cushion plus load by construction
			assert.Equal(t, int(math.Round(*rec.CushionMw+*rec.ActualLoad)), available)
		}
	}
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name   string
		total  float64
		shares []float64
	}{
		{"even", 100, []float64{1, 1, 1}},
		{"fractional total", 1234.6, []float64{0.5, 0.3, 0.2}},
		{"unnormalized", 999.4, []float64{3, 7, 11, 13}},
		{"single", 42.5, []float64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := Partition(tt.total, tt.shares)
			require.Len(t, parts, len(tt.shares))
			sum := 0
			for _, p := range parts {
				sum += p
			}
			assert.Equal(t, int(math.Round(tt.total)), sum)
		})
	}

	assert.Nil(t, Partition(10, nil))
	assert.Equal(t, []int{0, 10}, Partition(10, []float64{0, 0}))
}

func TestNoise_Range(t *testing.T) {
	for seed := 0.0; seed < 50; seed += 0.7 {
		for he := 1; he <= 24; he++ {
			v := noise(seed, he)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.Less(t, v, 1.0)
		}
	}
}

func TestStepPriceDecreasing(t *testing.T) {
	prev := math.Inf(1)
	for p := -0.05; p < 0.4; p += 0.01 {
		price := stepPrice(domain.Float(p))
		assert.LessOrEqual(t, price, prev)
		prev = price
	}
	assert.Equal(t, priceSteps[0].price, stepPrice(nil))
}

func TestTightness(t *testing.T) {
	assert.Equal(t, 1.0, tightness(nil))
	assert.Equal(t, 0.0, tightness(domain.Float(0.2)))
	assert.Equal(t, 1.0, tightness(domain.Float(-0.1)))
	assert.InDelta(t, 0.5, tightness(domain.Float(0.06)), 1e-12)
}
