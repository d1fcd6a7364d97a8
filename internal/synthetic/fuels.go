package synthetic

import (
	"math"

	"power-market-lab/internal/domain"
)

// Fuels is the fixed fuel list, in partition order.
var Fuels = []string{"GAS", "HYDRO", "WIND", "SOLAR", "STORAGE", "OTHER"}

var (
	availableWeights = []float64{0.62, 0.08, 0.16, 0.06, 0.02, 0.06}
	outageWeights    = []float64{0.78, 0.07, 0.05, 0.02, 0.02, 0.06}
)

// Partition splits round(total) into integer parts proportional to shares.
// Every part but the last is floored and the last absorbs the remainder, so the
// parts always sum to round(total).
func Partition(total float64, shares []float64) []int {
	if len(shares) == 0 {
		return nil
	}
	var weight float64
	for _, s := range shares {
		weight += s
	}
	rounded := int(math.Round(total))
	parts := make([]int, len(shares))
	if weight <= 0 {
		parts[len(parts)-1] = rounded
		return parts
	}

	sum := 0
	for i := 0; i < len(shares)-1; i++ {
		parts[i] = int(math.Floor(total * shares[i] / weight))
		sum += parts[i]
	}
	parts[len(parts)-1] = rounded - sum
	return parts
}

// jitter perturbs weights deterministically per HE.
func (s stream) jitter(weights []float64, field float64, he int) []float64 {
	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = w * s.between(field+float64(i)*3.1, he, 0.85, 1.15)
	}
	return out
}

func (s stream) capability(available, outage float64, he int) []domain.FuelCapability {
	avail := Partition(available, s.jitter(availableWeights, seedFuel, he))
	out := Partition(outage, s.jitter(outageWeights, seedFuel+100, he))

	caps := make([]domain.FuelCapability, len(Fuels))
	for i, fuel := range Fuels {
		caps[i] = domain.FuelCapability{Fuel: fuel, AvailableMw: avail[i], OutageMw: out[i]}
	}
	return caps
}
