package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyCushion(t *testing.T) {
	tests := []struct {
		name    string
		percent *float64
		want    CushionFlag
	}{
		{"nil", nil, CushionUnknown},
		{"NaN", Float(math.NaN()), CushionUnknown},
		{"Inf", Float(math.Inf(1)), CushionUnknown},
		{"negative", Float(-0.01), CushionUnknown},
		{"zero", Float(0), CushionUnknown},
		{"just above zero", Float(0.0001), CushionTight},
		{"below tight", Float(0.0599), CushionTight},
		{"exactly tight boundary", Float(0.06), CushionWatch},
		{"between", Float(0.09), CushionWatch},
		{"exactly watch boundary", Float(0.12), CushionComfortable},
		{"large", Float(0.5), CushionComfortable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyCushion(tt.percent))
		})
	}
}

func TestCushionPercent(t *testing.T) {
	assert.Nil(t, CushionPercent(nil, Float(100)))
	assert.Nil(t, CushionPercent(Float(10), nil))
	assert.Nil(t, CushionPercent(Float(10), Float(0)))
	assert.Nil(t, CushionPercent(Float(10), Float(-5)))

	p := CushionPercent(Float(600), Float(10000))
	if assert.NotNil(t, p) {
		assert.InDelta(t, 0.06, *p, 1e-12)
	}
}

func TestRecomputeCushion_LoadMissing(t *testing.T) {
	r := HourlyRecord{HE: 1, CushionMw: Float(500)}
	r.RecomputeCushion()

	assert.Nil(t, r.CushionPercent)
	assert.Equal(t, CushionUnknown, r.CushionFlag)
	assert.Equal(t, 500.0, *r.CushionMw)
}
