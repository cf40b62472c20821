package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStats(t *testing.T) {
	s := NewStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 5.0, s.Mean)
	assert.Equal(t, 2.0, s.StdDeviation)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)

	assert.Equal(t, Stats{}, NewStats(nil))
}

func TestDistributionQuality(t *testing.T) {
	even := NewDistributionStats([]float64{8, 8, 8, 8})
	assert.Equal(t, 1.0, even.DistributionQuality)

	skewed := NewDistributionStats([]float64{0, 0, 0, 32})
	assert.Less(t, skewed.DistributionQuality, 0.5)
}

func TestSizeHistogram(t *testing.T) {
	h := NewSizeHistogram()
	assert.Equal(t, 0, h.MedianEstimate())

	for i := 0; i < 90; i++ {
		h.AddSample(10) // first bucket
	}
	for i := 0; i < 10; i++ {
		h.AddSample(2000) // 1KB..4KB bucket
	}

	assert.Equal(t, int64(100), h.Count())
	assert.Equal(t, (90*10+10*2000)/100, h.AverageSize())
	assert.Equal(t, 8, h.MedianEstimate())
	assert.Equal(t, (1024+4096)/2, h.PercentileEstimate(99))
	assert.Equal(t, 0, h.PercentileEstimate(101))

	h.AddSample(1 << 33)
	assert.Equal(t, 4294967296*2, h.PercentileEstimate(100))
}
