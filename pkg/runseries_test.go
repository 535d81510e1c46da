package sspdiag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ampDist(fills ...float64) *Hist1D {
	hist := NewHist1D("amp", AmplitudeBins, AmplitudeMin, AmplitudeMax)
	for _, x := range fills {
		hist.Fill(x)
	}
	return hist
}

func TestMergeCreatesSingleRunBin(t *testing.T) {
	agg := NewRunAggregator()
	agg.MergeChannel(42, 3, ampDist(40, 60))

	series := agg.Series(3)
	require.NotNil(t, series)
	assert.Equal(t, 1, series.XBins)
	assert.Equal(t, float64(42), series.XMin)
	assert.Equal(t, float64(43), series.XMax)
	assert.Equal(t, float64(2), series.Integral())
}

func TestMergeExtendsRunAxisWithoutLoss(t *testing.T) {
	agg := NewRunAggregator()
	first := ampDist(40, 40, 60)
	agg.MergeChannel(5, 3, first)

	series := agg.Series(3)
	run5 := make([]float64, series.YBins)
	for binY := 0; binY < series.YBins; binY++ {
		run5[binY] = series.BinContent(0, binY)
	}

	// Merging an earlier run extends the axis down to 3.
	agg.MergeChannel(3, 3, ampDist(100))

	series = agg.Series(3)
	assert.Equal(t, 3, series.XBins)
	assert.Equal(t, float64(3), series.XMin)
	assert.Equal(t, float64(6), series.XMax)

	// Every bin value present before the merge is recoverable at run 5.
	for binY := 0; binY < series.YBins; binY++ {
		assert.Equal(t, run5[binY], series.BinContent(2, binY))
	}
	// The gap run holds nothing.
	for binY := 0; binY < series.YBins; binY++ {
		assert.Zero(t, series.BinContent(1, binY))
	}
}

func TestMergeTotalsInvariant(t *testing.T) {
	agg := NewRunAggregator()
	agg.MergeChannel(7, 1, ampDist(40, 50, 60))
	prior := agg.Series(1).Integral()

	run := ampDist(10, 20, 30, 40)
	agg.MergeChannel(9, 1, run)

	assert.Equal(t, prior+run.Integral(), agg.Series(1).Integral())
}

func TestMergeOrderIndependent(t *testing.T) {
	runs := map[int]*Hist1D{
		3: ampDist(40, 42, 44),
		5: ampDist(60, 62),
		7: ampDist(80),
	}

	merge := func(order []int) *Hist2D {
		agg := NewRunAggregator()
		for _, run := range order {
			agg.MergeChannel(run, 2, runs[run])
		}
		return agg.Series(2)
	}

	sorted := merge([]int{3, 5, 7})
	shuffled := merge([]int{5, 3, 7})

	require.Equal(t, sorted.XBins, shuffled.XBins)
	assert.Equal(t, sorted.XMin, shuffled.XMin)
	assert.Equal(t, sorted.XMax, shuffled.XMax)
	assert.Equal(t, sorted.Counts, shuffled.Counts)
}

func TestMergeProjectsBinExactly(t *testing.T) {
	agg := NewRunAggregator()
	run := ampDist(40, 40, 60)
	agg.MergeChannel(11, 4, run)

	series := agg.Series(4)
	for bin := 0; bin < run.Bins; bin++ {
		assert.Equal(t, run.Counts[bin], series.BinContent(0, bin),
			"per-amplitude-bin counts must survive the projection unchanged")
	}
}

func TestMergeKeepsChannelsSeparate(t *testing.T) {
	agg := NewRunAggregator()
	agg.Merge(5, map[int]*Hist1D{
		1: ampDist(40),
		2: ampDist(60, 80),
	})

	assert.Equal(t, []int{1, 2}, agg.Channels())
	assert.Equal(t, float64(1), agg.Series(1).Integral())
	assert.Equal(t, float64(2), agg.Series(2).Integral())
	assert.Nil(t, agg.Series(3))
}
