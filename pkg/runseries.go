package sspdiag

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// RunAggregator owns the per-channel amplitude-vs-run series. The series
// live for the whole job; each run-end merge projects that run's amplitude
// distribution into the series, extending the run axis when needed without
// losing already-stored content. Runs may arrive in any order.
type RunAggregator struct {
	series map[int]*Hist2D
}

func NewRunAggregator() *RunAggregator {
	return &RunAggregator{series: make(map[int]*Hist2D)}
}

// rebuildSeries returns a new series spanning [firstRun, lastRun+1) with one
// bin per run number, with every bin of the old series copied to the bin at
// the same run number.
func rebuildSeries(old *Hist2D, firstRun, lastRun int) *Hist2D {
	rebuilt := NewHist2D(old.Name, lastRun-firstRun+1, float64(firstRun), float64(lastRun+1),
		old.YBins, old.YMin, old.YMax)
	for binX := 0; binX < old.XBins; binX++ {
		runNumber := int(old.XBinLowEdge(binX))
		targetBin := runNumber - firstRun
		for binY := 0; binY < old.YBins; binY++ {
			rebuilt.SetBinContent(targetBin, binY, old.BinContent(binX, binY))
		}
	}
	rebuilt.Entries = old.Entries
	return rebuilt
}

// Merge folds the per-channel amplitude distributions of one run into the
// cross-run series.
func (a *RunAggregator) Merge(runNumber int, amplitudes map[int]*Hist1D) {
	for channel, amplitude := range amplitudes {
		a.MergeChannel(runNumber, channel, amplitude)
	}
}

// MergeChannel merges one channel's amplitude distribution at runNumber.
func (a *RunAggregator) MergeChannel(runNumber, channel int, amplitude *Hist1D) {
	series, ok := a.series[channel]
	if !ok {
		name := fmt.Sprintf("pulse_amp_dist_vs_run_channel_%03d", channel)
		series = NewHist2D(name, 1, float64(runNumber), float64(runNumber+1),
			AmplitudeBins, AmplitudeMin, AmplitudeMax)
		a.series[channel] = series
	} else {
		firstRun := int(series.XBinLowEdge(0))
		lastRun := int(series.XBinLowEdge(series.XBins - 1))
		newFirstRun := min(firstRun, runNumber)
		newLastRun := max(lastRun, runNumber)
		if newFirstRun != firstRun || newLastRun != lastRun {
			series = rebuildSeries(series, newFirstRun, newLastRun)
			a.series[channel] = series
		}
	}

	// Project the run distribution bin-by-bin, preserving per-bin counts.
	for bin := 0; bin < amplitude.Bins; bin++ {
		value := amplitude.Counts[bin]
		if value == 0 {
			continue
		}
		series.FillW(float64(runNumber)+0.5, amplitude.BinCenter(bin), value)
	}
}

// Series returns the cross-run series for a channel, or nil.
func (a *RunAggregator) Series(channel int) *Hist2D {
	return a.series[channel]
}

// Channels returns all channels with a series, in ascending order.
func (a *RunAggregator) Channels() []int {
	channels := maps.Keys(a.series)
	slices.Sort(channels)
	return channels
}
