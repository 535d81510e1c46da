package sspdiag

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// RateTracker keeps the global first/last trigger timestamp and per-channel
// trigger counts. It is reset only at job start and accumulates across runs.
type RateTracker struct {
	firstTime uint64
	lastTime  uint64
	counts    map[int]int64
}

func NewRateTracker() *RateTracker {
	return &RateTracker{
		firstTime: uint64(1) << 63,
		lastTime:  0,
		counts:    make(map[int]int64),
	}
}

// Observe updates the global timestamp bracket and the channel counter.
func (t *RateTracker) Observe(channel int, firstSample uint64) {
	t.firstTime = min(t.firstTime, firstSample)
	t.lastTime = max(t.lastTime, firstSample)
	t.counts[channel]++
}

// Count returns the trigger count for a channel.
func (t *RateTracker) Count(channel int) int64 {
	return t.counts[channel]
}

// FirstTime returns the smallest observed timestamp.
func (t *RateTracker) FirstTime() uint64 {
	return t.firstTime
}

// LastTime returns the largest observed timestamp.
func (t *RateTracker) LastTime() uint64 {
	return t.lastTime
}

// ChannelRate is one per-channel entry of the rate report.
type ChannelRate struct {
	Channel int
	RateKHz float64
}

// RateReport is the end-of-run trigger rate summary. NoData is set when no
// trigger was observed or the timestamps span no time; rates are then
// absent rather than infinities.
type RateReport struct {
	NoData    bool
	ElapsedUs float64
	Channels  []ChannelRate
}

// Report computes per-channel trigger rates. clockFreqMHz converts ticks to
// microseconds.
func (t *RateTracker) Report(clockFreqMHz float64) RateReport {
	if len(t.counts) == 0 || t.lastTime <= t.firstTime || clockFreqMHz <= 0 {
		return RateReport{NoData: true}
	}

	deltaT := t.lastTime - t.firstTime
	elapsedUs := float64(deltaT) / clockFreqMHz

	channels := maps.Keys(t.counts)
	slices.Sort(channels)

	report := RateReport{ElapsedUs: elapsedUs}
	for _, channel := range channels {
		freq := float64(t.counts[channel]) / elapsedUs * 1000.
		report.Channels = append(report.Channels, ChannelRate{Channel: channel, RateKHz: freq})
	}
	return report
}
