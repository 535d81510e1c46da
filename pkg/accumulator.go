package sspdiag

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Per-channel binning policy, matching the SSP diagnostics conventions.
const (
	AmplitudeBins = 125
	AmplitudeMin  = -20.0
	AmplitudeMax  = 230.0

	ChargeBins = 300
	ChargeMin  = 0.0
	ChargeMax  = 3e4

	WaveformAmpBins = 2000
	WaveformAmpMin  = 1200.0
	WaveformAmpMax  = 5200.0
)

// Waveform is one already-reconstructed optical pulse, host-supplied.
type Waveform struct {
	Channel int
	Samples []float64
}

// ChannelAccumulator owns the per-channel distributions for one run. The
// containers are created lazily on first sight of a channel and are strictly
// additive until the next run reset. The global pulse amplitude histogram
// lives for the whole job.
type ChannelAccumulator struct {
	sampleFreq float64 // MHz

	PulseAmplitude *Hist1D

	avgWaveform map[int]*Hist2D
	amplitude   map[int]*Hist1D
	charge      map[int]*Hist1D
	ampVsCharge map[int]*Hist2D
}

func NewChannelAccumulator(sampleFreqMHz float64) *ChannelAccumulator {
	acc := &ChannelAccumulator{
		sampleFreq:     sampleFreqMHz,
		PulseAmplitude: NewHist1D("pulseamplitude", 125, -50, 200),
	}
	acc.ResetRun()
	return acc
}

// ResetRun clears all per-run distributions. The job-lifetime global
// amplitude histogram is left untouched.
func (acc *ChannelAccumulator) ResetRun() {
	acc.avgWaveform = make(map[int]*Hist2D)
	acc.amplitude = make(map[int]*Hist1D)
	acc.charge = make(map[int]*Hist1D)
	acc.ampVsCharge = make(map[int]*Hist2D)
}

// ObserveWaveform adds every sample of the waveform to the channel's
// average-waveform container as a (time, amplitude) point. The time axis is
// sized to the waveform's sample count on first sight of the channel.
func (acc *ChannelAccumulator) ObserveWaveform(waveform Waveform) {
	channel := waveform.Channel
	hist, ok := acc.avgWaveform[channel]
	if !ok {
		nSamples := len(waveform.Samples)
		if nSamples == 0 {
			return
		}
		name := fmt.Sprintf("avgwaveform_channel_%03d", channel)
		hist = NewHist2D(name, nSamples, 0, float64(nSamples)/acc.sampleFreq,
			WaveformAmpBins, WaveformAmpMin, WaveformAmpMax)
		acc.avgWaveform[channel] = hist
	}
	for tick, sample := range waveform.Samples {
		hist.Fill(float64(tick)/acc.sampleFreq, sample)
	}
}

// ObserveTrigger fills the amplitude, charge and amplitude-vs-charge
// containers for the record's channel.
func (acc *ChannelAccumulator) ObserveTrigger(record TriggerRecord) {
	channel := record.Channel

	if _, ok := acc.amplitude[channel]; !ok {
		acc.amplitude[channel] = NewHist1D(
			fmt.Sprintf("pulse_amplitude_channel_%03d", channel),
			AmplitudeBins, AmplitudeMin, AmplitudeMax)
		acc.charge[channel] = NewHist1D(
			fmt.Sprintf("integrated_charge_channel_%03d", channel),
			ChargeBins, ChargeMin, ChargeMax)
		acc.ampVsCharge[channel] = NewHist2D(
			fmt.Sprintf("pulse_amplitude_vs_integrated_charge_channel_%03d", channel),
			ChargeBins, ChargeMin, ChargeMax,
			AmplitudeBins, AmplitudeMin, AmplitudeMax)
	}

	acc.PulseAmplitude.Fill(record.Amplitude)
	acc.amplitude[channel].Fill(record.Amplitude)
	acc.charge[channel].Fill(record.IntegratedCharge)
	acc.ampVsCharge[channel].Fill(record.IntegratedCharge, record.Amplitude)
}

// Channels returns the channels observed this run, in ascending order.
func (acc *ChannelAccumulator) Channels() []int {
	channels := maps.Keys(acc.amplitude)
	slices.Sort(channels)
	return channels
}

// WaveformChannels returns the channels with waveform data this run, in
// ascending order. Not necessarily the same set as Channels: a channel can
// see waveforms without triggers and vice versa.
func (acc *ChannelAccumulator) WaveformChannels() []int {
	channels := maps.Keys(acc.avgWaveform)
	slices.Sort(channels)
	return channels
}

// Amplitude returns the amplitude distribution for a channel, or nil.
func (acc *ChannelAccumulator) Amplitude(channel int) *Hist1D {
	return acc.amplitude[channel]
}

// Charge returns the integrated charge distribution for a channel, or nil.
func (acc *ChannelAccumulator) Charge(channel int) *Hist1D {
	return acc.charge[channel]
}

// AmpVsCharge returns the amplitude-vs-charge distribution, or nil.
func (acc *ChannelAccumulator) AmpVsCharge(channel int) *Hist2D {
	return acc.ampVsCharge[channel]
}

// AvgWaveform returns the average-waveform container, or nil.
func (acc *ChannelAccumulator) AvgWaveform(channel int) *Hist2D {
	return acc.avgWaveform[channel]
}

// AmplitudeByChannel exposes the full per-channel amplitude map for the
// run-series merge.
func (acc *ChannelAccumulator) AmplitudeByChannel() map[int]*Hist1D {
	return acc.amplitude
}
