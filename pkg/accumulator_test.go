package sspdiag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveTriggerFillsAllContainers(t *testing.T) {
	acc := NewChannelAccumulator(150)
	acc.ObserveTrigger(TriggerRecord{Channel: 4, Amplitude: 40, IntegratedCharge: 5000})

	amplitude := acc.Amplitude(4)
	require.NotNil(t, amplitude)
	assert.Equal(t, float64(1), amplitude.Counts[amplitude.FindBin(40)])

	charge := acc.Charge(4)
	require.NotNil(t, charge)
	assert.Equal(t, float64(1), charge.Counts[charge.FindBin(5000)])

	// Charge on X (width 100), amplitude on Y (width 2).
	ampVsCharge := acc.AmpVsCharge(4)
	require.NotNil(t, ampVsCharge)
	assert.Equal(t, float64(1), ampVsCharge.BinContent(50, 30))
	assert.Equal(t, float64(1), ampVsCharge.Integral())

	assert.Equal(t, 1, acc.PulseAmplitude.Entries)
}

func TestObserveWaveformAccumulates(t *testing.T) {
	acc := NewChannelAccumulator(150)
	samples := []float64{1500, 1700, 1500}
	acc.ObserveWaveform(Waveform{Channel: 9, Samples: samples})
	acc.ObserveWaveform(Waveform{Channel: 9, Samples: samples})

	waveform := acc.AvgWaveform(9)
	require.NotNil(t, waveform)
	assert.Equal(t, len(samples), waveform.XBins)
	assert.Equal(t, float64(2*len(samples)), waveform.Integral())
	// Second tick at y=1700: bin width 2 over [1200, 5200).
	assert.Equal(t, float64(2), waveform.BinContent(1, 250))
}

func TestWaveformChannelsIndependentOfTriggerChannels(t *testing.T) {
	acc := NewChannelAccumulator(150)
	acc.ObserveWaveform(Waveform{Channel: 9, Samples: []float64{1500}})
	acc.ObserveWaveform(Waveform{Channel: 2, Samples: []float64{1500}})
	acc.ObserveTrigger(TriggerRecord{Channel: 5, Amplitude: 40})

	assert.Equal(t, []int{2, 9}, acc.WaveformChannels())
	assert.Equal(t, []int{5}, acc.Channels())
}

func TestResetRunKeepsGlobalAmplitude(t *testing.T) {
	acc := NewChannelAccumulator(150)
	acc.ObserveTrigger(TriggerRecord{Channel: 1, Amplitude: 40, IntegratedCharge: 100})
	acc.ObserveWaveform(Waveform{Channel: 1, Samples: []float64{1500}})

	acc.ResetRun()

	assert.Empty(t, acc.Channels())
	assert.Empty(t, acc.WaveformChannels())
	assert.Nil(t, acc.AmpVsCharge(1))
	assert.Nil(t, acc.AvgWaveform(1))
	assert.Equal(t, 1, acc.PulseAmplitude.Entries, "global amplitude survives the run reset")
}
