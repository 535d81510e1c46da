package sspdiag

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() Params {
	params := DefaultParams()
	params.UseExternalTimestamp = true
	return params
}

func TestOnEventEndToEnd(t *testing.T) {
	// One fragment, two triggers on op channel 3 with amplitudes 40 and 60.
	data := append(
		encodeTrigger(t, triggerSpec{magic: HeaderMagic, channel: 3, peakSum: 400, intSum: 5000, extTime: 1000}),
		encodeTrigger(t, triggerSpec{magic: HeaderMagic, channel: 3, peakSum: 600, intSum: 7000, extTime: 2000})...)

	diag := New(testParams())
	diag.OnRunStart()
	require.NoError(t, diag.OnEvent([]Fragment{{Data: data}}, nil))

	amplitude := diag.Accumulator().Amplitude(3)
	require.NotNil(t, amplitude)
	assert.Equal(t, 2, amplitude.Entries)
	assert.Equal(t, float64(1), amplitude.Counts[amplitude.FindBin(40)])
	assert.Equal(t, float64(1), amplitude.Counts[amplitude.FindBin(60)])

	charge := diag.Accumulator().Charge(3)
	require.NotNil(t, charge)
	assert.Equal(t, 2, charge.Entries)

	assert.EqualValues(t, 2, diag.Rate().Count(3))
	assert.EqualValues(t, 1000, diag.Rate().FirstTime())
	assert.EqualValues(t, 2000, diag.Rate().LastTime())
}

func TestOnEventMissingFragmentsIsNotFatal(t *testing.T) {
	diag := New(testParams())
	diag.OnRunStart()
	assert.NoError(t, diag.OnEvent(nil, nil))
	assert.Empty(t, diag.Accumulator().Channels())
}

func TestOnEventInvalidFragmentIsFatal(t *testing.T) {
	diag := New(testParams())
	diag.OnRunStart()
	err := diag.OnEvent([]Fragment{{Invalid: true}}, nil)
	var invalid *ErrInvalidFragment
	require.ErrorAs(t, err, &invalid)
}

func TestOnEventInvalidFragmentLeavesNoPartialState(t *testing.T) {
	valid := encodeTrigger(t, triggerSpec{magic: HeaderMagic, channel: 3, peakSum: 400, extTime: 1000})
	waveform := Waveform{Channel: 7, Samples: []float64{1500, 1600}}

	diag := New(testParams())
	diag.OnRunStart()
	err := diag.OnEvent([]Fragment{{Data: valid}, {Invalid: true}}, []Waveform{waveform})

	var invalid *ErrInvalidFragment
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 1, invalid.Index)

	// The aborted event must not have touched any container.
	assert.Nil(t, diag.Accumulator().AvgWaveform(7))
	assert.Nil(t, diag.Accumulator().Amplitude(3))
	assert.Zero(t, diag.Rate().Count(3))
}

func TestSetChannelMapTakesEffect(t *testing.T) {
	diag := New(testParams())
	diag.OnRunStart()

	data := encodeTrigger(t, triggerSpec{magic: HeaderMagic, channel: 3, peakSum: 400, extTime: 1000})
	require.NoError(t, diag.OnEvent([]Fragment{{Data: data}}, nil))
	require.NotNil(t, diag.Accumulator().Amplitude(3), "default mapping in effect")

	diag.SetChannelMap(func(module, channel uint16) int {
		return 100 + int(channel)
	})
	data = encodeTrigger(t, triggerSpec{magic: HeaderMagic, channel: 3, peakSum: 400, extTime: 2000})
	require.NoError(t, diag.OnEvent([]Fragment{{Data: data}}, nil))

	require.NotNil(t, diag.Accumulator().Amplitude(103), "swapped mapping in effect")
	assert.Equal(t, 1, diag.Accumulator().Amplitude(103).Entries)
}

func TestOnEventImplausibleTimestampSkipsRecord(t *testing.T) {
	data := append(
		encodeTrigger(t, triggerSpec{magic: HeaderMagic, channel: 1, peakSum: 400, extTime: MaxFirstSample + 5}),
		encodeTrigger(t, triggerSpec{magic: HeaderMagic, channel: 1, peakSum: 600, extTime: 2000})...)

	diag := New(testParams())
	diag.OnRunStart()
	require.NoError(t, diag.OnEvent([]Fragment{{Data: data}}, nil))

	// Only the second trigger survives; decoding continued past the bad one.
	assert.Equal(t, 1, diag.Accumulator().Amplitude(1).Entries)
	assert.EqualValues(t, 1, diag.Rate().Count(1))
	assert.EqualValues(t, 2000, diag.Rate().LastTime())
}

func TestOnEventWaveforms(t *testing.T) {
	samples := make([]float64, 64)
	for i := range samples {
		samples[i] = 1500 + 100*math.Sin(float64(i)/4)
	}

	diag := New(testParams())
	diag.OnRunStart()
	require.NoError(t, diag.OnEvent([]Fragment{}, []Waveform{{Channel: 7, Samples: samples}}))

	waveform := diag.Accumulator().AvgWaveform(7)
	require.NotNil(t, waveform)
	assert.Equal(t, len(samples), waveform.XBins)
	assert.Equal(t, len(samples), waveform.Entries)

	summary := diag.OnRunEnd(1, 64)
	fft := summary.WaveformFFTs[7]
	require.NotNil(t, fft)
	assert.Equal(t, len(samples)/2, fft.Bins)
	dt := 1. / 150. // sample period at 150 MHz, us
	assert.InDelta(t, 1./(2*dt), fft.XMax, 1e-9)
}

func TestOnRunEndMergesAndReports(t *testing.T) {
	data := append(
		encodeTrigger(t, triggerSpec{magic: HeaderMagic, channel: 3, peakSum: 400, intSum: 5000, extTime: 1000}),
		encodeTrigger(t, triggerSpec{magic: HeaderMagic, channel: 3, peakSum: 600, intSum: 7000, extTime: 65000})...)

	diag := New(testParams())
	diag.OnRunStart()
	require.NoError(t, diag.OnEvent([]Fragment{{Data: data}}, nil))

	summary := diag.OnRunEnd(12, 64)
	assert.Equal(t, 12, summary.Run)

	require.Len(t, summary.Calibrations, 1)
	assert.Equal(t, 3, summary.Calibrations[0].Channel)
	// Two fills cannot produce three peaks; the scale must be unavailable.
	assert.True(t, math.IsNaN(summary.Calibrations[0].ADCPerPE))
	assert.True(t, math.IsNaN(summary.Calibrations[0].ChargePerPE))

	require.False(t, summary.Rate.NoData)
	require.Len(t, summary.Rate.Channels, 1)
	assert.Equal(t, 3, summary.Rate.Channels[0].Channel)

	job := diag.OnJobEnd()
	series := job.Series[3]
	require.NotNil(t, series)
	assert.Equal(t, float64(2), series.Integral())
	assert.Equal(t, float64(12), series.XMin)
}

func TestRunResetKeepsCrossRunState(t *testing.T) {
	diag := New(testParams())

	diag.OnRunStart()
	data := encodeTrigger(t, triggerSpec{magic: HeaderMagic, channel: 2, peakSum: 500, extTime: 1000})
	require.NoError(t, diag.OnEvent([]Fragment{{Data: data}}, nil))
	diag.OnRunEnd(5, 64)

	diag.OnRunStart()
	assert.Nil(t, diag.Accumulator().Amplitude(2), "per-run distributions reset at run start")
	assert.EqualValues(t, 1, diag.Rate().Count(2), "rate state persists across runs")

	data = encodeTrigger(t, triggerSpec{magic: HeaderMagic, channel: 2, peakSum: 500, extTime: 9000})
	require.NoError(t, diag.OnEvent([]Fragment{{Data: data}}, nil))
	diag.OnRunEnd(3, 64)

	series := diag.OnJobEnd().Series[2]
	require.NotNil(t, series)
	assert.Equal(t, 3, series.XBins, "run axis spans [3, 6) after out-of-order merge")
	assert.Equal(t, float64(2), series.Integral())
}
