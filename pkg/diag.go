package sspdiag

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Params fixes the diagnostics policies, read once at startup.
type Params struct {
	FragType     string
	RawDataLabel string
	InputModule  string
	InputLabel   string

	SampleFreqMHz float64 // optical waveform sampling frequency
	ClockFreqMHz  float64 // trigger timestamp clock

	Windows              Windows
	UseExternalTimestamp bool
	ChannelMap           ChannelMapFunc

	AmplitudePolicy SpacingPolicy
	ChargePolicy    SpacingPolicy
}

// DefaultParams is the reference SSP diagnostics configuration.
func DefaultParams() Params {
	return Params{
		SampleFreqMHz:   150,
		ClockFreqMHz:    64,
		Windows:         DefaultWindows,
		AmplitudePolicy: AmplitudePolicy,
		ChargePolicy:    ChargePolicy,
	}
}

// ChannelCalibration is the per-channel photoelectron scale estimate for
// both pulse metrics. NaN marks an unavailable calibration.
type ChannelCalibration struct {
	Channel     int
	ADCPerPE    float64
	ChargePerPE float64
}

// RunSummary is everything computed at run end, handed to the host for
// persistence.
type RunSummary struct {
	Run          int
	Calibrations []ChannelCalibration
	Rate         RateReport
	WaveformFFTs map[int]*Hist1D
}

// JobSummary carries the cross-run series materialized at job end.
type JobSummary struct {
	Series map[int]*Hist2D
}

// Diag is the SSP diagnostics core. It is constructed once per job; per-run
// distributions are reset through OnRunStart while the rate state and the
// cross-run series accumulate for the whole job.
type Diag struct {
	params    Params
	extractor *MetricsExtractor
	acc       *ChannelAccumulator
	rate      *RateTracker
	runs      *RunAggregator
}

func New(params Params) *Diag {
	return &Diag{
		params:    params,
		extractor: NewMetricsExtractor(params.Windows, params.UseExternalTimestamp, params.ChannelMap),
		acc:       NewChannelAccumulator(params.SampleFreqMHz),
		rate:      NewRateTracker(),
		runs:      NewRunAggregator(),
	}
}

// SetChannelMap swaps the geometry mapping, typically at a run boundary
// when a differently validity-ranged map applies.
func (d *Diag) SetChannelMap(channelMap ChannelMapFunc) {
	d.extractor = NewMetricsExtractor(d.params.Windows, d.params.UseExternalTimestamp, channelMap)
}

// Accumulator exposes the per-run distributions for persistence.
func (d *Diag) Accumulator() *ChannelAccumulator {
	return d.acc
}

// Rate exposes the job-lifetime rate state.
func (d *Diag) Rate() *RateTracker {
	return d.rate
}

// OnRunStart clears the per-run distributions.
func (d *Diag) OnRunStart() {
	d.acc.ResetRun()
}

// OnEvent processes one event: every waveform updates the average-waveform
// containers, every decodable trigger updates the pulse metric distributions
// and the rate state. A nil fragment slice means no SSP data in this event
// and is skipped with a warning. A fragment flagged invalid aborts the event
// with an error; any other problem is skipped at trigger granularity.
func (d *Diag) OnEvent(fragments []Fragment, waveforms []Waveform) error {
	if fragments == nil {
		logger.Warn("raw SSP data not found in event", "diag")
		return nil
	}

	// Validate every handle before touching any container, so an aborted
	// event leaves no partial fills behind.
	for idx, fragment := range fragments {
		if fragment.Invalid {
			logger.Error(fmt.Sprintf("fragment %d is NOT VALID", idx), "diag")
			return &ErrInvalidFragment{Index: idx}
		}
	}

	for _, waveform := range waveforms {
		d.acc.ObserveWaveform(waveform)
	}

	for _, fragment := range fragments {
		decoder := NewFragmentDecoder(fragment)
		for {
			header, ok := decoder.Next()
			if !ok {
				break
			}
			record, err := d.extractor.Extract(&header)
			if err != nil {
				var implausible *ErrImplausibleTimestamp
				if errors.As(err, &implausible) {
					logger.Info(err.Error(), "diag")
				}
				continue
			}
			d.acc.ObserveTrigger(record)
			d.rate.Observe(record.Channel, record.FirstSample)
		}
	}
	return nil
}

// OnRunEnd computes the photoelectron-scale calibrations, the waveform FFTs
// and the rate report, merges the run into the cross-run series and returns
// the summary for persistence.
func (d *Diag) OnRunEnd(runNumber int, clockFreqMHz float64) RunSummary {
	summary := RunSummary{
		Run:          runNumber,
		WaveformFFTs: make(map[int]*Hist1D),
	}

	for _, channel := range d.acc.Channels() {
		calib := ChannelCalibration{
			Channel:     channel,
			ADCPerPE:    d.params.AmplitudePolicy.QuantumScale(d.acc.Amplitude(channel)),
			ChargePerPE: d.params.ChargePolicy.QuantumScale(d.acc.Charge(channel)),
		}
		summary.Calibrations = append(summary.Calibrations, calib)
		logger.Info(fmt.Sprintf("OpDet channel %3d: LE %s ADC/PE, IC %s charge/PE",
			channel, formatScale(calib.ADCPerPE), formatScale(calib.ChargePerPE)), "calibration")

		if fft := waveformFFT(channel, d.acc.AvgWaveform(channel)); fft != nil {
			summary.WaveformFFTs[channel] = fft
		}
	}

	summary.Rate = d.rate.Report(clockFreqMHz)
	if summary.Rate.NoData {
		logger.Warn("diagnostic rate report: no data", "rate")
	} else {
		logger.Info(fmt.Sprintf("diagnostic rate report: %f minutes", summary.Rate.ElapsedUs/60.e6), "rate")
		for _, rate := range summary.Rate.Channels {
			logger.Info(fmt.Sprintf("channel %3d: %f kHz", rate.Channel, rate.RateKHz), "rate")
		}
	}

	d.runs.Merge(runNumber, d.acc.AmplitudeByChannel())
	return summary
}

// OnJobEnd materializes the cross-run series for persistence.
func (d *Diag) OnJobEnd() JobSummary {
	series := make(map[int]*Hist2D, len(d.runs.Channels()))
	for _, channel := range d.runs.Channels() {
		series[channel] = d.runs.Series(channel)
	}
	return JobSummary{Series: series}
}

// waveformFFT transforms the averaged waveform profile of one channel into
// a magnitude spectrum over [0, 1/(2*dt)).
func waveformFFT(channel int, waveform *Hist2D) *Hist1D {
	if waveform == nil || waveform.XBins < 2 {
		return nil
	}
	profile := waveform.ProfileX()
	dt := (waveform.XMax - waveform.XMin) / float64(waveform.XBins)
	fMax := 1. / (2 * dt)

	fft := fourier.NewFFT(len(profile))
	coeffs := fft.Coefficients(nil, profile)

	nBins := waveform.XBins / 2
	hist := NewHist1D(fmt.Sprintf("waveform_fft_channel_%03d", channel), nBins, 0, fMax)
	for bin := 0; bin < nBins && bin < len(coeffs); bin++ {
		hist.Counts[bin] = cmplx.Abs(coeffs[bin])
	}
	hist.Entries = nBins
	return hist
}

func formatScale(scale float64) string {
	if math.IsNaN(scale) {
		return "unavailable"
	}
	return fmt.Sprintf("%.2f", scale)
}
