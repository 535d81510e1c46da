package sspdiag

import "fmt"

// Windows holds the fixed SSP integration window lengths, read once at
// configuration time.
type Windows struct {
	M1 int // leading-edge peak window
	I1 int // charge integration window
	I2 int // baseline (prerise) window
}

// DefaultWindows is the reference SSP firmware policy.
var DefaultWindows = Windows{M1: 10, I1: 500, I2: 500}

// MaxFirstSample is the timestamp sanity bound in ticks; triggers above it
// are rejected.
const MaxFirstSample uint64 = 1e16

// ChannelMapFunc maps an SSP (module, channel) pair to a logical optical
// channel. The detector geometry provider supplies the real mapping; the
// default assumes 12 channels per module.
type ChannelMapFunc func(module, channel uint16) int

func DefaultChannelMap(module, channel uint16) int {
	return int(module)*12 + int(channel)
}

// TriggerRecord is one decoded trigger with its derived pulse metrics.
type TriggerRecord struct {
	Channel          int
	FirstSample      uint64
	Amplitude        float64
	IntegratedCharge float64
}

// MetricsExtractor converts trigger headers into physical pulse metrics.
type MetricsExtractor struct {
	windows     Windows
	useExternal bool
	channelMap  ChannelMapFunc
}

func NewMetricsExtractor(windows Windows, useExternalTimestamp bool, channelMap ChannelMapFunc) *MetricsExtractor {
	if channelMap == nil {
		channelMap = DefaultChannelMap
	}
	return &MetricsExtractor{windows: windows, useExternal: useExternalTimestamp, channelMap: channelMap}
}

// PulseAmplitude is the leading-edge amplitude in ADC counts.
func PulseAmplitude(peakSum, baselineSum float64, win Windows) float64 {
	return -baselineSum/float64(win.I2) + peakSum/float64(win.M1)
}

// IntegratedCharge is the baseline-corrected pulse area in ADC*tick.
func IntegratedCharge(integratedSum, baselineSum float64, win Windows) float64 {
	return integratedSum - baselineSum/float64(win.I2)*float64(win.I1)
}

// Extract derives a TriggerRecord from one header. A timestamp above the
// sanity bound rejects the record; the header contents are dumped so the
// offending trigger can be chased in the raw data.
func (e *MetricsExtractor) Extract(header *TriggerHeader) (TriggerRecord, error) {
	firstSample := header.GlobalFirstSample(e.useExternal)
	if firstSample > MaxFirstSample {
		logger.Info(headerDump(header), "metrics")
		return TriggerRecord{}, &ErrImplausibleTimestamp{FirstSample: firstSample}
	}

	record := TriggerRecord{
		Channel:          e.channelMap(header.ModuleID(), header.ChannelID()),
		FirstSample:      firstSample,
		Amplitude:        PulseAmplitude(header.PeakSum(), header.BaselineSum(), e.windows),
		IntegratedCharge: IntegratedCharge(header.IntegratedSum(), header.BaselineSum(), e.windows),
	}
	return record, nil
}

func headerDump(h *TriggerHeader) string {
	return fmt.Sprintf("trigger header: module %d channel %d triggerID %d length %d peakSum %.0f baselineSum %.0f integratedSum %.0f",
		h.ModuleID(), h.ChannelID(), h.TriggerID, h.Length, h.PeakSum(), h.BaselineSum(), h.IntegratedSum())
}
