package main

import (
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	sspdiag "github.com/dune-daq/sspdiag/pkg"
)

// Writer persists run summaries and the cross-run series to HDF5. Layout:
// one group per run under /Runs with calibration, rate and distribution
// tables, and one matrix per channel under /Series at job end.
type Writer struct {
	File         *hdf5.File
	RunsGroup    *hdf5.Group
	SeriesGroup  *hdf5.Group
	RunInfoTable *hdf5.Dataset
	openTables   []*hdf5.Dataset
	openGroups   []*hdf5.Group
}

func NewWriter(fname string) *Writer {
	writer := &Writer{}
	writer.File = openFile(fname)
	writer.RunsGroup, _ = createGroup(writer.File, "Runs")
	writer.SeriesGroup, _ = createGroup(writer.File, "Series")
	writer.RunInfoTable = createTable(writer.RunsGroup, "runs", RunInfoHDF5{})
	return writer
}

// WriteRunSummary writes one run's calibration and rate results plus the
// per-channel distributions accumulated during the run.
func (w *Writer) WriteRunSummary(summary sspdiag.RunSummary, acc *sspdiag.ChannelAccumulator) {
	writeEntryToTable(w.RunInfoTable, RunInfoHDF5{run_number: int32(summary.Run)})

	runGroup, err := createSubGroup(w.RunsGroup, fmt.Sprintf("r%03d", summary.Run))
	if err != nil {
		panic(err)
	}
	w.openGroups = append(w.openGroups, runGroup)

	calibTable := createTable(runGroup, "calibration", CalibrationHDF5{})
	w.openTables = append(w.openTables, calibTable)
	calibs := make([]CalibrationHDF5, len(summary.Calibrations))
	for i, calib := range summary.Calibrations {
		calibs[i] = CalibrationHDF5{
			channel:       int32(calib.Channel),
			adc_per_pe:    calib.ADCPerPE,
			charge_per_pe: calib.ChargePerPE,
		}
	}
	if len(calibs) > 0 {
		writeArrayToTable(calibTable, &calibs)
	}

	rateTable := createTable(runGroup, "rates", RateHDF5{})
	w.openTables = append(w.openTables, rateTable)
	if !summary.Rate.NoData {
		rates := make([]RateHDF5, len(summary.Rate.Channels))
		for i, rate := range summary.Rate.Channels {
			rates[i] = RateHDF5{channel: int32(rate.Channel), rate_khz: rate.RateKHz}
		}
		writeArrayToTable(rateTable, &rates)
	}

	w.writeHist1D(runGroup, acc.PulseAmplitude)
	for _, channel := range acc.Channels() {
		w.writeHist1D(runGroup, acc.Amplitude(channel))
		w.writeHist1D(runGroup, acc.Charge(channel))
		w.writeHist2D(runGroup, acc.AmpVsCharge(channel))
		if fft := summary.WaveformFFTs[channel]; fft != nil {
			w.writeHist1D(runGroup, fft)
		}
	}
	for _, channel := range acc.WaveformChannels() {
		w.writeHist2D(runGroup, acc.AvgWaveform(channel))
	}
}

func (w *Writer) writeHist2D(group *hdf5.Group, hist *sspdiag.Hist2D) {
	if hist == nil {
		return
	}
	matrix := createMatrix(group, hist.Name, hist.XBins, hist.YBins)
	w.openTables = append(w.openTables, matrix)
	writeMatrix(matrix, &hist.Counts)
}

func (w *Writer) writeHist1D(group *hdf5.Group, hist *sspdiag.Hist1D) {
	if hist == nil {
		return
	}
	table := createTable(group, hist.Name, HistBinHDF5{})
	w.openTables = append(w.openTables, table)

	bins := make([]HistBinHDF5, hist.Bins)
	for bin := 0; bin < hist.Bins; bin++ {
		bins[bin] = HistBinHDF5{center: hist.BinCenter(bin), content: hist.Counts[bin]}
	}
	writeArrayToTable(table, &bins)
}

// WriteSeries registers all cross-run series, one matrix per channel with
// run bins as rows and amplitude bins as columns.
func (w *Writer) WriteSeries(job sspdiag.JobSummary) {
	infoTable := createTable(w.SeriesGroup, "channels", SeriesInfoHDF5{})
	w.openTables = append(w.openTables, infoTable)

	channels := maps.Keys(job.Series)
	slices.Sort(channels)
	for _, channel := range channels {
		series := job.Series[channel]
		info := SeriesInfoHDF5{
			channel:   int32(channel),
			first_run: int32(series.XMin),
			last_run:  int32(series.XMax) - 1,
		}
		writeEntryToTable(infoTable, info)

		matrix := createMatrix(w.SeriesGroup, series.Name, series.XBins, series.YBins)
		w.openTables = append(w.openTables, matrix)
		writeMatrix(matrix, &series.Counts)
	}
}

func (w *Writer) Close() {
	for _, table := range w.openTables {
		table.Close()
	}
	w.RunInfoTable.Close()
	for _, group := range w.openGroups {
		group.Close()
	}
	w.RunsGroup.Close()
	w.SeriesGroup.Close()
	w.File.Close()
}
