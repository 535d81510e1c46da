package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	sqlx "github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	sspdiag "github.com/dune-daq/sspdiag/pkg"
)

var configuration Configuration

func main() {
	var configFilename string

	rootCmd := &cobra.Command{
		Use:   "sspdiag",
		Short: "SSP raw data diagnostics: pulse metrics, PE calibration and trigger rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(configFilename)
		},
	}
	rootCmd.Flags().StringVar(&configFilename, "config", "", "Configuration file path")
	rootCmd.MarkFlagRequired("config")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configFilename string) error {
	var err error
	configuration, err = LoadConfiguration(configFilename)
	if err != nil {
		return fmt.Errorf("error reading configuration file: %w", err)
	}

	slogger := slog.New(NewHandler(os.Stdout, nil))
	printConfiguration(configuration, slogger)
	sspdiag.SetLogger(slogAdapter{logger: slogger})

	params := sspdiag.Params{
		FragType:             configuration.FragType,
		RawDataLabel:         configuration.RawDataLabel,
		InputModule:          configuration.InputModule,
		InputLabel:           configuration.InputLabel,
		SampleFreqMHz:        configuration.SampleFreq,
		ClockFreqMHz:         configuration.ClockFreq,
		Windows:              sspdiag.Windows{M1: configuration.M1Window, I1: configuration.I1Window, I2: configuration.I2Window},
		UseExternalTimestamp: configuration.UseExternalTimestamp,
		AmplitudePolicy:      sspdiag.AmplitudePolicy,
		ChargePolicy:         sspdiag.ChargePolicy,
	}

	file, err := os.Open(configuration.FileIn)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	evtCount := countEvents(file)
	slogger.Info(fmt.Sprintf("Number of events: %d", evtCount), "module", "main")

	writer := NewWriter(configuration.FileOut)
	defer writer.Close()

	var db *sqlx.DB
	if !configuration.NoDB {
		db, err = ConnectToDatabase(configuration.User, configuration.Passwd, configuration.Host, configuration.DBName)
		if err != nil {
			return fmt.Errorf("error connecting to database: %w", err)
		}
		defer db.Close()
	}

	diag := sspdiag.New(params)
	fileReader := NewFileReader(file)

	start := time.Now()
	currentRun := -1
	evtsProcessed := 0

	for {
		event, err := fileReader.getNextEvent()
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				slogger.Error("replay file truncated", "module", "main")
			}
			break
		}

		if event.RunNumber != currentRun {
			if currentRun >= 0 {
				summary := diag.OnRunEnd(currentRun, configuration.ClockFreq)
				writer.WriteRunSummary(summary, diag.Accumulator())
			}
			currentRun = event.RunNumber
			if db != nil {
				// The geometry mapping is validity-ranged by run, so it
				// has to be refreshed at every run boundary.
				channelMap, err := getChannelMapFromDB(db, currentRun)
				if err != nil {
					return fmt.Errorf("error reading channel map: %w", err)
				}
				diag.SetChannelMap(channelMap)
				slogger.Info(fmt.Sprintf("Channel map loaded from DB for run %d", currentRun), "module", "database")
			}
			diag.OnRunStart()
			slogger.Info(fmt.Sprintf("Starting run %d", currentRun), "module", "main")
		}

		// The replay file carries no reconstructed waveforms; fragment
		// metrics only.
		if err := diag.OnEvent(event.Fragments, nil); err != nil {
			return fmt.Errorf("event %d: %w", evtsProcessed, err)
		}
		evtsProcessed++
	}

	if currentRun >= 0 {
		summary := diag.OnRunEnd(currentRun, configuration.ClockFreq)
		writer.WriteRunSummary(summary, diag.Accumulator())
	}
	writer.WriteSeries(diag.OnJobEnd())

	duration := time.Since(start)
	slogger.Info(fmt.Sprintf("Processed %d events in %d ms", evtsProcessed, duration.Milliseconds()), "module", "main")
	return nil
}
