package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

type Configuration struct {
	MaxEvents    int    `json:"max_events"`
	Skip         int    `json:"skip"`
	Verbosity    int    `json:"verbosity"`
	FileIn       string `json:"file_in"`
	FileOut      string `json:"file_out"`
	FragType     string `json:"frag_type"`
	RawDataLabel string `json:"raw_data_label"`
	InputModule  string `json:"input_module"`
	InputLabel   string `json:"input_label"`

	SampleFreq float64 `json:"sample_freq"` // MHz
	ClockFreq  float64 `json:"clock_freq"`  // MHz

	M1Window             int  `json:"m1_window"`
	I1Window             int  `json:"i1_window"`
	I2Window             int  `json:"i2_window"`
	UseExternalTimestamp bool `json:"use_external_timestamp"`

	NoDB   bool   `json:"no_db"`
	Host   string `json:"host"`
	User   string `json:"user"`
	Passwd string `json:"pass"`
	DBName string `json:"dbname"`
}

func LoadConfiguration(filename string) (Configuration, error) {
	var config Configuration

	// Set default values
	config.MaxEvents = 1000000000
	config.Skip = 0
	config.Verbosity = 0
	config.FragType = "PHOTON"
	config.RawDataLabel = "daq"
	config.InputModule = "ssptooffline"
	config.InputLabel = "offlinePhoton"
	config.SampleFreq = 150
	config.ClockFreq = 64
	config.M1Window = 10
	config.I1Window = 500
	config.I2Window = 500
	config.UseExternalTimestamp = true
	config.NoDB = false
	config.Host = "dune-daq.fnal.gov"
	config.User = "sspreader"
	config.Passwd = "readonly"
	config.DBName = "SSPDIAG"

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	return config, nil
}

func printConfiguration(config Configuration, logger *slog.Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "module", "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "module", "config")
	logger.Info(fmt.Sprintf("Fragment type: %s", config.FragType), "module", "config")
	logger.Info(fmt.Sprintf("Raw data label: %s", config.RawDataLabel), "module", "config")
	logger.Info(fmt.Sprintf("Input module: %s", config.InputModule), "module", "config")
	logger.Info(fmt.Sprintf("Input label: %s", config.InputLabel), "module", "config")
	logger.Info(fmt.Sprintf("Sample freq: %g MHz", config.SampleFreq), "module", "config")
	logger.Info(fmt.Sprintf("Clock freq: %g MHz", config.ClockFreq), "module", "config")
	logger.Info(fmt.Sprintf("Windows m1/i1/i2: %d/%d/%d", config.M1Window, config.I1Window, config.I2Window), "module", "config")
	logger.Info(fmt.Sprintf("External timestamp: %t", config.UseExternalTimestamp), "module", "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "module", "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "module", "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "module", "config")
	logger.Info(fmt.Sprintf("Skip: %d", config.Skip), "module", "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "module", "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "module", "config")
}
