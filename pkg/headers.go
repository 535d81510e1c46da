package sspdiag

import (
	"bytes"
	"encoding/binary"
)

// SSP trigger header magic word.
const HeaderMagic uint32 = 0xAAAAAAAA

// HeaderWords is the header size in 32-bit words. The length field of each
// trigger counts these words plus the ADC payload.
const HeaderWords = 12

// HeaderBytes is the header size in bytes.
const HeaderBytes = HeaderWords * 4

// TriggerHeader is the fixed-layout SSP trigger header as emitted by the
// digitizer. Field packing follows the hardware format, all little-endian.
type TriggerHeader struct {
	Header       uint32    // magic, 0xAAAAAAAA
	Length       uint16    // packet length in 32-bit words, header included
	Group1       uint16    // trigger type, status flags, header type
	TriggerID    uint16    // trigger id
	Group2       uint16    // module id (bits 4-15), channel id (bits 0-3)
	Timestamp    [4]uint16 // external timestamp, 16 bits each, LSW first
	PeakSumLow   uint16    // lower 16 bits of peak sum
	Group3       uint16    // peak time, upper 8 bits of peak sum
	PreriseLow   uint16    // lower 16 bits of prerise
	Group4       uint16    // upper 8 bits of prerise, lower 8 bits of integrated sum
	IntSumHigh   uint16    // upper 16 bits of integrated sum
	Baseline     uint16    // baseline
	CFDPoint     [4]uint16 // CFD timestamps
	IntTimestamp [4]uint16 // internal interpolation + 48-bit internal timestamp
}

func readTriggerHeader(data []byte) (TriggerHeader, error) {
	var header TriggerHeader
	if len(data) < HeaderBytes {
		return header, &ErrTruncatedHeader{Available: len(data)}
	}
	reader := bytes.NewReader(data[:HeaderBytes])
	if err := binary.Read(reader, binary.LittleEndian, &header); err != nil {
		return header, &ErrBadTriggerHeader{Reason: err.Error()}
	}
	return header, nil
}

// ModuleID extracts the SSP module number from the channel/module word.
func (h *TriggerHeader) ModuleID() uint16 {
	return (h.Group2 & 0xFFF0) >> 4
}

// ChannelID extracts the on-module channel number (0-11).
func (h *TriggerHeader) ChannelID() uint16 {
	return h.Group2 & 0x000F
}

// NADCSamples is the number of 16-bit ADC samples following the header.
func (h *TriggerHeader) NADCSamples() int {
	if int(h.Length) < HeaderWords {
		return 0
	}
	return (int(h.Length) - HeaderWords) * 2
}

// GlobalFirstSample assembles the trigger timestamp in clock ticks. The
// external timestamp is a full 64-bit value built from four words, the
// internal one is 48 bits spread over intTimestamp words 1-3.
func (h *TriggerHeader) GlobalFirstSample(useExternal bool) uint64 {
	var firstSample uint64
	if useExternal {
		for iWord := 0; iWord <= 3; iWord++ {
			firstSample += uint64(h.Timestamp[iWord]) << (16 * iWord)
		}
		return firstSample
	}
	for iWord := 1; iWord <= 3; iWord++ {
		firstSample += uint64(h.IntTimestamp[iWord]) << (16 * (iWord - 1))
	}
	return firstSample
}

// PeakSum is the 24-bit signed peak sum from the leading-edge window.
func (h *TriggerHeader) PeakSum() float64 {
	peakSum := (uint32(h.Group3&0x00FF) << 16) | uint32(h.PeakSumLow)
	if peakSum&0x00800000 != 0 {
		peakSum |= 0xFF000000
	}
	return float64(int32(peakSum))
}

// BaselineSum is the 24-bit prerise (baseline) sum.
func (h *TriggerHeader) BaselineSum() float64 {
	prerise := (uint32(h.Group4&0x00FF) << 16) | uint32(h.PreriseLow)
	return float64(prerise)
}

// IntegratedSum is the 24-bit integrated sum over the charge window.
func (h *TriggerHeader) IntegratedSum() float64 {
	intSum := (uint32(h.IntSumHigh) << 8) | (uint32(h.Group4&0xFF00) >> 8)
	return float64(intSum)
}
