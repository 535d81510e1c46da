package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	sspdiag "github.com/dune-daq/sspdiag/pkg"
)

// Replay file event magic, 'SSPD'.
const eventMagic uint32 = 0x53535044

// EventRecord is one replayed event: the run it belongs to plus the raw SSP
// fragments captured for it.
type EventRecord struct {
	RunNumber int
	Fragments []sspdiag.Fragment
}

// FileReader walks a replay file of framed events. Each event is
// little-endian: magic u32, run number u32, fragment count u32, then per
// fragment a declared trigger count u32, a byte size u32 and the raw bytes.
type FileReader struct {
	File     *os.File
	EvtCount int
}

func NewFileReader(file *os.File) *FileReader {
	return &FileReader{File: file, EvtCount: -1}
}

func (f *FileReader) getNextEvent() (EventRecord, error) {
	for {
		event, err := readEvent(f.File)
		if err != nil {
			return event, err
		}
		f.EvtCount++
		if f.EvtCount >= configuration.MaxEvents {
			fmt.Println("Max events reached")
			return event, io.EOF
		}
		if f.EvtCount < configuration.Skip {
			continue
		}
		return event, nil
	}
}

func readEvent(file *os.File) (EventRecord, error) {
	var event EventRecord

	var magic, runNumber, nFragments uint32
	if err := binary.Read(file, binary.LittleEndian, &magic); err != nil {
		return event, err
	}
	if magic != eventMagic {
		return event, fmt.Errorf("bad event magic 0x%08x", magic)
	}
	if err := binary.Read(file, binary.LittleEndian, &runNumber); err != nil {
		return event, err
	}
	if err := binary.Read(file, binary.LittleEndian, &nFragments); err != nil {
		return event, err
	}

	event.RunNumber = int(runNumber)
	for i := uint32(0); i < nFragments; i++ {
		var nTriggers, size uint32
		if err := binary.Read(file, binary.LittleEndian, &nTriggers); err != nil {
			return event, err
		}
		if err := binary.Read(file, binary.LittleEndian, &size); err != nil {
			return event, err
		}
		data := make([]byte, size)
		if _, err := io.ReadFull(file, data); err != nil {
			return event, err
		}
		event.Fragments = append(event.Fragments, sspdiag.Fragment{
			Data:      data,
			NTriggers: int(nTriggers),
		})
	}
	return event, nil
}

func countEvents(file *os.File) int {
	evtCount := 0
	for {
		_, err := readEvent(file)
		if err != nil {
			break
		}
		evtCount++
	}
	// Go back to the beginning of the file
	file.Seek(0, 0)
	return evtCount
}
