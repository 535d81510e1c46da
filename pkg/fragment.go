package sspdiag

import "fmt"

// Fragment is one raw SSP record handed in by the host for a single event.
// NTriggers is the trigger count declared in the fragment metadata; 0 means
// decode until the buffer is exhausted. Invalid marks fragments the host
// flagged as corrupt.
type Fragment struct {
	Data      []byte
	NTriggers int
	Invalid   bool
}

// FragmentDecoder walks a fragment buffer and yields trigger headers one at
// a time. The cursor advances by the header plus the ADC payload implied by
// each header's length field, so well-formed fragments are consumed exactly.
type FragmentDecoder struct {
	data      []byte
	nTriggers int
	position  int
	processed int
}

func NewFragmentDecoder(frag Fragment) *FragmentDecoder {
	return &FragmentDecoder{data: frag.Data, nTriggers: frag.NTriggers}
}

// Position returns the cursor offset in bytes, for diagnostics.
func (d *FragmentDecoder) Position() int {
	return d.position
}

// Next returns the next trigger header in buffer order. It returns false
// when the declared trigger count is reached, the buffer is exhausted, or a
// header or its payload would read past the buffer end. A header with a bad
// magic word but a usable length is skipped and decoding continues with the
// following trigger.
func (d *FragmentDecoder) Next() (TriggerHeader, bool) {
	for {
		if d.nTriggers != 0 && d.processed >= d.nTriggers {
			return TriggerHeader{}, false
		}
		if d.position >= len(d.data) {
			return TriggerHeader{}, false
		}

		header, err := readTriggerHeader(d.data[d.position:])
		if err != nil {
			// Partial header at the end of the buffer, no record to emit.
			return TriggerHeader{}, false
		}
		if int(header.Length) < HeaderWords {
			logger.Error(fmt.Sprintf("trigger length %d below header size at byte %d, stopping fragment", header.Length, d.position), "decoder")
			return TriggerHeader{}, false
		}

		recordBytes := HeaderBytes + header.NADCSamples()*2
		if d.position+recordBytes > len(d.data) {
			// Payload truncated, no partial record.
			return TriggerHeader{}, false
		}
		d.position += recordBytes
		d.processed++

		if header.Header != HeaderMagic {
			logger.Warn(fmt.Sprintf("skipping trigger with bad magic 0x%08x at byte %d", header.Header, d.position-recordBytes), "decoder")
			continue
		}
		return header, true
	}
}
