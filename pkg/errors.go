package sspdiag

import "fmt"

// ErrInvalidFragment reports a fragment flagged invalid by the host. This is
// the one condition treated as fatal for the event, since it points at a
// data-integrity problem upstream of the decoder.
type ErrInvalidFragment struct {
	Index int
}

func (e *ErrInvalidFragment) Error() string {
	return fmt.Sprintf("raw fragment %d is NOT VALID", e.Index)
}

// ErrTruncatedHeader reports a trigger header extending past the buffer end.
type ErrTruncatedHeader struct {
	Available int
}

func (e *ErrTruncatedHeader) Error() string {
	return fmt.Sprintf("trigger header truncated: %d bytes available, %d needed", e.Available, HeaderBytes)
}

// ErrBadTriggerHeader reports a header that could not be interpreted.
type ErrBadTriggerHeader struct {
	Reason string
}

func (e *ErrBadTriggerHeader) Error() string {
	return fmt.Sprintf("bad trigger header: %s", e.Reason)
}

// ErrImplausibleTimestamp reports a trigger timestamp above the sanity bound.
type ErrImplausibleTimestamp struct {
	FirstSample uint64
}

func (e *ErrImplausibleTimestamp) Error() string {
	return fmt.Sprintf("problem timestamp at %d", e.FirstSample)
}
