package hackrf

import (
	"fmt"
	"strconv"
	"strings"
)

// Gain stage limits in dB.
const (
	RxLNAMaxDB = 40
	RxVGAMaxDB = 62
	TxVGAMaxDB = 47
	AmpMaxDB   = 14

	RxLNAStepDB = 8
	RxVGAStepDB = 2
	TxVGAStepDB = 1
)

const (
	MaxFrequencyHz = 7250000000

	// ClockInternal is what si5351c register 0 reads when the board runs off its own crystal.
	ClockInternal = 0x51
)

type Error int

const (
	Success               Error = 0
	True                  Error = 1
	ErrInvalidParam       Error = -2
	ErrNotFound           Error = -5
	ErrBusy               Error = -6
	ErrNoMem              Error = -11
	ErrLibUSB             Error = -1000
	ErrThread             Error = -1001
	ErrStreamingThreadErr Error = -1002
	ErrStreamingStopped   Error = -1003
	ErrStreamingExit      Error = -1004
	ErrUSBAPIVersion      Error = -1005
	ErrNotLastDevice      Error = -2000
	ErrOther              Error = -9999
)

func (e Error) Error() string {
	switch e {
	case Success:
		return "HACKRF_SUCCESS"
	case True:
		return "HACKRF_TRUE"
	case ErrInvalidParam:
		return "invalid parameter(s)"
	case ErrNotFound:
		return "HackRF not found"
	case ErrBusy:
		return "HackRF busy"
	case ErrNoMem:
		return "insufficient memory"
	case ErrLibUSB:
		return "USB error"
	case ErrThread:
		return "transfer thread error"
	case ErrStreamingThreadErr:
		return "streaming thread encountered an error"
	case ErrStreamingStopped:
		return "streaming stopped"
	case ErrStreamingExit:
		return "streaming terminated"
	case ErrUSBAPIVersion:
		return "feature not supported by installed firmware"
	case ErrNotLastDevice:
		return "one or more HackRFs still in use"
	case ErrOther:
		return "unspecified error"
	}
	return fmt.Sprintf("unknown error code %d", int(e))
}

// Wrap tags a backend failure with a result code and keeps the backend's own
// error in the chain.
func Wrap(code Error, op string, cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%s: %w (%w)", op, code, cause)
}

type BoardID uint8

const (
	BoardJellybean    BoardID = 0
	BoardJawbreaker   BoardID = 1
	BoardHackRF1OG    BoardID = 2
	BoardRad1o        BoardID = 3
	BoardHackRF1R9    BoardID = 4
	BoardUnrecognized BoardID = 0xFE
	BoardUndetected   BoardID = 0xFF
)

func (b BoardID) String() string {
	switch b {
	case BoardJellybean:
		return "Jellybean"
	case BoardJawbreaker:
		return "Jawbreaker"
	case BoardHackRF1OG, BoardHackRF1R9:
		return "HackRF One"
	case BoardRad1o:
		return "rad1o"
	case BoardUnrecognized:
		return "unrecognized"
	case BoardUndetected:
		return "undetected"
	}
	return "unknown"
}

// BoardIDFromName maps a board name back to its id. Ambiguous names resolve to
// the oldest revision.
func BoardIDFromName(name string) BoardID {
	for _, b := range []BoardID{BoardJellybean, BoardJawbreaker, BoardHackRF1OG, BoardRad1o, BoardUnrecognized} {
		if strings.EqualFold(b.String(), name) {
			return b
		}
	}
	return BoardUndetected
}

type PartIDSerial struct {
	PartID   [2]uint32
	SerialNo [4]uint32
}

func (p PartIDSerial) PartIDString() string {
	return fmt.Sprintf("%08x%08x", p.PartID[0], p.PartID[1])
}

// SerialString is the full 32 digit hex serial, zero padded.
func (p PartIDSerial) SerialString() string {
	return fmt.Sprintf("%08x%08x%08x%08x", p.SerialNo[0], p.SerialNo[1], p.SerialNo[2], p.SerialNo[3])
}

func (p PartIDSerial) TrimmedSerial() string {
	return TrimSerial(p.SerialString())
}

func TrimSerial(serial string) string {
	return strings.TrimLeft(serial, "0")
}

// ParseSerial reads a hex serial, padded or trimmed, into its four words.
func ParseSerial(serial string) ([4]uint32, error) {
	var words [4]uint32
	s := strings.ToLower(strings.TrimSpace(serial))
	if len(s) > 32 {
		return words, fmt.Errorf("serial %q longer than 32 hex digits", serial)
	}
	s = strings.Repeat("0", 32-len(s)) + s
	for i := range words {
		w, err := strconv.ParseUint(s[i*8:(i+1)*8], 16, 32)
		if err != nil {
			return words, fmt.Errorf("serial %q: %w", serial, err)
		}
		words[i] = uint32(w)
	}
	return words, nil
}

// ParsePartID reads the 16 digit hex part id rendering.
func ParsePartID(partID string) ([2]uint32, error) {
	var words [2]uint32
	s := strings.TrimSpace(partID)
	if len(s) > 16 {
		return words, fmt.Errorf("part id %q longer than 16 hex digits", partID)
	}
	s = strings.Repeat("0", 16-len(s)) + s
	for i := range words {
		w, err := strconv.ParseUint(s[i*8:(i+1)*8], 16, 32)
		if err != nil {
			return words, fmt.Errorf("part id %q: %w", partID, err)
		}
		words[i] = uint32(w)
	}
	return words, nil
}

// Device is one open physical unit.
type Device interface {
	Close() error
	BoardID() (BoardID, error)
	Version() (string, error)
	PartIDSerial() (PartIDSerial, error)
	ReadClockRegister() (uint16, error)

	SetFrequency(hz uint64) error
	SetSampleRate(hz float64) error
	SetBasebandFilterBandwidth(hz uint32) error
	SetLNAGain(db uint32) error
	SetVGAGain(db uint32) error
	SetTxVGAGain(db uint32) error
	SetAmpEnable(on bool) error
	SetAntennaEnable(on bool) error
}

// Library lists and opens physical units.
type Library interface {
	Count() (int, error)
	OpenIndex(index int) (Device, error)
	OpenBySerial(serial string) (Device, error)
}
