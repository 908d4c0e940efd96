package duplex

import (
	"fmt"
	"strings"
)

type Direction int

const (
	RX Direction = iota
	TX
)

func (d Direction) String() string {
	switch d {
	case RX:
		return "RX"
	case TX:
		return "TX"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection accepts "rx"/"tx" in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rx":
		return RX, nil
	case "tx":
		return TX, nil
	}
	return RX, fmt.Errorf("unknown direction %q", s)
}

// ConfigState tracks whether the mirrored configuration has reached hardware.
type ConfigState int

const (
	Unconfigured ConfigState = iota
	Pending
	Applied
)

func (s ConfigState) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Pending:
		return "pending"
	case Applied:
		return "applied"
	}
	return "invalid"
}

// DirectionState mirrors the configuration of one direction. Stages that a
// direction does not have stay zero (TX has no LNA).
type DirectionState struct {
	LNAGain       int
	VGAGain       int
	AmpGain       int
	Frequency     float64
	SampleRate    float64
	Bandwidth     float64
	AutoBandwidth bool
	State         ConfigState

	// RX only.
	Overflow bool

	// TX only.
	Underflow  bool
	BurstSamps int
	BurstEnd   bool
	Bias       bool

	// dirty fields written while no handle was open, replayed on open
	dirty fieldSet
}

// Gain is the sum of the mirrored stages.
func (s DirectionState) Gain() int {
	return s.LNAGain + s.VGAGain + s.AmpGain
}

func (s DirectionState) AmpEnabled() bool {
	return s.AmpGain > 0
}

func defaultState(dir Direction) DirectionState {
	s := DirectionState{AutoBandwidth: true, State: Unconfigured}
	if dir == RX {
		s.LNAGain = 16
		s.VGAGain = 16
	}
	return s
}

// Field names one piece of mirrored configuration.
type Field int

const (
	FieldFrequency Field = iota
	FieldSampleRate
	FieldBandwidth
	FieldGain
	FieldBias
)

func (f Field) String() string {
	switch f {
	case FieldFrequency:
		return "frequency"
	case FieldSampleRate:
		return "sample rate"
	case FieldBandwidth:
		return "bandwidth"
	case FieldGain:
		return "gain"
	case FieldBias:
		return "antenna bias"
	}
	return "unknown"
}

type fieldSet uint8

func (fs fieldSet) has(f Field) bool { return fs&(1<<f) != 0 }

func (fs *fieldSet) add(f Field) { *fs |= 1 << f }

// Policy decides what a hardware rejection does to the caller.
type Policy int

const (
	// Soft failures are logged and the mirrored value is kept.
	Soft Policy = iota
	// Fatal failures roll the mirrored value back and return the error.
	Fatal
)

func (p Policy) String() string {
	if p == Fatal {
		return "fatal"
	}
	return "soft"
}

var policies = map[Field]Policy{
	FieldFrequency:  Soft,
	FieldSampleRate: Fatal,
	FieldBandwidth:  Fatal,
	FieldGain:       Soft,
	FieldBias:       Soft,
}

// PolicyFor returns the failure policy of a field.
func PolicyFor(f Field) Policy {
	return policies[f]
}
