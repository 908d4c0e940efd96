package hackrf

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// SimUnit is one simulated board. Fail maps an operation name (as recorded in
// Calls, e.g. "SetSampleRate") to the result code it should return.
type SimUnit struct {
	Board    BoardID
	Version  string
	Part     PartIDSerial
	Clock    uint16
	FailOpen bool
	Fail     map[string]Error

	open bool
}

// Sim is an in-memory Library. It keeps units across opens so tests can
// inspect what was written to them.
type Sim struct {
	mu    sync.Mutex
	units []*SimUnit
	calls []string
}

func NewSim(units ...*SimUnit) *Sim {
	return &Sim{units: units}
}

// NewSimFromSerials builds a HackRF One per serial with internal clocks.
func NewSimFromSerials(serials ...string) (*Sim, error) {
	s := &Sim{}
	for i, serial := range serials {
		words, err := ParseSerial(serial)
		if err != nil {
			return nil, err
		}
		s.units = append(s.units, &SimUnit{
			Board:   BoardHackRF1R9,
			Version: "2024.02.1",
			Part:    PartIDSerial{PartID: [2]uint32{0xa000cb3c, 0x00574f44 + uint32(i)}, SerialNo: words},
			Clock:   ClockInternal,
		})
	}
	return s, nil
}

// Unit returns the unit with the given serial, padded or trimmed.
func (s *Sim) Unit(serial string) *SimUnit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(serial)
}

func (s *Sim) find(serial string) *SimUnit {
	for _, u := range s.units {
		full := u.Part.SerialString()
		if serial == full || TrimSerial(serial) == TrimSerial(full) {
			return u
		}
	}
	return nil
}

// Calls returns every operation applied so far, formatted as "serial:Op(arg)".
func (s *Sim) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *Sim) ResetCalls() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}

// IsOpen reports whether some handle currently holds the unit.
func (s *Sim) IsOpen(serial string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.find(serial)
	return u != nil && u.open
}

func (s *Sim) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.units), nil
}

func (s *Sim) OpenIndex(index int) (Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.units) {
		return nil, ErrNotFound
	}
	return s.open(s.units[index])
}

func (s *Sim) OpenBySerial(serial string) (Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.find(serial)
	if u == nil {
		return nil, ErrNotFound
	}
	return s.open(u)
}

func (s *Sim) open(u *SimUnit) (Device, error) {
	if u.FailOpen {
		return nil, ErrLibUSB
	}
	if u.open {
		return nil, ErrBusy
	}
	u.open = true
	log.Debugf("[sim] opened %s", u.Part.TrimmedSerial())
	return &simDevice{sim: s, unit: u}, nil
}

type simDevice struct {
	sim    *Sim
	unit   *SimUnit
	closed bool
}

func (d *simDevice) do(op string, arg any) error {
	d.sim.mu.Lock()
	defer d.sim.mu.Unlock()
	if d.closed {
		return ErrInvalidParam
	}
	if code, ok := d.unit.Fail[op]; ok && code != Success {
		return code
	}
	if arg != nil {
		d.sim.calls = append(d.sim.calls, fmt.Sprintf("%s:%s(%v)", d.unit.Part.TrimmedSerial(), op, arg))
	}
	return nil
}

func (d *simDevice) Close() error {
	d.sim.mu.Lock()
	defer d.sim.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.unit.open = false
	if code, ok := d.unit.Fail["Close"]; ok && code != Success {
		return code
	}
	return nil
}

func (d *simDevice) BoardID() (BoardID, error) {
	if err := d.do("BoardID", nil); err != nil {
		return BoardUndetected, err
	}
	return d.unit.Board, nil
}

func (d *simDevice) Version() (string, error) {
	if err := d.do("Version", nil); err != nil {
		return "", err
	}
	return d.unit.Version, nil
}

func (d *simDevice) PartIDSerial() (PartIDSerial, error) {
	if err := d.do("PartIDSerial", nil); err != nil {
		return PartIDSerial{}, err
	}
	return d.unit.Part, nil
}

func (d *simDevice) ReadClockRegister() (uint16, error) {
	if err := d.do("ReadClockRegister", nil); err != nil {
		return 0, err
	}
	return d.unit.Clock, nil
}

func (d *simDevice) SetFrequency(hz uint64) error { return d.do("SetFrequency", hz) }

func (d *simDevice) SetSampleRate(hz float64) error { return d.do("SetSampleRate", hz) }

func (d *simDevice) SetBasebandFilterBandwidth(hz uint32) error {
	return d.do("SetBasebandFilterBandwidth", hz)
}

func (d *simDevice) SetLNAGain(db uint32) error { return d.do("SetLNAGain", db) }

func (d *simDevice) SetVGAGain(db uint32) error { return d.do("SetVGAGain", db) }

func (d *simDevice) SetTxVGAGain(db uint32) error { return d.do("SetTxVGAGain", db) }

func (d *simDevice) SetAmpEnable(on bool) error { return d.do("SetAmpEnable", on) }

func (d *simDevice) SetAntennaEnable(on bool) error { return d.do("SetAntennaEnable", on) }
