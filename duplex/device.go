package duplex

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/hackrfduplex/hackrf"
)

// chain is one direction: its physical handle and mirrored state, both
// guarded by mu.
type chain struct {
	mu     sync.Mutex
	dir    Direction
	serial string
	dev    hackrf.Device
	state  DirectionState
}

// Device presents an RX-only and a TX-only HackRF as one full duplex radio.
type Device struct {
	lib      hackrf.Library
	registry *Registry

	// indexed by Direction; locks are always taken RX before TX
	chains [2]*chain

	claimed bool
	closed  atomic.Bool
}

// presetKeys are the optional args Make accepts besides the serials, in the
// order they are written.
var presetKeys = []string{"frequency", "sample_rate", "bandwidth", "gain"}

// Make opens the units named by args["rx_serial"] and args["tx_serial"] and
// claims them in reg (DefaultRegistry when nil). Optional presets such as
// rx_frequency, tx_gain or bias_tx are written before the handles open and
// replayed once they are.
func Make(lib hackrf.Library, reg *Registry, args map[string]string) (*Device, error) {
	if reg == nil {
		reg = DefaultRegistry()
	}
	if label, ok := args["label"]; ok {
		log.Infof("Opening %s...", label)
	}

	rxSerial, txSerial := args["rx_serial"], args["tx_serial"]
	if rxSerial == "" {
		return nil, fmt.Errorf("rx_serial: %w", ErrMissingSerial)
	}
	if txSerial == "" {
		return nil, fmt.Errorf("tx_serial: %w", ErrMissingSerial)
	}
	if SerialMatch(rxSerial, txSerial) {
		return nil, ErrSameSerial
	}

	d := &Device{lib: lib, registry: reg}
	for _, dir := range []Direction{RX, TX} {
		d.chains[dir] = &chain{dir: dir, state: defaultState(dir)}
	}
	d.chains[RX].serial = rxSerial
	d.chains[TX].serial = txSerial

	if err := d.writePresets(args); err != nil {
		return nil, err
	}

	rx, err := lib.OpenBySerial(rxSerial)
	if err != nil {
		log.Info("Could not Open HackRF RX Device")
		return nil, fmt.Errorf("hackrf open failed: RX %s: %w", rxSerial, err)
	}
	tx, err := lib.OpenBySerial(txSerial)
	if err != nil {
		log.Info("Could not Open HackRF TX Device")
		if cerr := rx.Close(); cerr != nil {
			log.Errorf("[duplex] closing RX %s after TX open failure: %v", rxSerial, cerr)
		}
		return nil, fmt.Errorf("hackrf open failed: TX %s: %w", txSerial, err)
	}
	if err := reg.Claim(rxSerial, txSerial); err != nil {
		if cerr := rx.Close(); cerr != nil {
			log.Errorf("[duplex] closing RX %s after claim conflict: %v", rxSerial, cerr)
		}
		if cerr := tx.Close(); cerr != nil {
			log.Errorf("[duplex] closing TX %s after claim conflict: %v", txSerial, cerr)
		}
		return nil, err
	}
	d.claimed = true

	d.lockAll()
	d.chains[RX].dev = rx
	d.chains[TX].dev = tx
	rerr := errors.Join(d.chains[RX].replay(), d.chains[TX].replay())
	d.unlockAll()
	if rerr != nil {
		d.Close()
		return nil, rerr
	}

	log.Debugf("[duplex] Opened RX %s and TX %s", rxSerial, txSerial)
	return d, nil
}

func (d *Device) writePresets(args map[string]string) error {
	for _, dir := range []Direction{RX, TX} {
		prefix := "rx_"
		if dir == TX {
			prefix = "tx_"
		}
		for _, key := range presetKeys {
			raw, ok := args[prefix+key]
			if !ok {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", prefix, key, err)
			}
			switch key {
			case "frequency":
				err = d.SetFrequency(dir, "RF", v)
			case "sample_rate":
				err = d.SetSampleRate(dir, v)
			case "bandwidth":
				err = d.SetBandwidth(dir, v)
			case "gain":
				err = d.SetGain(dir, v)
			}
			if err != nil {
				return err
			}
		}
	}
	if raw, ok := args["bias_tx"]; ok {
		on, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("bias_tx: %w", err)
		}
		if err := d.WriteSetting("bias_tx", strconv.FormatBool(on)); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) chain(dir Direction) *chain {
	if dir == TX {
		return d.chains[TX]
	}
	return d.chains[RX]
}

func (d *Device) lockAll() {
	for _, c := range d.chains {
		c.mu.Lock()
	}
}

func (d *Device) unlockAll() {
	for i := len(d.chains) - 1; i >= 0; i-- {
		d.chains[i].mu.Unlock()
	}
}

// Serial returns the serial bound to a direction.
func (d *Device) Serial(dir Direction) string {
	return d.chain(dir).serial
}

// IsOpen reports whether the direction currently holds a physical handle.
func (d *Device) IsOpen(dir Direction) bool {
	c := d.chain(dir)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev != nil
}

// Snapshot returns a copy of the mirrored state of a direction.
func (d *Device) Snapshot(dir Direction) DirectionState {
	c := d.chain(dir)
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.dirty = 0
	return s
}

// Reconnect closes and reopens one direction's handle and replays the
// mirrored state onto it. If the reopen fails the direction stays without a
// handle and further writes are kept pending.
func (d *Device) Reconnect(dir Direction) error {
	c := d.chain(dir)
	c.mu.Lock()
	defer c.mu.Unlock()
	// Close flips the flag before taking the chain locks, so checking under
	// the lock means a closed device never reopens a handle.
	if d.closed.Load() {
		return ErrClosed
	}

	if c.dev != nil {
		if err := c.dev.Close(); err != nil {
			log.Errorf("[duplex] %s close returned %v", dir, err)
		}
		c.dev = nil
		c.state.dirty = c.state.written()
		if c.state.dirty != 0 {
			c.state.State = Pending
		}
	}
	dev, err := d.lib.OpenBySerial(c.serial)
	if err != nil {
		return fmt.Errorf("hackrf open failed: %s %s: %w", dir, c.serial, err)
	}
	c.dev = dev
	return c.replay()
}

// Close releases both claims and then both handles. It is safe to call more
// than once.
func (d *Device) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	if d.claimed {
		d.registry.Release(d.chains[RX].serial, d.chains[TX].serial)
	}

	d.lockAll()
	defer d.unlockAll()
	var errs []error
	for _, c := range d.chains {
		if c.dev == nil {
			continue
		}
		if err := c.dev.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s close: %w", c.dir, err))
		}
		c.dev = nil
	}
	return errors.Join(errs...)
}

// written is the set of fields that differ from a fresh direction and so must
// be pushed to a newly opened handle.
func (s DirectionState) written() fieldSet {
	var fs fieldSet
	if s.State == Unconfigured {
		return fs
	}
	fs.add(FieldGain)
	if s.Frequency > 0 {
		fs.add(FieldFrequency)
	}
	if s.SampleRate > 0 {
		fs.add(FieldSampleRate)
	}
	if !s.AutoBandwidth {
		fs.add(FieldBandwidth)
	}
	if s.Bias {
		fs.add(FieldBias)
	}
	return fs
}

// commit pushes a field that was just written to the mirror. Without a handle
// the write is kept pending. Hardware failures follow the field's policy.
func (c *chain) commit(f Field, what string, apply func(hackrf.Device) error, rollback func()) error {
	if c.dev == nil {
		c.state.dirty.add(f)
		c.state.State = Pending
		return nil
	}
	err := apply(c.dev)
	if err == nil {
		c.state.State = Applied
		return nil
	}
	log.Errorf("%s %s returned %v", c.dir, what, err)
	if PolicyFor(f) == Fatal {
		if rollback != nil {
			rollback()
		}
		return fmt.Errorf("%s %s: %w", c.dir, what, err)
	}
	c.state.State = Applied
	return nil
}

// apply writes the mirrored value of one field to the open handle.
func (c *chain) apply(f Field) error {
	s := &c.state
	switch f {
	case FieldFrequency:
		return c.dev.SetFrequency(uint64(s.Frequency))
	case FieldSampleRate:
		return c.dev.SetSampleRate(s.SampleRate)
	case FieldBandwidth:
		if s.AutoBandwidth {
			return nil
		}
		return c.dev.SetBasebandFilterBandwidth(uint32(s.Bandwidth))
	case FieldGain:
		return c.applyStages()
	case FieldBias:
		return c.dev.SetAntennaEnable(s.Bias)
	}
	return nil
}

func (c *chain) applyStages() error {
	s := &c.state
	if c.dir == RX {
		return errors.Join(
			c.dev.SetLNAGain(uint32(s.LNAGain)),
			c.dev.SetVGAGain(uint32(s.VGAGain)),
			c.dev.SetAmpEnable(s.AmpEnabled()),
		)
	}
	return errors.Join(
		c.dev.SetTxVGAGain(uint32(s.VGAGain)),
		c.dev.SetAmpEnable(s.AmpEnabled()),
	)
}

var replayOrder = []Field{FieldFrequency, FieldSampleRate, FieldBandwidth, FieldGain, FieldBias}

// replay pushes every pending field to a freshly opened handle.
func (c *chain) replay() error {
	dirty := c.state.dirty
	c.state.dirty = 0
	if dirty == 0 {
		return nil
	}
	log.Debugf("[duplex] %s replaying pending configuration", c.dir)

	var errs []error
	for _, f := range replayOrder {
		if !dirty.has(f) {
			continue
		}
		err := c.apply(f)
		if err == nil {
			continue
		}
		log.Errorf("%s replay of %s returned %v", c.dir, f, err)
		if PolicyFor(f) == Fatal {
			c.state.dirty.add(f)
			errs = append(errs, fmt.Errorf("%s %s: %w", c.dir, f, err))
		}
	}
	if c.state.dirty != 0 {
		c.state.State = Pending
	} else {
		c.state.State = Applied
	}
	return errors.Join(errs...)
}
