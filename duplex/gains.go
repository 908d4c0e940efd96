package duplex

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/hackrfduplex/hackrf"
)

// ListGains lists the named stages of a direction. The order matches what
// gr-osmosdr expects: IF gain first, baseband gain last.
func (d *Device) ListGains(dir Direction) []string {
	if dir == RX {
		return []string{"LNA", "AMP", "VGA"}
	}
	return []string{"VGA", "AMP"}
}

// GainMode reports automatic gain control, which the hardware does not have.
func (d *Device) GainMode(dir Direction) bool {
	return false
}

// SetGain splits a composite gain across the stages of dir and applies them.
// Stage rejections are logged only.
func (d *Device) SetGain(dir Direction, value float64) error {
	stages := AllocateGain(dir, value)
	log.Debugf("[duplex] setGain RF %s, gain %v -> %+v", dir, value, stages)

	c := d.chain(dir)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.LNAGain = stages.LNA
	c.state.VGAGain = stages.VGA
	c.state.AmpGain = stages.AMP
	return c.commit(FieldGain, fmt.Sprintf("setGain(%f)", value),
		func(hackrf.Device) error { return c.applyStages() }, nil)
}

// Gain is the sum of the mirrored stage values.
func (d *Device) Gain(dir Direction) float64 {
	c := d.chain(dir)
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.state.Gain())
}

func (d *Device) GainRange(dir Direction) Range {
	return Range{0, float64(MaxGain(dir)), 1}
}

// SetGainElement writes exactly one named stage, bypassing the composite
// split. AMP is clipped to off or full boost. Names a direction does not have
// are ignored.
func (d *Device) SetGainElement(dir Direction, name string, value float64) error {
	log.Debugf("[duplex] setGain %s %s, gain %v", name, dir, value)
	c := d.chain(dir)
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case name == "AMP":
		c.state.AmpGain = ClipAmp(value)
		on := c.state.AmpEnabled()
		return c.commit(FieldGain, fmt.Sprintf("hackrf_set_amp_enable(%d)", c.state.AmpGain),
			func(dev hackrf.Device) error { return dev.SetAmpEnable(on) }, nil)
	case dir == RX && name == "LNA":
		c.state.LNAGain = truncDB(value, hackrf.RxLNAMaxDB)
		db := uint32(c.state.LNAGain)
		return c.commit(FieldGain, fmt.Sprintf("hackrf_set_lna_gain(%d)", db),
			func(dev hackrf.Device) error { return dev.SetLNAGain(db) }, nil)
	case dir == RX && name == "VGA":
		c.state.VGAGain = truncDB(value, hackrf.RxVGAMaxDB)
		db := uint32(c.state.VGAGain)
		return c.commit(FieldGain, fmt.Sprintf("hackrf_set_vga_gain(%d)", db),
			func(dev hackrf.Device) error { return dev.SetVGAGain(db) }, nil)
	case dir == TX && name == "VGA":
		c.state.VGAGain = truncDB(value, hackrf.TxVGAMaxDB)
		db := uint32(c.state.VGAGain)
		return c.commit(FieldGain, fmt.Sprintf("hackrf_set_txvga_gain(%d)", db),
			func(dev hackrf.Device) error { return dev.SetTxVGAGain(db) }, nil)
	}
	log.Debugf("[duplex] ignoring unknown %s gain %q", dir, name)
	return nil
}

// GainElement reads one mirrored stage; unknown names read as zero.
func (d *Device) GainElement(dir Direction, name string) float64 {
	c := d.chain(dir)
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case name == "AMP":
		return float64(c.state.AmpGain)
	case dir == RX && name == "LNA":
		return float64(c.state.LNAGain)
	case name == "VGA":
		return float64(c.state.VGAGain)
	}
	return 0
}

func (d *Device) GainElementRange(dir Direction, name string) Range {
	switch {
	case name == "AMP":
		return Range{0, hackrf.AmpMaxDB, hackrf.AmpMaxDB}
	case dir == RX && name == "LNA":
		return Range{0, hackrf.RxLNAMaxDB, hackrf.RxLNAStepDB}
	case dir == RX && name == "VGA":
		return Range{0, hackrf.RxVGAMaxDB, hackrf.RxVGAStepDB}
	case dir == TX && name == "VGA":
		return Range{0, hackrf.TxVGAMaxDB, hackrf.TxVGAStepDB}
	}
	return Range{}
}
