package duplex

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/hackrfduplex/hackrf"
)

const antennaName = "TX/RX"

func (d *Device) DriverKey() string {
	return "HackRFDuplex"
}

// HardwareKey names the RX board.
func (d *Device) HardwareKey() string {
	c := d.chain(RX)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dev == nil {
		return hackrf.BoardUndetected.String()
	}
	board, err := c.dev.BoardID()
	if err != nil {
		log.Errorf("RX hackrf_board_id_read returned %v", err)
	}
	return board.String()
}

// HardwareInfo reads version, part id, serial and clock source of both units.
// It holds both direction locks for the whole read.
func (d *Device) HardwareInfo() map[string]string {
	d.lockAll()
	defer d.unlockAll()

	info := make(map[string]string)
	for _, c := range d.chains {
		prefix := "rx"
		if c.dir == TX {
			prefix = "tx"
		}
		if c.dev == nil {
			info[prefix+" serial"] = c.serial
			continue
		}
		if v, err := c.dev.Version(); err == nil {
			info[prefix+" version"] = v
		} else {
			log.Errorf("%s hackrf_version_string_read returned %v", c.dir, err)
		}
		if ids, err := c.dev.PartIDSerial(); err == nil {
			info[prefix+" part id"] = ids.PartIDString()
			info[prefix+" serial"] = ids.SerialString()
		} else {
			log.Errorf("%s hackrf_board_partid_serialno_read returned %v", c.dir, err)
		}
		if clock, err := c.dev.ReadClockRegister(); err == nil {
			info[prefix+" clock source"] = clockSource(clock)
		} else {
			log.Errorf("%s hackrf_si5351c_read returned %v", c.dir, err)
		}
	}
	return info
}

func clockSource(reg uint16) string {
	if reg == hackrf.ClockInternal {
		return "internal"
	}
	return "external"
}

func (d *Device) NumChannels(dir Direction) int {
	return 1
}

func (d *Device) FullDuplex(dir Direction) bool {
	return true
}

func (d *Device) ListAntennas(dir Direction) []string {
	return []string{antennaName}
}

func (d *Device) Antenna(dir Direction) string {
	return antennaName
}

// SetAntenna accepts only the single shared port.
func (d *Device) SetAntenna(dir Direction, name string) error {
	if name != antennaName {
		return fmt.Errorf("setAntenna(%s): %w", name, ErrUnknownAntenna)
	}
	return nil
}

func (d *Device) HasDCOffsetMode(dir Direction) bool {
	return false
}

type ArgType int

const (
	ArgBool ArgType = iota
	ArgInt
	ArgFloat
	ArgString
)

type ArgInfo struct {
	Key         string
	Value       string
	Name        string
	Description string
	Type        ArgType
}

func (d *Device) SettingInfo() []ArgInfo {
	return []ArgInfo{{
		Key:         "bias_tx",
		Value:       "false",
		Name:        "Antenna Bias",
		Description: "Antenna port power control.",
		Type:        ArgBool,
	}}
}

// WriteSetting handles bias_tx; other keys are ignored. A rejected bias
// change is logged only.
func (d *Device) WriteSetting(key, value string) error {
	if key != "bias_tx" {
		return nil
	}
	c := d.chain(TX)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Bias = value == "true"
	on := c.state.Bias
	return c.commit(FieldBias, "hackrf_set_antenna_enable",
		func(dev hackrf.Device) error { return dev.SetAntennaEnable(on) }, nil)
}

func (d *Device) ReadSetting(key string) string {
	if key != "bias_tx" {
		return ""
	}
	c := d.chain(TX)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Bias {
		return "true"
	}
	return "false"
}
