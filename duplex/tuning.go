package duplex

import (
	"fmt"
	"math"

	"github.com/jrwynneiii/hackrfduplex/hackrf"
	"gonum.org/v1/gonum/floats"
)

type Range struct {
	Min  float64
	Max  float64
	Step float64
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

const (
	minSampleRate  = 1e6
	maxSampleRate  = 20e6
	sampleRateStep = 1e6
)

// Supported baseband filter bandwidths in Hz, ascending.
var bandwidths = []float64{
	1750000, 2500000, 3500000, 5000000, 5500000, 6000000, 7000000, 8000000,
	9000000, 10000000, 12000000, 14000000, 15000000, 20000000, 24000000, 28000000,
}

func (d *Device) ListFrequencies(dir Direction) []string {
	return []string{"RF"}
}

func (d *Device) FrequencyRange(dir Direction, name string) ([]Range, error) {
	switch name {
	case "BB":
		return []Range{{0, 0, 0}}, nil
	case "RF":
		return []Range{{0, hackrf.MaxFrequencyHz, 0}}, nil
	}
	return nil, fmt.Errorf("getFrequencyRange(%s): %w", name, ErrUnknownName)
}

// SetFrequency tunes the named component. "BB" is accepted and ignored.
// Hardware rejections are logged and the requested value is kept.
func (d *Device) SetFrequency(dir Direction, name string, hz float64) error {
	if name == "BB" {
		return nil
	}
	if name != "RF" {
		return fmt.Errorf("setFrequency(%s): %w", name, ErrUnknownName)
	}
	// values past the hardware range still go to the unit, which rejects them
	if hz < 0 || math.IsNaN(hz) || hz >= math.MaxUint64 {
		return fmt.Errorf("setFrequency(%f): %w", hz, hackrf.ErrInvalidParam)
	}
	c := d.chain(dir)
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.state.Frequency
	c.state.Frequency = hz
	return c.commit(FieldFrequency, fmt.Sprintf("hackrf_set_freq(%f)", hz),
		func(dev hackrf.Device) error { return dev.SetFrequency(uint64(hz)) },
		func() { c.state.Frequency = prev })
}

func (d *Device) Frequency(dir Direction, name string) (float64, error) {
	if name == "BB" {
		return 0, nil
	}
	if name != "RF" {
		return 0, fmt.Errorf("getFrequency(%s): %w", name, ErrUnknownName)
	}
	c := d.chain(dir)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Frequency, nil
}

// SetSampleRate fails the call on a hardware rejection and restores the
// previous mirrored rate.
func (d *Device) SetSampleRate(dir Direction, rate float64) error {
	c := d.chain(dir)
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.state.SampleRate
	c.state.SampleRate = rate
	return c.commit(FieldSampleRate, fmt.Sprintf("hackrf_set_sample_rate(%f)", rate),
		func(dev hackrf.Device) error { return dev.SetSampleRate(rate) },
		func() { c.state.SampleRate = prev })
}

func (d *Device) SampleRate(dir Direction) float64 {
	c := d.chain(dir)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.SampleRate
}

func (d *Device) SampleRateRange(dir Direction) []Range {
	return []Range{{minSampleRate, maxSampleRate, 0}}
}

// ListSampleRates returns the named rates, 1 MHz apart.
func (d *Device) ListSampleRates(dir Direction) []float64 {
	n := int((maxSampleRate-minSampleRate)/sampleRateStep) + 1
	return floats.Span(make([]float64, n), minSampleRate, maxSampleRate)
}

// SetBandwidth applies a baseband filter bandwidth. Zero or negative switches
// the direction back to automatic bandwidth without touching the hardware.
func (d *Device) SetBandwidth(dir Direction, bw float64) error {
	if math.IsNaN(bw) || bw > math.MaxUint32 {
		return fmt.Errorf("setBandwidth(%f): %w", bw, hackrf.ErrInvalidParam)
	}
	c := d.chain(dir)
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, prevAuto := c.state.Bandwidth, c.state.AutoBandwidth
	c.state.Bandwidth = bw
	if bw <= 0 {
		c.state.AutoBandwidth = true
		return nil
	}
	c.state.AutoBandwidth = false
	return c.commit(FieldBandwidth, fmt.Sprintf("hackrf_set_baseband_filter_bandwidth(%f)", bw),
		func(dev hackrf.Device) error { return dev.SetBasebandFilterBandwidth(uint32(bw)) },
		func() { c.state.Bandwidth, c.state.AutoBandwidth = prev, prevAuto })
}

func (d *Device) Bandwidth(dir Direction) float64 {
	c := d.chain(dir)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Bandwidth
}

func (d *Device) AutoBandwidth(dir Direction) bool {
	c := d.chain(dir)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.AutoBandwidth
}

func (d *Device) ListBandwidths(dir Direction) []float64 {
	return append([]float64(nil), bandwidths...)
}

func (d *Device) BandwidthRange(dir Direction) []Range {
	return []Range{{floats.Min(bandwidths), floats.Max(bandwidths), 0}}
}
