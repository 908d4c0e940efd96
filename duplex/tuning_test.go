package duplex

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/jrwynneiii/hackrfduplex/hackrf"
)

func TestFrequencyNames(t *testing.T) {
	dev, sim, _ := openPair(t, nil)

	if err := dev.SetFrequency(TX, "BB", 1e6); err != nil {
		t.Fatalf("BB should be accepted: %v", err)
	}
	if f, _ := dev.Frequency(TX, "BB"); f != 0 {
		t.Fatalf("BB should read zero, got %v", f)
	}
	if err := dev.SetFrequency(TX, "IF", 1e6); !errors.Is(err, ErrUnknownName) {
		t.Fatalf("got %v, want ErrUnknownName", err)
	}
	if _, err := dev.Frequency(TX, "IF"); !errors.Is(err, ErrUnknownName) {
		t.Fatalf("got %v, want ErrUnknownName", err)
	}
	if _, err := dev.FrequencyRange(TX, "IF"); !errors.Is(err, ErrUnknownName) {
		t.Fatalf("got %v, want ErrUnknownName", err)
	}
	if len(sim.Calls()) != 0 {
		t.Fatalf("unexpected hardware calls %v", sim.Calls())
	}

	if err := dev.SetFrequency(TX, "RF", 2.4e9); err != nil {
		t.Fatalf("RF: %v", err)
	}
	if f, _ := dev.Frequency(TX, "RF"); f != 2.4e9 {
		t.Fatalf("got %v", f)
	}
	if f, _ := dev.Frequency(RX, "RF"); f != 0 {
		t.Fatalf("RX touched by TX write: %v", f)
	}
	if !slices.Equal(sim.Calls(), []string{"2:SetFrequency(2400000000)"}) {
		t.Fatalf("unexpected calls %v", sim.Calls())
	}
}

func TestFrequencyFailureIsSoft(t *testing.T) {
	dev, sim, _ := openPair(t, nil)
	sim.Unit("1").Fail = map[string]hackrf.Error{"SetFrequency": hackrf.ErrInvalidParam}

	if err := dev.SetFrequency(RX, "RF", 8e9); err != nil {
		t.Fatalf("frequency failures should be logged only, got %v", err)
	}
	if f, _ := dev.Frequency(RX, "RF"); f != 8e9 {
		t.Fatalf("requested frequency not mirrored: %v", f)
	}
}

func TestUnrepresentableValuesRejected(t *testing.T) {
	dev, sim, _ := openPair(t, nil)
	sim.ResetCalls()

	for _, hz := range []float64{-1, 1e20, math.Inf(1), math.NaN()} {
		if err := dev.SetFrequency(RX, "RF", hz); !errors.Is(err, hackrf.ErrInvalidParam) {
			t.Fatalf("frequency %v: got %v, want invalid param", hz, err)
		}
	}
	if f, _ := dev.Frequency(RX, "RF"); f != 0 {
		t.Fatalf("rejected frequency mirrored: %v", f)
	}

	for _, bw := range []float64{5e9, math.Inf(1), math.NaN()} {
		if err := dev.SetBandwidth(TX, bw); !errors.Is(err, hackrf.ErrInvalidParam) {
			t.Fatalf("bandwidth %v: got %v, want invalid param", bw, err)
		}
	}
	if dev.Bandwidth(TX) != 0 || !dev.AutoBandwidth(TX) {
		t.Fatalf("rejected bandwidth mirrored: %v auto=%v", dev.Bandwidth(TX), dev.AutoBandwidth(TX))
	}
	if len(sim.Calls()) != 0 {
		t.Fatalf("rejected values reached hardware: %v", sim.Calls())
	}
}

func TestSampleRateFailureRollsBack(t *testing.T) {
	dev, sim, _ := openPair(t, nil)
	if err := dev.SetSampleRate(TX, 8e6); err != nil {
		t.Fatalf("rate: %v", err)
	}
	sim.Unit("2").Fail = map[string]hackrf.Error{"SetSampleRate": hackrf.ErrInvalidParam}

	err := dev.SetSampleRate(TX, 10e6)
	if !errors.Is(err, hackrf.ErrInvalidParam) {
		t.Fatalf("got %v, want invalid param", err)
	}
	if got := dev.SampleRate(TX); got != 8e6 {
		t.Fatalf("rate %v, want rollback to 8e6", got)
	}
}

func TestBandwidthFailureRollsBack(t *testing.T) {
	dev, sim, _ := openPair(t, nil)
	sim.Unit("1").Fail = map[string]hackrf.Error{"SetBasebandFilterBandwidth": hackrf.ErrInvalidParam}

	if err := dev.SetBandwidth(RX, 5e6); !errors.Is(err, hackrf.ErrInvalidParam) {
		t.Fatalf("got %v, want invalid param", err)
	}
	if dev.Bandwidth(RX) != 0 || !dev.AutoBandwidth(RX) {
		t.Fatalf("bandwidth not rolled back: %v auto=%v", dev.Bandwidth(RX), dev.AutoBandwidth(RX))
	}
}

func TestBandwidthZeroRestoresAuto(t *testing.T) {
	dev, sim, _ := openPair(t, nil)

	if err := dev.SetBandwidth(RX, 5e6); err != nil {
		t.Fatalf("bandwidth: %v", err)
	}
	if dev.AutoBandwidth(RX) {
		t.Fatalf("explicit bandwidth should leave auto mode")
	}
	if !slices.Equal(sim.Calls(), []string{"1:SetBasebandFilterBandwidth(5000000)"}) {
		t.Fatalf("unexpected calls %v", sim.Calls())
	}

	sim.ResetCalls()
	for _, bw := range []float64{0, -1} {
		if err := dev.SetBandwidth(RX, bw); err != nil {
			t.Fatalf("bandwidth %v: %v", bw, err)
		}
		if !dev.AutoBandwidth(RX) {
			t.Fatalf("bandwidth %v should restore auto mode", bw)
		}
	}
	if len(sim.Calls()) != 0 {
		t.Fatalf("auto mode touched hardware: %v", sim.Calls())
	}
}

func TestRateAndBandwidthLists(t *testing.T) {
	dev, _, _ := openPair(t, nil)

	rates := dev.ListSampleRates(RX)
	if len(rates) != 20 || rates[0] != 1e6 || rates[19] != 20e6 || rates[4] != 5e6 {
		t.Fatalf("unexpected rates %v", rates)
	}
	if r := dev.SampleRateRange(TX)[0]; r.Min != 1e6 || r.Max != 20e6 || !r.Contains(10e6) || r.Contains(21e6) {
		t.Fatalf("unexpected rate range %+v", r)
	}

	bws := dev.ListBandwidths(TX)
	if len(bws) != 16 || bws[0] != 1.75e6 || bws[15] != 28e6 {
		t.Fatalf("unexpected bandwidths %v", bws)
	}
	bws[0] = 0
	if dev.ListBandwidths(TX)[0] != 1.75e6 {
		t.Fatalf("bandwidth list shared with caller")
	}
	if r := dev.BandwidthRange(RX)[0]; r.Min != 1.75e6 || r.Max != 28e6 {
		t.Fatalf("unexpected bandwidth range %+v", r)
	}
}

func TestPolicyTable(t *testing.T) {
	want := map[Field]Policy{
		FieldFrequency:  Soft,
		FieldSampleRate: Fatal,
		FieldBandwidth:  Fatal,
		FieldGain:       Soft,
		FieldBias:       Soft,
	}
	for f, p := range want {
		if PolicyFor(f) != p {
			t.Errorf("%s: policy %s, want %s", f, PolicyFor(f), p)
		}
	}
}
