package tui

import (
	"slices"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/jrwynneiii/hackrfduplex/duplex"
	"github.com/jrwynneiii/hackrfduplex/hackrf"
)

func newControls(t *testing.T) (*controls, *hackrf.Sim, *bool) {
	t.Helper()
	sim, err := hackrf.NewSimFromSerials("00000001", "00000002")
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	dev, err := duplex.Make(sim, duplex.NewRegistry(), map[string]string{"rx_serial": "1", "tx_serial": "2"})
	if err != nil {
		t.Fatalf("make: %v", err)
	}
	t.Cleanup(func() { dev.Close() })
	sim.ResetCalls()

	quit := false
	return &controls{dev: dev, step: 2, quit: func() { quit = true }}, sim, &quit
}

func key(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestGainKeys(t *testing.T) {
	c, _, _ := newControls(t)
	rx := c.dev.Gain(duplex.RX)

	if c.handle(key('+')) != nil {
		t.Fatalf("+ should be consumed")
	}
	if c.dev.Gain(duplex.RX) != rx+2 {
		t.Fatalf("RX gain %v, want %v", c.dev.Gain(duplex.RX), rx+2)
	}
	c.handle(key('-'))
	c.handle(key('-'))
	if c.dev.Gain(duplex.RX) != rx-2 {
		t.Fatalf("RX gain %v, want %v", c.dev.Gain(duplex.RX), rx-2)
	}

	c.handle(key(']'))
	if c.dev.Gain(duplex.TX) != 2 {
		t.Fatalf("TX gain %v, want 2", c.dev.Gain(duplex.TX))
	}
	c.handle(key('['))
	c.handle(key('['))
	if c.dev.Gain(duplex.TX) != 0 {
		t.Fatalf("TX gain should floor at zero, got %v", c.dev.Gain(duplex.TX))
	}
}

func TestBiasAndQuitKeys(t *testing.T) {
	c, sim, quit := newControls(t)

	c.handle(key('b'))
	if c.dev.ReadSetting("bias_tx") != "true" {
		t.Fatalf("bias not toggled on")
	}
	c.handle(key('b'))
	want := []string{"2:SetAntennaEnable(true)", "2:SetAntennaEnable(false)"}
	if !slices.Equal(sim.Calls(), want) {
		t.Fatalf("calls %v, want %v", sim.Calls(), want)
	}

	c.handle(key('q'))
	if !*quit {
		t.Fatalf("q should stop the app")
	}
}

func TestUnhandledKeysPassThrough(t *testing.T) {
	c, sim, _ := newControls(t)
	for _, ev := range []*tcell.EventKey{key('x'), tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)} {
		if c.handle(ev) != ev {
			t.Fatalf("%v should pass through", ev.Name())
		}
	}
	if len(sim.Calls()) != 0 {
		t.Fatalf("unexpected calls %v", sim.Calls())
	}
}

func TestReconnectKey(t *testing.T) {
	c, sim, _ := newControls(t)
	c.handle(key('t'))
	if !c.dev.IsOpen(duplex.TX) || !sim.IsOpen("2") {
		t.Fatalf("TX should be reopened")
	}
}

func TestStateTable(t *testing.T) {
	c, _, _ := newControls(t)
	c.dev.SetFrequency(duplex.RX, "RF", 915e6)

	table := &StateTableData{dev: c.dev, dir: duplex.RX}
	if table.GetRowCount() != len(stateRows) || table.GetColumnCount() != 2 {
		t.Fatalf("unexpected table shape")
	}
	if got := table.GetCell(3, 1).Text; got != "915.000 MHz" {
		t.Fatalf("frequency cell %q", got)
	}
	if got := table.GetCell(5, 1).Text; got != "auto" {
		t.Fatalf("bandwidth cell %q", got)
	}
	if got := table.GetCell(7, 1).Text; got != "-" {
		t.Fatalf("RX bias cell %q", got)
	}
	if got := table.GetCell(99, 1).Text; got != "ERROR" {
		t.Fatalf("out of range cell %q", got)
	}
}

func TestFormatHz(t *testing.T) {
	cases := map[float64]string{
		0:      "unset",
		500:    "500 Hz",
		25e3:   "25.000 kHz",
		8e6:    "8.000 MHz",
		2.45e9: "2.450000 GHz",
	}
	for hz, want := range cases {
		if got := formatHz(hz); got != want {
			t.Errorf("formatHz(%v) = %q, want %q", hz, got, want)
		}
	}
}
