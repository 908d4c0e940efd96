package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sample = `
duplex {
  rx_serial = "00000001"
  tx_serial = "00000002"
  bias_tx   = true
}

rx {
  frequency   = 915000000
  sample_rate = 8000000
  gain        = 40
}

tx {
  bandwidth = 5000000
}

tui {
  refresh_ms = 250
}

sim {
  serials = ["1", "2", "3"]
}
`

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.hcl")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	k, conf, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if conf.Duplex.RxSerial != "00000001" || conf.Duplex.TxSerial != "00000002" || !conf.Duplex.BiasTx {
		t.Fatalf("unexpected duplex section %+v", conf.Duplex)
	}
	if conf.RX.Frequency != 915e6 || conf.RX.SampleRate != 8e6 || conf.RX.Gain != 40 {
		t.Fatalf("unexpected rx section %+v", conf.RX)
	}
	if conf.TX.Bandwidth != 5e6 || conf.TX.Frequency != 0 {
		t.Fatalf("unexpected tx section %+v", conf.TX)
	}
	if conf.Tui.RefreshMs != 250 || conf.Tui.GainStepDB != 1 {
		t.Fatalf("unexpected tui section %+v", conf.Tui)
	}
	if len(conf.Sim.Serials) != 3 {
		t.Fatalf("unexpected sim serials %v", conf.Sim.Serials)
	}
	if k.String("duplex.rx_serial") != "00000001" {
		t.Fatalf("raw lookup failed")
	}
}

func TestLoadEnvFallback(t *testing.T) {
	t.Setenv("HACKRFDUPLEX_DUPLEX_RX_SERIAL", "a1")
	t.Setenv("HACKRFDUPLEX_DUPLEX_TX_SERIAL", "b2")
	t.Setenv("HACKRFDUPLEX_TX_SAMPLE_RATE", "10000000")

	_, conf, err := Load(filepath.Join(t.TempDir(), "missing.hcl"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if conf.Duplex.RxSerial != "a1" || conf.Duplex.TxSerial != "b2" {
		t.Fatalf("unexpected duplex section %+v", conf.Duplex)
	}
	if conf.TX.SampleRate != 10e6 {
		t.Fatalf("unexpected tx section %+v", conf.TX)
	}
	if len(conf.Sim.Serials) != 2 {
		t.Fatalf("sim serials should default, got %v", conf.Sim.Serials)
	}
}

func TestArgs(t *testing.T) {
	conf := Conf{
		Duplex: DuplexConf{RxSerial: "1", TxSerial: "2", BiasTx: true},
		RX:     DirectionConf{Frequency: 915e6, Gain: 40},
		TX:     DirectionConf{SampleRate: 8e6},
	}
	args := conf.Args()
	want := map[string]string{
		"rx_serial":      "1",
		"tx_serial":      "2",
		"bias_tx":        "true",
		"rx_frequency":   "915000000",
		"rx_gain":        "40",
		"tx_sample_rate": "8000000",
	}
	if len(args) != len(want) {
		t.Fatalf("got %v, want %v", args, want)
	}
	for k, v := range want {
		if args[k] != v {
			t.Errorf("args[%q] = %q, want %q", k, args[k], v)
		}
	}
}
