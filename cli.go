package main

var cli struct {
	Verbose  bool   `help:"Prints debug output by default"`
	Profile  bool   `help:"Output a pprof profile"`
	Config   string `help:"Path to an HCL config file" type:"path"`
	Simulate bool   `help:"Use simulated HackRF units listed under sim.serials instead of hardware"`

	Probe struct {
	} `cmd:"" help:"List SoapySDR configuration and every HackRF that can be opened"`
	Find struct {
		Rx string `help:"RX serial (overrides duplex.rx_serial)"`
		Tx string `help:"TX serial (overrides duplex.tx_serial)"`
	} `cmd:"" help:"Look for the configured RX/TX pair and print the open arguments"`
	Tune struct {
		UI bool `name:"ui" help:"Start the dashboard after tuning"`
	} `cmd:"" help:"Open the duplex device, apply the config and print hardware info"`
	Gain struct {
		Dir  string  `help:"Direction to allocate for" enum:"rx,tx" default:"rx"`
		From float64 `help:"First composite gain" default:"0"`
		To   float64 `help:"Last composite gain" default:"-1"`
		Step float64 `help:"Composite gain increment" default:"1"`
	} `cmd:"" help:"Print how composite gains are split across the gain stages"`
}
