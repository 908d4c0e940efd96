package main

import (
	"maps"
	"os"
	"runtime/pprof"
	"slices"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/hackrfduplex/config"
	"github.com/jrwynneiii/hackrfduplex/duplex"
	"github.com/jrwynneiii/hackrfduplex/hackrf"
	"github.com/jrwynneiii/hackrfduplex/radio"
	"github.com/jrwynneiii/hackrfduplex/tui"
)

func library(conf config.Conf) hackrf.Library {
	if cli.Simulate {
		sim, err := hackrf.NewSimFromSerials(conf.Sim.Serials...)
		if err != nil {
			log.Fatalf("Could not build simulated units: %v", err)
		}
		log.Infof("Simulating %d HackRF units", len(conf.Sim.Serials))
		return sim
	}
	return radio.New()
}

func probe(lib hackrf.Library) {
	if !cli.Simulate {
		radio.LogSoapySDR()
		radio.LogAllHackRFs()
	}
	descs, err := duplex.NewEnumerator(lib, duplex.DefaultRegistry()).Describe()
	if err != nil {
		log.Fatalf("Could not list HackRF devices: %v", err)
	}
	if len(descs) == 0 {
		log.Info("No HackRF devices found")
	}
	for _, d := range descs {
		log.Infof("%s (version %s, part id %s)", d.Label, d.Version, d.PartID)
	}
}

func find(lib hackrf.Library, conf config.Conf) {
	rx, tx := conf.Duplex.RxSerial, conf.Duplex.TxSerial
	if cli.Find.Rx != "" {
		rx = cli.Find.Rx
	}
	if cli.Find.Tx != "" {
		tx = cli.Find.Tx
	}
	pair, err := duplex.NewEnumerator(lib, duplex.DefaultRegistry()).FindPair(rx, tx)
	if err != nil {
		log.Fatalf("Could not find the duplex pair: %v", err)
	}
	log.Infof("RX: %s", pair.Rx.Label)
	log.Infof("TX: %s", pair.Tx.Label)
	args := pair.Args()
	for _, key := range slices.Sorted(maps.Keys(args)) {
		log.Infof("\t%s=%s", key, args[key])
	}
}

func tune(lib hackrf.Library, conf config.Conf) {
	dev, err := duplex.NewEnumerator(lib, duplex.DefaultRegistry()).Open(conf.Args())
	if err != nil {
		log.Fatalf("Could not open the duplex device: %v", err)
	}
	defer dev.Close()

	log.Infof("Opened %s (%s)", dev.DriverKey(), dev.HardwareKey())
	info := dev.HardwareInfo()
	for _, k := range slices.Sorted(maps.Keys(info)) {
		log.Infof("\t%s: %s", k, info[k])
	}
	for _, dir := range []duplex.Direction{duplex.RX, duplex.TX} {
		st := dev.Snapshot(dir)
		log.Infof("%s %s: %s, f=%v sr=%v gain=%d (LNA %d, VGA %d, AMP %d)",
			dir, dev.Serial(dir), st.State, st.Frequency, st.SampleRate, st.Gain(), st.LNAGain, st.VGAGain, st.AmpGain)
	}

	if cli.Tune.UI {
		tui.StartUI(dev, conf.Tui)
	}
}

func gainTable() {
	dir, err := duplex.ParseDirection(cli.Gain.Dir)
	if err != nil {
		log.Fatalf("%v", err)
	}
	to := cli.Gain.To
	if to < 0 {
		to = float64(duplex.MaxGain(dir))
	}
	step := cli.Gain.Step
	if step <= 0 {
		step = 1
	}
	for g := cli.Gain.From; g <= to; g += step {
		s := duplex.AllocateGain(dir, g)
		log.Infof("%s %6.1f dB -> LNA %2d  VGA %2d  AMP %2d  (total %d)", dir, g, s.LNA, s.VGA, s.AMP, s.Total())
	}
}

func main() {
	log.Info("Starting hackrfduplex")
	flags := kong.Parse(&cli)
	if cli.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	if cli.Profile {
		prof, err := os.Create("./cpu.pprof")
		if err != nil {
			panic(err)
		}
		pprof.StartCPUProfile(prof)
		defer pprof.StopCPUProfile()
	}

	_, conf, err := config.Load(cli.Config)
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	switch flags.Command() {
	case "probe":
		probe(library(conf))
	case "find":
		find(library(conf), conf)
	case "tune":
		tune(library(conf), conf)
	case "gain":
		gainTable()
	default:
		log.Info("Command not recognized")
	}
}
