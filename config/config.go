package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/knadh/koanf/parsers/hcl"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "HACKRFDUPLEX_"

type DuplexConf struct {
	RxSerial string `koanf:"rx_serial"`
	TxSerial string `koanf:"tx_serial"`
	BiasTx   bool   `koanf:"bias_tx"`
}

// DirectionConf holds the startup settings of one direction. Zero values are
// left unset.
type DirectionConf struct {
	Frequency  float64 `koanf:"frequency"`
	SampleRate float64 `koanf:"sample_rate"`
	Bandwidth  float64 `koanf:"bandwidth"`
	Gain       float64 `koanf:"gain"`
}

type TuiConf struct {
	RefreshMs       int  `koanf:"refresh_ms"`
	GainStepDB      int  `koanf:"gain_step_db"`
	EnableLogOutput bool `koanf:"enable_log_output"`
}

// SimConf lists the serials of simulated units used with --simulate.
type SimConf struct {
	Serials []string `koanf:"serials"`
}

type Conf struct {
	Duplex DuplexConf    `koanf:"duplex"`
	RX     DirectionConf `koanf:"rx"`
	TX     DirectionConf `koanf:"tx"`
	Tui    TuiConf       `koanf:"tui"`
	Sim    SimConf       `koanf:"sim"`
}

var defaultSimSerials = []string{"0000000000000000457863c82b5c8713", "0000000000000000457863c82b6a6b1f"}

func defaults() Conf {
	return Conf{Tui: TuiConf{RefreshMs: 500, GainStepDB: 1}}
}

// Args renders the configuration as the key/value map accepted by duplex.Make.
func (c Conf) Args() map[string]string {
	args := map[string]string{
		"rx_serial": c.Duplex.RxSerial,
		"tx_serial": c.Duplex.TxSerial,
	}
	if c.Duplex.BiasTx {
		args["bias_tx"] = "true"
	}
	c.RX.addArgs("rx_", args)
	c.TX.addArgs("tx_", args)
	return args
}

func (d DirectionConf) addArgs(prefix string, args map[string]string) {
	for key, v := range map[string]float64{
		"frequency":   d.Frequency,
		"sample_rate": d.SampleRate,
		"bandwidth":   d.Bandwidth,
		"gain":        d.Gain,
	} {
		if v != 0 {
			args[prefix+key] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
}

func searchPaths() []string {
	paths := []string{"/etc/hackrfduplex/config.hcl"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "hackrfduplex", "config.hcl"))
	}
	return append(paths, "./config.hcl")
}

// FindPath returns the first config file that exists, or "".
func FindPath() string {
	for _, path := range searchPaths() {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			log.Infof("Found config file: %s", path)
			return path
		}
	}
	log.Info("Config file not found!")
	return ""
}

// Load reads path (or the first file FindPath finds when path is empty).
// Without a readable file it falls back to HACKRFDUPLEX_ environment
// variables, e.g. HACKRFDUPLEX_DUPLEX_RX_SERIAL.
func Load(path string) (*koanf.Koanf, Conf, error) {
	k := koanf.New(".")
	if path == "" {
		path = FindPath()
	}

	var ferr error
	if path != "" {
		ferr = k.Load(file.Provider(path), hcl.Parser(true))
	} else {
		ferr = errors.New("no config file")
	}
	if ferr != nil {
		log.Errorf("Could not read config file: %v", ferr)
		log.Error("Attempting to use environment variables")
		if err := k.Load(env.Provider(".", env.Opt{
			Prefix:        EnvPrefix,
			TransformFunc: envKey,
		}), nil); err != nil {
			return nil, Conf{}, fmt.Errorf("loading environment: %w", err)
		}
	}

	conf := defaults()
	if err := k.Unmarshal("", &conf); err != nil {
		return nil, Conf{}, fmt.Errorf("decoding config: %w", err)
	}
	if len(conf.Sim.Serials) == 0 {
		conf.Sim.Serials = defaultSimSerials
	}
	return k, conf, nil
}

// envKey turns HACKRFDUPLEX_RX_SAMPLE_RATE into rx.sample_rate: the first
// underscore separates the section from the key.
func envKey(k, v string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	key = strings.Replace(key, "_", ".", 1)
	log.Debugf("Found config env var: %s=%v", key, v)
	if key == "sim.serials" {
		return key, strings.Fields(strings.ReplaceAll(v, ",", " "))
	}
	return key, v
}
