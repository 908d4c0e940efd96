package radio

// #cgo CFLAGS: -g -Wall
// #cgo LDFLAGS: -lSoapySDR
import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/hackrfduplex/hackrf"

	"github.com/pothosware/go-soapy-sdr/pkg/device"
	"github.com/pothosware/go-soapy-sdr/pkg/modules"
	"github.com/pothosware/go-soapy-sdr/pkg/sdrlogger"
	"github.com/pothosware/go-soapy-sdr/pkg/version"
)

// Driver is the SoapySDR module that drives a single HackRF.
const Driver = "hackrf"

var initOnce sync.Once

func InitSoapySDR() {
	initOnce.Do(func() {
		log.Debugf("Using SoapySDR versions: ABI: %s API: %s Lib: %s", version.GetABIVersion(), version.GetAPIVersion(), version.GetLibVersion())
		log.Debugf("SoapySDR modules root path: %v", modules.GetRootPath())

		searchPaths := modules.ListSearchPaths()
		if len(searchPaths) > 0 {
			for i, searchPath := range searchPaths {
				log.Debugf("Search path #%d: %v", i, searchPath)
			}
		} else {
			log.Debug("Search paths: [none]")
		}
		// Keep the hackrf module quiet; failures surface through our own errors
		sdrlogger.SetLogLevel(sdrlogger.Error)
	})
}

// LogSoapySDR prints library versions and the modules SoapySDR can load.
func LogSoapySDR() {
	log.Infof("Using SoapySDR versions: ABI: %s API: %s Lib: %s", version.GetABIVersion(), version.GetAPIVersion(), version.GetLibVersion())
	log.Infof("SoapySDR modules root path: %v", modules.GetRootPath())

	modulesFound := modules.ListModules()
	if len(modulesFound) > 0 {
		for _, module := range modulesFound {
			moduleVersion := modules.GetModuleVersion(module)
			if len(moduleVersion) == 0 {
				moduleVersion = "[None]"
			}
			log.Infof("Found SoapySDR module: %v, version: %v", module, moduleVersion)
		}
	} else {
		log.Info("No SoapySDR modules found")
	}
}

// LogAvailSettings prints the settings and RX/TX rates a unit reports.
func LogAvailSettings(dev *device.SDRDevice) {
	log.Infof("Current settings:")
	settings := dev.GetSettingInfo()
	if len(settings) > 0 {
		for _, setting := range settings {
			log.Infof("\t- %s: %v", setting.Key, setting.Value)
		}
	}

	for _, dir := range []device.Direction{device.DirectionRX, device.DirectionTX} {
		numChannels := dev.GetNumChannels(dir)
		log.Infof("%s channel info:", directionName(dir))
		for channel := uint(0); channel < numChannels; channel++ {
			log.Infof("Channel %d:", channel)
			log.Infof("\tAvailable sample rates:")
			for _, sampleRateRange := range dev.GetSampleRateRange(dir, channel) {
				log.Infof("\t\t- %v", sampleRateRange.ToString())
			}
		}
	}
}

func directionName(dir device.Direction) string {
	if dir == device.DirectionTX {
		return "TX"
	}
	return "RX"
}

// Library reaches HackRF units through SoapySDR's single-unit hackrf module.
type Library struct {
	mu    sync.Mutex
	found []map[string]string
}

func New() *Library {
	InitSoapySDR()
	return &Library{}
}

func (l *Library) enumerate() []map[string]string {
	found := device.Enumerate(map[string]string{"driver": Driver})
	l.mu.Lock()
	l.found = found
	l.mu.Unlock()
	return found
}

func (l *Library) Count() (int, error) {
	return len(l.enumerate()), nil
}

func (l *Library) OpenIndex(index int) (hackrf.Device, error) {
	l.mu.Lock()
	found := l.found
	l.mu.Unlock()
	if found == nil {
		found = l.enumerate()
	}
	if index < 0 || index >= len(found) {
		return nil, hackrf.ErrNotFound
	}
	return open(found[index])
}

func (l *Library) OpenBySerial(serial string) (hackrf.Device, error) {
	for _, args := range l.enumerate() {
		if args["serial"] == serial || hackrf.TrimSerial(args["serial"]) == hackrf.TrimSerial(serial) {
			return open(args)
		}
	}
	return nil, hackrf.ErrNotFound
}

func open(args map[string]string) (hackrf.Device, error) {
	ids, err := identity(args)
	if err != nil {
		return nil, err
	}
	dev, err := device.Make(map[string]string{"driver": Driver, "serial": args["serial"]})
	if err != nil {
		log.Debugf("[radio] could not open %s: %v", args["serial"], err)
		return nil, hackrf.Wrap(hackrf.ErrBusy, "Make "+args["serial"], err)
	}
	return &unit{dev: dev, args: args, ids: ids}, nil
}

func identity(args map[string]string) (hackrf.PartIDSerial, error) {
	var ids hackrf.PartIDSerial
	serial, err := hackrf.ParseSerial(args["serial"])
	if err != nil {
		return ids, err
	}
	ids.SerialNo = serial
	if partID, ok := args["part_id"]; ok {
		if ids.PartID, err = hackrf.ParsePartID(partID); err != nil {
			return ids, err
		}
	}
	return ids, nil
}

// unit adapts one SoapySDR device to hackrf.Device. A physical HackRF has a
// single tuner, so tuning calls are written to both SoapySDR directions.
type unit struct {
	dev  *device.SDRDevice
	args map[string]string
	ids  hackrf.PartIDSerial
}

var directions = []device.Direction{device.DirectionRX, device.DirectionTX}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	log.Debugf("[radio] %s: %v", op, err)
	return hackrf.Wrap(hackrf.ErrOther, op, err)
}

func (u *unit) Close() error {
	return wrap("Unmake", u.dev.Unmake())
}

func (u *unit) BoardID() (hackrf.BoardID, error) {
	return hackrf.BoardIDFromName(u.args["device"]), nil
}

func (u *unit) Version() (string, error) {
	if v, ok := u.args["version"]; ok {
		return v, nil
	}
	return u.dev.GetHardwareInfo()["version"], nil
}

func (u *unit) PartIDSerial() (hackrf.PartIDSerial, error) {
	return u.ids, nil
}

func (u *unit) ReadClockRegister() (uint16, error) {
	if strings.Contains(strings.ToLower(u.dev.GetHardwareInfo()["clock source"]), "external") {
		return 0, nil
	}
	return hackrf.ClockInternal, nil
}

func (u *unit) SetFrequency(hz uint64) error {
	for _, dir := range directions {
		if err := u.dev.SetFrequency(dir, 0, float64(hz), nil); err != nil {
			return wrap("SetFrequency", err)
		}
	}
	return nil
}

func (u *unit) SetSampleRate(hz float64) error {
	for _, dir := range directions {
		if err := u.dev.SetSampleRate(dir, 0, hz); err != nil {
			return wrap("SetSampleRate", err)
		}
	}
	return nil
}

func (u *unit) SetBasebandFilterBandwidth(hz uint32) error {
	for _, dir := range directions {
		if err := u.dev.SetBandwidth(dir, 0, float64(hz)); err != nil {
			return wrap("SetBandwidth", err)
		}
	}
	return nil
}

func (u *unit) SetLNAGain(db uint32) error {
	return wrap("SetGainElement(LNA)", u.dev.SetGainElement(device.DirectionRX, 0, "LNA", float64(db)))
}

func (u *unit) SetVGAGain(db uint32) error {
	return wrap("SetGainElement(VGA)", u.dev.SetGainElement(device.DirectionRX, 0, "VGA", float64(db)))
}

func (u *unit) SetTxVGAGain(db uint32) error {
	return wrap("SetGainElement(VGA)", u.dev.SetGainElement(device.DirectionTX, 0, "VGA", float64(db)))
}

func (u *unit) SetAmpEnable(on bool) error {
	var db float64
	if on {
		db = hackrf.AmpMaxDB
	}
	for _, dir := range directions {
		if err := u.dev.SetGainElement(dir, 0, "AMP", db); err != nil {
			return wrap("SetGainElement(AMP)", err)
		}
	}
	return nil
}

func (u *unit) SetAntennaEnable(on bool) error {
	return wrap("WriteSetting(bias_tx)", u.dev.WriteSetting("bias_tx", fmt.Sprintf("%t", on)))
}

// LogAllHackRFs opens each visible unit through SoapySDR and logs what it
// reports.
func LogAllHackRFs() {
	devices := device.Enumerate(map[string]string{"driver": Driver})
	log.Infof("Found %d HackRF devices", len(devices))
	for _, args := range devices {
		log.Infof("Device: %s", args["label"])
		dev, err := device.Make(map[string]string{"driver": Driver, "serial": args["serial"]})
		if err != nil {
			log.Errorf("SoapySDR could not open %s: %v", args["serial"], err)
			continue
		}
		LogAvailSettings(dev)
		if err := dev.Unmake(); err != nil {
			log.Errorf("Could not close %s: %v", args["serial"], err)
		}
	}
}
