package duplex

import (
	"fmt"
	"maps"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/hackrfduplex/hackrf"
)

// Descriptor is what one enumeration pass learns about a unit.
type Descriptor struct {
	Index   int
	Device  string
	Version string
	PartID  string
	Serial  string // trimmed
	Label   string
	InUse   bool
}

// Pair is a matched (rx, tx) candidate ready to hand to Make. Serials are in
// the trimmed form the units report.
type Pair struct {
	RxSerial string
	TxSerial string
	Rx       Descriptor
	Tx       Descriptor
}

func (p Pair) Args() map[string]string {
	return map[string]string{"rx_serial": p.RxSerial, "tx_serial": p.TxSerial}
}

// SerialMatch compares serials exactly or after stripping leading zeros from
// both sides.
func SerialMatch(want, have string) bool {
	if want == "" {
		return false
	}
	return want == have || hackrf.TrimSerial(want) == hackrf.TrimSerial(have)
}

type Enumerator struct {
	Library  hackrf.Library
	Registry *Registry
}

func NewEnumerator(lib hackrf.Library, reg *Registry) *Enumerator {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Enumerator{Library: lib, Registry: reg}
}

// Describe opens every visible unit in turn and reads its identity. Units
// that cannot be opened are skipped, which normally includes units held by a
// live Device. Any claimed unit that still opens is marked InUse.
func (e *Enumerator) Describe() ([]Descriptor, error) {
	count, err := e.Library.Count()
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	log.Debugf("[enum] Found %d devices", count)

	var out []Descriptor
	for i := 0; i < count; i++ {
		dev, err := e.Library.OpenIndex(i)
		if err != nil {
			log.Debugf("[enum] Device %d: could not open: %v", i, err)
			continue
		}
		desc, err := describe(i, dev)
		if cerr := dev.Close(); cerr != nil {
			log.Debugf("[enum] Device %d: close returned %v", i, cerr)
		}
		if err != nil {
			log.Debugf("[enum] Device %d: could not read identity: %v", i, err)
			continue
		}
		desc.InUse = e.Registry.Claimed(desc.Serial)
		out = append(out, desc)
	}
	return out, nil
}

func describe(index int, dev hackrf.Device) (Descriptor, error) {
	board, err := dev.BoardID()
	if err != nil {
		return Descriptor{}, err
	}
	version, err := dev.Version()
	if err != nil {
		return Descriptor{}, err
	}
	ids, err := dev.PartIDSerial()
	if err != nil {
		return Descriptor{}, err
	}
	d := Descriptor{
		Index:   index,
		Device:  board.String(),
		Version: version,
		PartID:  ids.PartIDString(),
		Serial:  ids.TrimmedSerial(),
	}
	d.Label = fmt.Sprintf("%s #%d %s", d.Device, index, d.Serial)
	return d, nil
}

// FindPair matches the requested serials against the visible units. Exactly
// one unit must match each role; anything less yields ErrNoDevices or
// ErrOnlyOneDevice and no pair. A unit already claimed by a live Device is
// never matched.
func (e *Enumerator) FindPair(rxSerial, txSerial string) (*Pair, error) {
	if rxSerial == "" || txSerial == "" {
		return nil, ErrMissingSerial
	}
	if SerialMatch(rxSerial, txSerial) {
		return nil, ErrSameSerial
	}

	descs, err := e.Describe()
	if err != nil {
		return nil, err
	}
	var (
		pair    Pair
		rxFound bool
		txFound bool
	)
	for _, d := range descs {
		rxMatch := SerialMatch(rxSerial, d.Serial)
		txMatch := SerialMatch(txSerial, d.Serial)
		usage := "-> Unused"
		switch {
		case d.InUse && (rxMatch || txMatch):
			usage = "-> In use"
		case rxMatch:
			usage = "-> RX"
			if !rxFound {
				rxFound = true
				pair.Rx = d
			}
		case txMatch:
			usage = "-> TX"
			if !txFound {
				txFound = true
				pair.Tx = d
			}
		}
		log.Debugf("[enum] Device %d: %s, Part ID %s, Serial %s, Version %s %s", d.Index, d.Label, d.PartID, d.Serial, d.Version, usage)
	}

	switch {
	case rxFound && txFound:
		log.Debug("[enum] Found both RX & TX HackRF devices")
		pair.RxSerial = pair.Rx.Serial
		pair.TxSerial = pair.Tx.Serial
		return &pair, nil
	case rxFound || txFound:
		log.Error(ErrOnlyOneDevice.Error())
		return nil, ErrOnlyOneDevice
	default:
		log.Error(ErrNoDevices.Error())
		return nil, ErrNoDevices
	}
}

// Open finds the pair named by args["rx_serial"] and args["tx_serial"] and
// only then constructs the Device, so missing or claimed units are reported
// before any handle is held. Remaining args are passed to Make unchanged.
func (e *Enumerator) Open(args map[string]string) (*Device, error) {
	pair, err := e.FindPair(args["rx_serial"], args["tx_serial"])
	if err != nil {
		return nil, err
	}
	merged := maps.Clone(args)
	maps.Copy(merged, pair.Args())
	return Make(e.Library, e.Registry, merged)
}
