package duplex

import "errors"

var (
	ErrMissingSerial  = errors.New("no hackrf device matches serial")
	ErrSameSerial     = errors.New("rx_serial and tx_serial name the same device")
	ErrNoDevices      = errors.New("found no HackRF devices")
	ErrOnlyOneDevice  = errors.New("found only one HackRF device (hackrfduplex requires two devices)")
	ErrClaimed        = errors.New("device already claimed")
	ErrUnknownName    = errors.New("unknown name")
	ErrUnknownAntenna = errors.New("unknown antenna")
	ErrClosed         = errors.New("device closed")
)
