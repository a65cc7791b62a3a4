package btserial

import (
	"go.bug.st/serial"
)

// OpenSource opens the serial port at the given path and wraps it in a
// Source ready for sampling.
func OpenSource(path string, opts PortOptions) (*Source, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
	}

	switch opts.StopBits {
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		mode.StopBits = serial.OneStopBit
	}

	switch opts.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	default:
		mode.Parity = serial.NoParity
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	return NewSource(port), nil
}
