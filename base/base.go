package base

import "go.uber.org/zap"

// Port is the byte stream the protocol layers talk through. Implementations
// wrap a real optical head (serial) or an in-memory replay for tests. Reads
// are non-blocking: ReadByte returns 0 when nothing is buffered, pair it
// with Available. Write always takes the whole slice.
type Port interface {
	Available() int
	ReadByte() byte
	Write(src []byte) error
	Flush() error
	DrainRx()
	SetDTR(asserted bool) error
	SetLogger(logger *zap.SugaredLogger)
}

type SerialDataBits int
type SerialParity string
type SerialStopBits int

const (
	Serial7DataBits SerialDataBits = 7
	Serial8DataBits SerialDataBits = 8

	SerialNoParity   SerialParity = "N"
	SerialOddParity  SerialParity = "O"
	SerialEvenParity SerialParity = "E"

	SerialOneStopBit  SerialStopBits = 1
	SerialTwoStopBits SerialStopBits = 2
)

// SerialSettings carries the line parameters of the meter port. The DLMS
// HHU optical profile fixes these at 9600 8N1.
type SerialSettings struct {
	Device   string
	BaudRate int
	DataBits SerialDataBits
	Parity   SerialParity
	StopBits SerialStopBits
}

func DefaultSerialSettings(device string) SerialSettings {
	return SerialSettings{
		Device:   device,
		BaudRate: 9600,
		DataBits: Serial8DataBits,
		Parity:   SerialNoParity,
		StopBits: SerialOneStopBit,
	}
}
