// Package serial adapts a tty to base.Port. The optical head enumerates as
// a plain USB serial device; reads are driven by a short poll timeout so
// the framer's own deadline stays in charge.
package serial

import (
	"time"

	goserial "github.com/goburrow/serial"
	"go.uber.org/zap"

	"github.com/sahasra-iot/meterlink/base"
)

const pollTimeout = 5 * time.Millisecond

type Port struct {
	conn   goserial.Port
	logger *zap.SugaredLogger
	rx     []byte
	tmp    [64]byte
}

var _ base.Port = (*Port)(nil)

// Open opens the device and configures the line. 9600 8N1 unless the
// settings say otherwise.
func Open(settings base.SerialSettings) (*Port, error) {
	if settings.BaudRate == 0 {
		settings = base.DefaultSerialSettings(settings.Device)
	}
	conn, err := goserial.Open(&goserial.Config{
		Address:  settings.Device,
		BaudRate: settings.BaudRate,
		DataBits: int(settings.DataBits),
		StopBits: int(settings.StopBits),
		Parity:   string(settings.Parity),
		Timeout:  pollTimeout,
	})
	if err != nil {
		return nil, err
	}
	return &Port{conn: conn}, nil
}

func (p *Port) logf(format string, v ...any) {
	if p.logger != nil {
		p.logger.Infof(format, v...)
	}
}

// fill pulls whatever the driver has buffered into the local queue. A
// timeout with nothing read is the normal idle case.
func (p *Port) fill() {
	if len(p.rx) > 0 {
		return
	}
	n, err := p.conn.Read(p.tmp[:])
	if n > 0 {
		p.rx = append(p.rx, p.tmp[:n]...)
	}
	_ = err // timeouts surface as n == 0
}

func (p *Port) Available() int {
	p.fill()
	return len(p.rx)
}

func (p *Port) ReadByte() byte {
	p.fill()
	if len(p.rx) == 0 {
		return 0
	}
	b := p.rx[0]
	p.rx = p.rx[1:]
	return b
}

func (p *Port) Write(src []byte) error {
	for len(src) > 0 {
		n, err := p.conn.Write(src)
		if err != nil {
			return err
		}
		src = src[n:]
	}
	return nil
}

func (p *Port) Flush() error {
	return nil // the driver writes through
}

func (p *Port) DrainRx() {
	for {
		p.fill()
		if len(p.rx) == 0 {
			return
		}
		p.rx = p.rx[:0]
	}
}

// SetDTR toggles the meter wake line. The serial driver exposes no modem
// control, so heads wired to DTR wake on port-open instead; keep the
// transition visible in the logs.
func (p *Port) SetDTR(asserted bool) error {
	p.logf("SetDTR: %v (driver has no modem control, ignoring)", asserted)
	return nil
}

func (p *Port) SetLogger(logger *zap.SugaredLogger) {
	p.logger = logger
}

func (p *Port) Close() error {
	return p.conn.Close()
}
