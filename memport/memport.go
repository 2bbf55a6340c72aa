// Package memport is an in-memory base.Port for tests: it records every
// frame written and replays canned inbound bytes, either from a queue or
// from a per-write responder.
package memport

import (
	"bytes"

	"go.uber.org/zap"

	"github.com/sahasra-iot/meterlink/base"
)

type Port struct {
	// Tx collects every Write, one slice per call.
	Tx [][]byte
	// Respond, when set, is invoked with each written frame; a non-nil
	// return value is queued as the reply. Takes precedence over nothing,
	// combines with QueueRx.
	Respond func(tx []byte) []byte
	// DTR records every SetDTR transition.
	DTR []bool

	rx     bytes.Buffer
	logger *zap.SugaredLogger
}

var _ base.Port = (*Port)(nil)

func New() *Port {
	return &Port{}
}

// QueueRx appends bytes to be read back by the consumer.
func (p *Port) QueueRx(b []byte) {
	p.rx.Write(b)
}

func (p *Port) Available() int {
	return p.rx.Len()
}

func (p *Port) ReadByte() byte {
	if p.rx.Len() == 0 {
		return 0
	}
	b, _ := p.rx.ReadByte()
	return b
}

func (p *Port) Write(src []byte) error {
	frame := make([]byte, len(src))
	copy(frame, src)
	p.Tx = append(p.Tx, frame)
	if p.Respond != nil {
		if reply := p.Respond(frame); reply != nil {
			p.rx.Write(reply)
		}
	}
	return nil
}

func (p *Port) Flush() error { return nil }

func (p *Port) DrainRx() {
	p.rx.Reset()
}

func (p *Port) SetDTR(asserted bool) error {
	p.DTR = append(p.DTR, asserted)
	return nil
}

func (p *Port) SetLogger(logger *zap.SugaredLogger) {
	p.logger = logger
}
