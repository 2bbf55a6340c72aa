// Package session drives one DLMS/COSEM association with a meter over an
// optical serial link: SNRM/UA link setup, AARQ/AARE association with LLS
// password, per-attribute GET exchanges and the DISC teardown. One Session
// owns one physical link; nothing here is safe for concurrent use.
package session

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sahasra-iot/meterlink/base"
	"github.com/sahasra-iot/meterlink/cosem"
	"github.com/sahasra-iot/meterlink/hdlc"
	"github.com/sahasra-iot/meterlink/obis"
)

type State int

const (
	Disconnected State = iota
	SnrmSent
	Connected
	AarqSent
	Associated
	Reading
	Faulted
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case SnrmSent:
		return "snrm-sent"
	case Connected:
		return "connected"
	case AarqSent:
		return "aarq-sent"
	case Associated:
		return "associated"
	case Reading:
		return "reading"
	case Faulted:
		return "faulted"
	}
	return "unknown"
}

// Settings carries the protocol knobs. DefaultSettings matches the DLMS HHU
// optical profile. New fills a zero password, address or timeout from it and
// raises MaxFrameSize to at least hdlc.MaxFrameSize; zero delays mean no
// delay.
type Settings struct {
	Password       []byte
	ClientSAP      byte
	ServerSAP      byte
	MaxFrameSize   int
	CommandTimeout time.Duration
	DiscTimeout    time.Duration
	DTRWakeDelay   time.Duration
	PostSnrmDelay  time.Duration
	InterReadDelay time.Duration
}

func DefaultSettings() *Settings {
	return &Settings{
		Password:       []byte("1111111111111111"),
		ClientSAP:      hdlc.ClientSAP,
		ServerSAP:      hdlc.ServerSAP,
		MaxFrameSize:   hdlc.MaxFrameSize,
		CommandTimeout: 2 * time.Second,
		DiscTimeout:    500 * time.Millisecond,
		DTRWakeDelay:   500 * time.Millisecond,
		PostSnrmDelay:  100 * time.Millisecond,
		InterReadDelay: 50 * time.Millisecond,
	}
}

type Session struct {
	port     base.Port
	settings Settings
	logger   *zap.SugaredLogger

	state   State
	control byte
	lastErr error
	txbuf   []byte
	rxbuf   []byte
}

func New(port base.Port, settings *Settings) *Session {
	s := Settings{}
	if settings != nil {
		s = *settings
	}
	def := DefaultSettings()
	if len(s.Password) == 0 {
		s.Password = def.Password
	}
	if s.ClientSAP == 0 {
		s.ClientSAP = def.ClientSAP
	}
	if s.ServerSAP == 0 {
		s.ServerSAP = def.ServerSAP
	}
	if s.MaxFrameSize < hdlc.MaxFrameSize {
		s.MaxFrameSize = hdlc.MaxFrameSize
	}
	if s.CommandTimeout == 0 {
		s.CommandTimeout = def.CommandTimeout
	}
	if s.DiscTimeout == 0 {
		s.DiscTimeout = def.DiscTimeout
	}
	return &Session{
		port:     port,
		settings: s,
		state:    Disconnected,
		control:  hdlc.ControlInitial,
		txbuf:    make([]byte, hdlc.MaxFrameSize),
		rxbuf:    make([]byte, s.MaxFrameSize),
	}
}

func (s *Session) SetLogger(logger *zap.SugaredLogger) {
	s.logger = logger
}

func (s *Session) logf(format string, v ...any) {
	if s.logger != nil {
		s.logger.Infof(format, v...)
	}
}

func (s *Session) warnf(format string, v ...any) {
	if s.logger != nil {
		s.logger.Warnf(format, v...)
	}
}

func (s *Session) dlogf(format string, v ...any) {
	if s.logger != nil {
		s.logger.Debugf(format, v...)
	}
}

func (s *Session) State() State { return s.state }

func (s *Session) LastError() error { return s.lastErr }

func (s *Session) fault(err error) error {
	s.state = Faulted
	s.lastErr = err
	return err
}

// advance steps the send-sequence counter after a response whose HDLC
// envelope validated, success or not, so the client stays in step with
// servers that answer every I-frame.
func (s *Session) advance() {
	if s.control < hdlc.ControlCeiling {
		s.control += hdlc.ControlStep
	} else {
		s.control = hdlc.ControlInitial
	}
}

func (s *Session) send(frame []byte) error {
	s.dlogf("TX % x", frame)
	if err := s.port.Write(frame); err != nil {
		return err
	}
	return s.port.Flush()
}

func (s *Session) receive(timeout time.Duration) ([]byte, error) {
	frame, err := hdlc.Receive(s.port, s.rxbuf, timeout)
	if err != nil {
		return nil, err
	}
	s.dlogf("RX % x", frame)
	return frame, nil
}

// Connect wakes the meter, brings up the HDLC link and establishes the
// application association. Calling it on an already associated session is
// a no-op.
func (s *Session) Connect() error {
	if s.state == Associated {
		return nil
	}
	s.logf("connecting, state %s", s.state)
	s.state = Disconnected
	s.control = hdlc.ControlInitial

	if err := s.port.SetDTR(true); err != nil {
		return s.fault(fmt.Errorf("dtr assert: %w", err))
	}
	time.Sleep(s.settings.DTRWakeDelay)
	s.port.DrainRx()

	if err := s.send(hdlc.SNRM()); err != nil {
		return s.fault(fmt.Errorf("snrm send: %w", err))
	}
	s.state = SnrmSent
	ua, err := s.receive(s.settings.CommandTimeout)
	if err != nil {
		return s.fault(fmt.Errorf("snrm: %w", err))
	}
	if err := s.verifyUA(ua); err != nil {
		return s.fault(err)
	}
	s.state = Connected
	s.logf("link established")

	time.Sleep(s.settings.PostSnrmDelay)

	aarq, err := hdlc.AARQ(s.settings.Password)
	if err != nil {
		return s.fault(err)
	}
	if err := s.send(aarq); err != nil {
		return s.fault(fmt.Errorf("aarq send: %w", err))
	}
	s.state = AarqSent
	aare, err := s.receive(s.settings.CommandTimeout)
	if err != nil {
		return s.fault(fmt.Errorf("aarq: %w", err))
	}
	if err := s.verifyAARE(aare); err != nil {
		return s.fault(err)
	}
	s.advance()
	s.state = Associated
	s.logf("association established")
	return nil
}

// Disconnect sends DISC twice (some meters sleep through the first one),
// ignores any reply, resets the counter and lets the meter go back to
// sleep. It also clears a Faulted state.
func (s *Session) Disconnect() error {
	s.logf("disconnecting")
	for i := 0; i < 2; i++ {
		if err := s.send(hdlc.DISC()); err != nil {
			s.warnf("disc send: %v", err)
			break
		}
		timeout := s.settings.CommandTimeout
		if i > 0 {
			timeout = s.settings.DiscTimeout
		}
		if _, err := s.receive(timeout); err != nil {
			s.dlogf("no disc reply: %v", err)
		}
	}
	s.state = Disconnected
	s.control = hdlc.ControlInitial
	s.lastErr = nil
	if err := s.port.SetDTR(false); err != nil {
		s.warnf("dtr release: %v", err)
	}
	return nil
}

func (s *Session) verifyUA(frame []byte) error {
	if len(frame) < 7 {
		return fmt.Errorf("%w: ua of %d bytes", base.ErrUnexpectedResponse, len(frame))
	}
	if frame[0] != hdlc.Flag || frame[1] != hdlc.FormatType3 ||
		frame[3] != s.settings.ClientSAP || frame[4] != s.settings.ServerSAP {
		return fmt.Errorf("%w: ua envelope % x", base.ErrUnexpectedResponse, frame[:6])
	}
	if frame[5] != hdlc.ControlUA {
		return fmt.Errorf("%w: control %02x, expected ua", base.ErrUnexpectedResponse, frame[5])
	}
	return nil
}

func (s *Session) verifyAARE(frame []byte) error {
	if len(frame) < 30 {
		return fmt.Errorf("%w: aare of %d bytes", base.ErrUnexpectedResponse, len(frame))
	}
	if frame[0] != hdlc.Flag || frame[1] != hdlc.FormatType3 ||
		frame[3] != s.settings.ClientSAP || frame[4] != s.settings.ServerSAP ||
		frame[8] != 0xe6 || frame[9] != 0xe7 {
		return fmt.Errorf("%w: aare envelope", base.ErrUnexpectedResponse)
	}
	if frame[28] != 0x00 {
		return fmt.Errorf("%w: association result %d", base.ErrAuthenticationFailed, frame[28])
	}
	return nil
}

// validEnvelope reports whether an inbound frame is a well-formed response
// I-frame from the meter to us. The counter advances exactly when this
// holds.
func (s *Session) validEnvelope(frame []byte) bool {
	return len(frame) >= 15 &&
		frame[0] == hdlc.Flag && frame[1] == hdlc.FormatType3 &&
		frame[3] == s.settings.ClientSAP && frame[4] == s.settings.ServerSAP &&
		frame[8] == 0xe6 && frame[9] == 0xe7
}

// readAttribute performs one GET exchange and returns the encoded COSEM
// value from the response. The send-sequence counter does not advance on
// timeouts or malformed envelopes.
func (s *Session) readAttribute(code obis.Code, attribute byte) ([]byte, error) {
	if s.state != Associated && s.state != Reading {
		return nil, base.ErrNotAssociated
	}
	s.port.DrainRx()

	apdu := cosem.EncodeGetRequest(code.ClassID, code, attribute)
	info := make([]byte, 0, len(hdlc.LLCRequest)+len(apdu))
	info = append(info, hdlc.LLCRequest...)
	info = append(info, apdu...)
	frame, err := hdlc.Encode(s.txbuf, s.settings.ServerSAP, s.settings.ClientSAP, s.control, info)
	if err != nil {
		return nil, err
	}
	if err := s.send(frame); err != nil {
		return nil, err
	}
	resp, err := s.receive(s.settings.CommandTimeout)
	if err != nil {
		return nil, err
	}
	if !s.validEnvelope(resp) {
		return nil, fmt.Errorf("%w: get response envelope", base.ErrUnexpectedResponse)
	}
	s.advance()
	return cosem.DecodeGetResponse(resp[8 : len(resp)-3])
}

func (s *Session) pause() {
	if s.settings.InterReadDelay > 0 {
		time.Sleep(s.settings.InterReadDelay)
	}
}
