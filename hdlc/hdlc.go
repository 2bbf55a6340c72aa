// Package hdlc implements the type 3 HDLC framing DLMS uses on serial
// media: flag-delimited frames with a format/length word, destination and
// source addresses, a control byte, HCS over the header and FCS over the
// whole body (both CRC-16/X.25, low byte first).
package hdlc

import (
	"fmt"
	"time"

	"github.com/sahasra-iot/meterlink/base"
	"github.com/sahasra-iot/meterlink/crc16"
)

const (
	Flag        = 0x7e
	FormatType3 = 0xa0

	ControlSNRM = 0x93
	ControlUA   = 0x73
	ControlDISC = 0x53

	// Send-sequence counter of outgoing I-frames: initial value, step and
	// the ceiling after which the next step wraps back to the start.
	ControlInitial = 0x10
	ControlStep    = 0x22
	ControlCeiling = 0xfe

	ClientSAP = 0x41
	ServerSAP = 0x03

	MaxFrameSize = 256

	headerLen = 5 // format, length, dst, src, control
)

// LLC headers prefixing the information field of I-frames.
var (
	LLCRequest  = []byte{0xe6, 0xe6, 0x00}
	LLCResponse = []byte{0xe6, 0xe7, 0x00}
)

// snrmFrame negotiates max info field 0x0501 both directions, window 1.
var snrmFrame = []byte{
	0x7e, 0xa0, 0x20, 0x03, 0x41, 0x93, 0x28, 0xbc,
	0x81, 0x80, 0x14, 0x05, 0x02, 0x05, 0x01, 0x06,
	0x02, 0x05, 0x01, 0x07, 0x04, 0x00, 0x00, 0x00,
	0x01, 0x08, 0x04, 0x00, 0x00, 0x00, 0x01, 0xdd,
	0x70, 0x7e,
}

// aarqFrame carries context 2.16.756.5.8.1.1 (LN, no ciphering), mechanism
// LLS, a 16 byte password at aarqPasswordOffset and the initiate-request
// conformance bits.
var aarqFrame = []byte{
	0x7e, 0xa0, 0x4c, 0x03, 0x41, 0x10, 0x6b, 0x04,
	0xe6, 0xe6, 0x00, 0x60, 0x3e, 0xa1, 0x09, 0x06,
	0x07, 0x60, 0x85, 0x74, 0x05, 0x08, 0x01, 0x01,
	0x8a, 0x02, 0x07, 0x80, 0x8b, 0x07, 0x60, 0x85,
	0x74, 0x05, 0x08, 0x02, 0x01, 0xac, 0x12, 0x80,
	0x10, 0x31, 0x31, 0x31, 0x31, 0x31, 0x31, 0x31,
	0x31, 0x31, 0x31, 0x31, 0x31, 0x31, 0x31, 0x31,
	0x31, 0xbe, 0x10, 0x04, 0x0e, 0x01, 0x00, 0x00,
	0x00, 0x06, 0x5f, 0x1f, 0x04, 0x00, 0x00, 0x18,
	0x1d, 0xff, 0xff, 0xb3, 0x3d, 0x7e,
}

const (
	aarqPasswordOffset = 41
	PasswordLength     = 16
)

var discFrame = []byte{0x7e, 0xa0, 0x07, 0x03, 0x41, 0x53, 0x56, 0xa2, 0x7e}

// SNRM returns a copy of the canned link setup request.
func SNRM() []byte {
	out := make([]byte, len(snrmFrame))
	copy(out, snrmFrame)
	return out
}

// DISC returns a copy of the canned disconnect request.
func DISC() []byte {
	out := make([]byte, len(discFrame))
	copy(out, discFrame)
	return out
}

// AARQ returns the canned association request with the given LLS password
// injected and both checksums recomputed.
func AARQ(password []byte) ([]byte, error) {
	if len(password) != PasswordLength {
		return nil, fmt.Errorf("password must be %d bytes, got %d", PasswordLength, len(password))
	}
	out := make([]byte, len(aarqFrame))
	copy(out, aarqFrame)
	copy(out[aarqPasswordOffset:], password)
	body := out[1 : len(out)-1]
	crc16.Put(body[headerLen:], crc16.Compute(body[:headerLen]))
	crc16.Put(body[len(body)-2:], crc16.Compute(body[:len(body)-2]))
	return out, nil
}

// Encode builds a complete frame around info (which may be nil for
// control-only frames such as DISC) and returns the used prefix of dst.
// dst must hold 9 bytes for a control-only frame, 11+len(info) bytes when
// info is present (the HCS adds two).
func Encode(dst []byte, dstAddr, srcAddr, control byte, info []byte) ([]byte, error) {
	total := 9 + len(info)
	if len(info) > 0 {
		total += 2 // HCS only present with an information field
	}
	if total > len(dst) {
		return nil, fmt.Errorf("frame of %d bytes exceeds buffer", total)
	}
	bodyLen := total - 2 // both flags excluded from the length field
	if bodyLen > 0x7ff {
		return nil, fmt.Errorf("frame of %d bytes exceeds type 3 length field", total)
	}
	dst[0] = Flag
	dst[1] = FormatType3 | byte(bodyLen>>8)
	dst[2] = byte(bodyLen)
	dst[3] = dstAddr
	dst[4] = srcAddr
	dst[5] = control
	body := dst[1 : total-1]
	if len(info) > 0 {
		crc16.Put(body[headerLen:], crc16.Compute(body[:headerLen]))
		copy(body[headerLen+2:], info)
	}
	crc16.Put(body[len(body)-2:], crc16.Compute(body[:len(body)-2]))
	dst[total-1] = Flag
	return dst[:total], nil
}

// Frame is a parsed inbound frame. Info aliases the input buffer.
type Frame struct {
	Dst     byte
	Src     byte
	Control byte
	Info    []byte
}

// Parse validates raw (a complete frame including both flags) and its
// checksums, and splits it into its fields.
func Parse(raw []byte) (f Frame, err error) {
	if len(raw) < 9 {
		return f, fmt.Errorf("%w: %d bytes", base.ErrFrameFormat, len(raw))
	}
	if raw[0] != Flag || raw[len(raw)-1] != Flag {
		return f, fmt.Errorf("%w: missing flag", base.ErrFrameFormat)
	}
	if raw[1]&0xf0 != FormatType3 {
		return f, fmt.Errorf("%w: format byte %02x", base.ErrFrameFormat, raw[1])
	}
	bodyLen := int(raw[1]&0x07)<<8 | int(raw[2])
	if bodyLen+2 != len(raw) {
		return f, fmt.Errorf("%w: length field %d for %d byte frame", base.ErrFrameFormat, bodyLen, len(raw))
	}
	body := raw[1 : len(raw)-1]
	f.Dst = body[2]
	f.Src = body[3]
	f.Control = body[4]
	if len(body) == headerLen+2 { // control frame, single trailing FCS
		if !crc16.Verify(body) {
			return f, fmt.Errorf("fcs: %w", base.ErrCrcMismatch)
		}
		return f, nil
	}
	if len(body) < headerLen+4 {
		return f, fmt.Errorf("%w: truncated information frame", base.ErrFrameFormat)
	}
	if !crc16.Verify(body[:headerLen+2]) {
		return f, fmt.Errorf("hcs: %w", base.ErrCrcMismatch)
	}
	if !crc16.Verify(body) {
		return f, fmt.Errorf("fcs: %w", base.ErrCrcMismatch)
	}
	f.Info = body[headerLen+2 : len(body)-2]
	return f, nil
}

// Receive hunts for a flag on the port and accumulates bytes into buf until
// the closing flag of the same frame arrives, returning the frame including
// both flags. Bytes before the first flag are discarded; a flag seen before
// any payload restarts accumulation. The payload is not checksum-verified
// here. Fails with base.ErrTimeout when no complete frame shows up in time.
func Receive(port base.Port, buf []byte, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	n := 0
	started := false
	for time.Now().Before(deadline) {
		if port.Available() == 0 {
			time.Sleep(time.Millisecond)
			continue
		}
		b := port.ReadByte()
		if b == Flag && !started {
			started = true
			n = 0
		}
		if !started || n >= len(buf) {
			continue
		}
		if b == Flag && n == 1 {
			continue // interframe fill, keep the single opening flag
		}
		buf[n] = b
		n++
		if n > 2 && b == Flag {
			return buf[:n], nil
		}
	}
	return nil, base.ErrTimeout
}
