package base

import "errors"

var (
	ErrTimeout              = errors.New("communication timeout")
	ErrFrameFormat          = errors.New("malformed hdlc frame")
	ErrCrcMismatch          = errors.New("checksum mismatch")
	ErrUnexpectedResponse   = errors.New("unexpected response")
	ErrAuthenticationFailed = errors.New("association rejected")
	ErrUnsupportedDataType  = errors.New("unsupported cosem data type")
	ErrReadFailed           = errors.New("object read failed")
	ErrNotAssociated        = errors.New("no active association")
)
