// Package cosem encodes GET-Request APDUs and decodes GET-Response APDUs
// together with the primitive COSEM data types carried inside them.
package cosem

import (
	"fmt"
	"math"

	"github.com/sahasra-iot/meterlink/base"
	"github.com/sahasra-iot/meterlink/obis"
)

type Tag byte

const (
	TagNull               Tag = 0x00
	TagArray              Tag = 0x01
	TagStructure          Tag = 0x02
	TagDoubleLong         Tag = 0x05
	TagDoubleLongUnsigned Tag = 0x06
	TagOctetString        Tag = 0x09
	TagVisibleString      Tag = 0x0a
	TagInteger            Tag = 0x0f
	TagLong               Tag = 0x10
	TagUnsigned           Tag = 0x11
	TagLongUnsigned       Tag = 0x12
	TagEnum               Tag = 0x16
	TagDateTime           Tag = 0x19
)

const (
	tagGetRequest   = 0xc0
	tagGetResponse  = 0xc4
	getNormal       = 0x01
	invokeIDAndPrio = 0xc1
)

// EncodeGetRequest builds a GET-Request-Normal APDU for one attribute of an
// OBIS object: C0 01 C1 | class u16 | code[6] | attribute | 00 (no access
// selection). 13 bytes, always.
func EncodeGetRequest(classID uint16, code obis.Code, attribute byte) []byte {
	apdu := make([]byte, 0, 13)
	apdu = append(apdu, tagGetRequest, getNormal, invokeIDAndPrio)
	apdu = append(apdu, byte(classID>>8), byte(classID))
	apdu = append(apdu, code.Bytes[:]...)
	apdu = append(apdu, attribute, 0x00)
	return apdu
}

// DecodeGetResponse strips the LLC header and GET-Response-Normal envelope
// from the information field of an I-frame and returns the encoded data
// value. A data-access-result other than success comes back as an error.
func DecodeGetResponse(info []byte) ([]byte, error) {
	if len(info) < 8 {
		return nil, fmt.Errorf("%w: %d byte response", base.ErrUnexpectedResponse, len(info))
	}
	if info[0] != 0xe6 || info[1] != 0xe7 || info[2] != 0x00 {
		return nil, fmt.Errorf("%w: llc header % x", base.ErrUnexpectedResponse, info[:3])
	}
	if info[3] != tagGetResponse || info[4] != getNormal {
		return nil, fmt.Errorf("%w: apdu tag % x", base.ErrUnexpectedResponse, info[3:5])
	}
	if info[5] != invokeIDAndPrio {
		return nil, fmt.Errorf("%w: invoke id %02x", base.ErrUnexpectedResponse, info[5])
	}
	if info[6] != 0x00 {
		return nil, fmt.Errorf("%w: data access result %d", base.ErrReadFailed, info[6])
	}
	return info[7:], nil
}

// Data is one decoded COSEM value. Value holds int32, uint32, int16, uint16,
// int8 or uint8 for numbers and enums, []byte for octet strings, string for
// visible strings, DateTime for date-time and nil for null; Structure and
// Array nest []Data.
type Data struct {
	Tag   Tag
	Value interface{}
}

// Decode reads one tag-length-value encoded item from the front of src and
// returns it along with the number of bytes consumed.
func Decode(src []byte) (Data, int, error) {
	if len(src) == 0 {
		return Data{}, 0, fmt.Errorf("%w: empty value", base.ErrUnsupportedDataType)
	}
	tag := Tag(src[0])
	body := src[1:]
	switch tag {
	case TagNull:
		return Data{Tag: tag}, 1, nil
	case TagArray, TagStructure:
		if len(body) < 1 {
			return Data{}, 0, truncated(tag)
		}
		count := int(body[0])
		items := make([]Data, 0, count)
		used := 2
		rest := body[1:]
		for i := 0; i < count; i++ {
			item, n, err := Decode(rest)
			if err != nil {
				return Data{}, 0, err
			}
			items = append(items, item)
			rest = rest[n:]
			used += n
		}
		return Data{Tag: tag, Value: items}, used, nil
	case TagDoubleLong:
		if len(body) < 4 {
			return Data{}, 0, truncated(tag)
		}
		v := int32(body[0])<<24 | int32(body[1])<<16 | int32(body[2])<<8 | int32(body[3])
		return Data{Tag: tag, Value: v}, 5, nil
	case TagDoubleLongUnsigned:
		if len(body) < 4 {
			return Data{}, 0, truncated(tag)
		}
		v := uint32(body[0])<<24 | uint32(body[1])<<16 | uint32(body[2])<<8 | uint32(body[3])
		return Data{Tag: tag, Value: v}, 5, nil
	case TagOctetString, TagVisibleString:
		if len(body) < 1 || len(body) < 1+int(body[0]) {
			return Data{}, 0, truncated(tag)
		}
		l := int(body[0])
		raw := make([]byte, l)
		copy(raw, body[1:1+l])
		if tag == TagVisibleString {
			return Data{Tag: tag, Value: string(raw)}, 2 + l, nil
		}
		return Data{Tag: tag, Value: raw}, 2 + l, nil
	case TagInteger:
		if len(body) < 1 {
			return Data{}, 0, truncated(tag)
		}
		return Data{Tag: tag, Value: int8(body[0])}, 2, nil
	case TagLong:
		if len(body) < 2 {
			return Data{}, 0, truncated(tag)
		}
		return Data{Tag: tag, Value: int16(body[0])<<8 | int16(body[1])}, 3, nil
	case TagUnsigned, TagEnum:
		if len(body) < 1 {
			return Data{}, 0, truncated(tag)
		}
		return Data{Tag: tag, Value: uint8(body[0])}, 2, nil
	case TagLongUnsigned:
		if len(body) < 2 {
			return Data{}, 0, truncated(tag)
		}
		return Data{Tag: tag, Value: uint16(body[0])<<8 | uint16(body[1])}, 3, nil
	case TagDateTime:
		if len(body) < 12 {
			return Data{}, 0, truncated(tag)
		}
		dt, err := DecodeDateTime(body[:12])
		if err != nil {
			return Data{}, 0, err
		}
		return Data{Tag: tag, Value: dt}, 13, nil
	}
	return Data{}, 0, fmt.Errorf("%w: tag 0x%02x", base.ErrUnsupportedDataType, byte(tag))
}

func truncated(tag Tag) error {
	return fmt.Errorf("%w: truncated value for tag 0x%02x", base.ErrUnsupportedDataType, byte(tag))
}

// Float converts any numeric Data to float64.
func (d Data) Float() (float64, bool) {
	switch v := d.Value.(type) {
	case int32:
		return float64(v), true
	case uint32:
		return float64(v), true
	case int16:
		return float64(v), true
	case uint16:
		return float64(v), true
	case int8:
		return float64(v), true
	case uint8:
		return float64(v), true
	}
	return 0, false
}

// Text converts string-like Data to a Go string.
func (d Data) Text() (string, bool) {
	switch v := d.Value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return "", false
}

// ScalerUnit is attribute 3 of a Register object: a power-of-ten exponent
// and a unit enum.
type ScalerUnit struct {
	Scaler int8
	Unit   uint8
}

// DecodeScalerUnit expects a structure of two elements, integer scaler and
// enum unit. The scaler is a plain i8; bytes >= 0x80 are negative exponents.
func DecodeScalerUnit(d Data) (ScalerUnit, error) {
	items, ok := d.Value.([]Data)
	if d.Tag != TagStructure || !ok || len(items) != 2 {
		return ScalerUnit{}, fmt.Errorf("%w: scaler-unit is not a 2-element structure", base.ErrUnsupportedDataType)
	}
	var su ScalerUnit
	switch v := items[0].Value.(type) {
	case int8:
		su.Scaler = v
	case uint8:
		su.Scaler = int8(v)
	default:
		return ScalerUnit{}, fmt.Errorf("%w: scaler element tag 0x%02x", base.ErrUnsupportedDataType, byte(items[0].Tag))
	}
	switch v := items[1].Value.(type) {
	case uint8:
		su.Unit = v
	default:
		return ScalerUnit{}, fmt.Errorf("%w: unit element tag 0x%02x", base.ErrUnsupportedDataType, byte(items[1].Tag))
	}
	return su, nil
}

// Apply scales a raw register value: v * 10^scaler.
func (su ScalerUnit) Apply(v float64) float64 {
	return v * math.Pow(10, float64(su.Scaler))
}

func (su ScalerUnit) String() string {
	return fmt.Sprintf("10^%d %s", su.Scaler, UnitName(su.Unit))
}
