package cosem

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahasra-iot/meterlink/base"
	"github.com/sahasra-iot/meterlink/obis"
)

func decodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("hex decode: %v", err)
	}
	return b
}

func TestEncodeGetRequest(t *testing.T) {
	apdu := EncodeGetRequest(obis.ClassRegister, obis.KWhImport, 2)
	assert.Equal(t, decodeHex(t, "c001c100030100010800ff0200"), apdu)
	assert.Len(t, apdu, 13)
}

func TestDecodeGetResponse(t *testing.T) {
	info := decodeHex(t, "e6e700c401c1000600002710")
	data, err := DecodeGetResponse(info)
	require.NoError(t, err)
	assert.Equal(t, decodeHex(t, "0600002710"), data)

	// data-access-result: object-undefined
	_, err = DecodeGetResponse(decodeHex(t, "e6e700c401c10406"))
	assert.ErrorIs(t, err, base.ErrReadFailed)

	// outbound LLC header on an inbound frame
	_, err = DecodeGetResponse(decodeHex(t, "e6e600c401c1000600002710"))
	assert.ErrorIs(t, err, base.ErrUnexpectedResponse)

	_, err = DecodeGetResponse(decodeHex(t, "e6e700c401"))
	assert.ErrorIs(t, err, base.ErrUnexpectedResponse)
}

func TestDecodePrimitives(t *testing.T) {
	cases := []struct {
		hex  string
		want interface{}
	}{
		{"0600002710", uint32(10000)},
		{"05fffffff6", int32(-10)},
		{"10fff6", int16(-10)},
		{"120e10", uint16(3600)},
		{"0f9c", int8(-100)},
		{"117f", uint8(127)},
		{"161e", uint8(30)},
		{"0a034142" + "43", "ABC"},
	}
	for _, tc := range cases {
		d, n, err := Decode(decodeHex(t, tc.hex))
		require.NoError(t, err, tc.hex)
		assert.Equal(t, len(tc.hex)/2, n, tc.hex)
		assert.Equal(t, tc.want, d.Value, tc.hex)
	}

	d, n, err := Decode(decodeHex(t, "0903313233"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte("123"), d.Value)
}

func TestDecodeRejects(t *testing.T) {
	_, _, err := Decode(nil)
	assert.ErrorIs(t, err, base.ErrUnsupportedDataType)

	_, _, err = Decode(decodeHex(t, "06000027")) // truncated u32
	assert.ErrorIs(t, err, base.ErrUnsupportedDataType)

	_, _, err = Decode(decodeHex(t, "07aabbccdd")) // float32 not in the decodable set
	assert.ErrorIs(t, err, base.ErrUnsupportedDataType)
}

func TestDecodeScalerUnit(t *testing.T) {
	d, _, err := Decode(decodeHex(t, "02020fff161e"))
	require.NoError(t, err)
	su, err := DecodeScalerUnit(d)
	require.NoError(t, err)
	assert.Equal(t, int8(-1), su.Scaler)
	assert.Equal(t, uint8(30), su.Unit)
	assert.Equal(t, "Wh", UnitName(su.Unit))
	assert.InDelta(t, 1000.0, su.Apply(10000), 1e-9)

	// scaler high-bit-set bytes are negative exponents, not complements
	d, _, err = Decode(decodeHex(t, "02020ffd1623"))
	require.NoError(t, err)
	su, err = DecodeScalerUnit(d)
	require.NoError(t, err)
	assert.Equal(t, int8(-3), su.Scaler)
	assert.InDelta(t, 0.005, su.Apply(5), 1e-9)

	d, _, err = Decode(decodeHex(t, "02020f021621"))
	require.NoError(t, err)
	su, err = DecodeScalerUnit(d)
	require.NoError(t, err)
	assert.InDelta(t, 700.0, su.Apply(7), 1e-9)

	_, err = DecodeScalerUnit(Data{Tag: TagLong, Value: int16(2)})
	assert.Error(t, err)
}

func TestScalerRange(t *testing.T) {
	for s := int8(-3); s <= 3; s++ {
		su := ScalerUnit{Scaler: s}
		want := 42.0
		for i := int8(0); i < s; i++ {
			want *= 10
		}
		for i := s; i < 0; i++ {
			want /= 10
		}
		assert.InDelta(t, want, su.Apply(42), want*1e-12+1e-12, "scaler %d", s)
	}
}

func TestDecodeDateTime(t *testing.T) {
	dt, err := DecodeDateTime(decodeHex(t, "07e90a02ff0c0000ff000000"))
	require.NoError(t, err)
	assert.Equal(t, "2025-10-02 12:00:00", dt.String())

	// truncated to 11 bytes, still decodable
	dt, err = DecodeDateTime(decodeHex(t, "07e90a02ff0c0000ff0000"))
	require.NoError(t, err)
	assert.Equal(t, "2025-10-02 12:00:00", dt.String())

	// all sentinels
	dt, err = DecodeDateTime(decodeHex(t, "ffffffffffffffffff8000ff"))
	require.NoError(t, err)
	assert.Equal(t, "0000-01-01 00:00:00", dt.String())

	_, err = DecodeDateTime(decodeHex(t, "07e90a02"))
	assert.Error(t, err)
}

func TestDecodeDateTimeTag(t *testing.T) {
	d, n, err := Decode(decodeHex(t, "1907e90a04ff0c1e2d00000000"))
	require.NoError(t, err)
	assert.Equal(t, 13, n)
	dt := d.Value.(DateTime)
	assert.Equal(t, "2025-10-04 12:30:45", dt.String())
}

func TestStructureDecode(t *testing.T) {
	d, n, err := Decode(decodeHex(t, "020312000106000000020f03"))
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	items := d.Value.([]Data)
	require.Len(t, items, 3)
	assert.Equal(t, uint16(1), items[0].Value)
	assert.Equal(t, uint32(2), items[1].Value)
	assert.Equal(t, int8(3), items[2].Value)
}
