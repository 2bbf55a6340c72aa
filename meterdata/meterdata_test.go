package meterdata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Record {
	var r Record
	r.Clear()
	r.SerialNumber = "EM123456"
	r.Manufacturer = "ACME"
	r.KWhImport = 1234.5
	r.MDKWImport = MaximumDemand{Value: 5.2, Timestamp: "2025-10-02 12:00:00"}
	r.TODZones[0] = TODZone{KWh: 100, KVAh: 110, MDKW: 4.1, MDKWTimestamp: "2025-10-01 19:30:00"}
	r.TODZones[1] = TODZone{KWh: 50, KVAh: 55}
	r.Timestamp = "2025-10-02 12:34:56"
	r.Valid = true
	return &r
}

func TestJSONSchema(t *testing.T) {
	out, err := json.Marshal(sample())
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &doc))

	meter := doc["meter"].(map[string]interface{})
	assert.Equal(t, "EM123456", meter["serial"])
	assert.Equal(t, 1.0, meter["mf"])

	energy := doc["energy"].(map[string]interface{})
	assert.Equal(t, 1234.5, energy["kwh_import"])

	md := doc["maximum_demand"].(map[string]interface{})
	assert.Equal(t, 5.2, md["kw_import"])
	assert.Equal(t, "2025-10-02 12:00:00", md["kw_import_time"])

	inst := doc["instantaneous"].(map[string]interface{})
	assert.Contains(t, inst, "voltage")
	assert.Contains(t, inst["current"].(map[string]interface{}), "n")

	zones := doc["tod_zones"].([]interface{})
	require.Len(t, zones, TODZoneCount)
	z1 := zones[0].(map[string]interface{})
	assert.Equal(t, 1.0, z1["zone"])
	assert.Equal(t, "2025-10-01 19:30:00", z1["md_kw_time"])
	z2 := zones[1].(map[string]interface{})
	_, hasTime := z2["md_kw_time"]
	assert.False(t, hasTime, "empty capture times are omitted")

	assert.Equal(t, true, doc["valid"])
	assert.Equal(t, 0.0, doc["error_count"])
}

func TestJSONWithoutTOD(t *testing.T) {
	out, err := sample().JSON(false)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &doc))
	_, has := doc["tod_zones"]
	assert.False(t, has)
}

func TestValidity(t *testing.T) {
	var r Record
	r.Clear()
	assert.False(t, r.IsValid())

	r.Valid = true
	assert.False(t, r.IsValid(), "no serial yet")

	r.SerialNumber = "X"
	assert.False(t, r.IsValid(), "no energy yet")

	r.KVAhImport = 1
	assert.True(t, r.IsValid())
}

func TestTODAggregates(t *testing.T) {
	r := sample()
	assert.InDelta(t, 150.0, r.TotalTODKWh(), 1e-9)
	assert.InDelta(t, 165.0, r.TotalTODKVAh(), 1e-9)

	r.Clear()
	assert.Zero(t, r.TotalTODKWh())
	assert.Equal(t, 1.0, r.MultiplicationFactor)
}
