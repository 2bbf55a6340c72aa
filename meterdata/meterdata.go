// Package meterdata holds one complete reading of a tariff meter. The JSON
// rendering of Record is the stable schema downstream consumers (MQTT,
// files) see; field tags are the contract, do not rename them.
package meterdata

import "encoding/json"

// MaximumDemand pairs a demand value with the capture time the meter
// recorded for it.
type MaximumDemand struct {
	Value     float64 `json:"value"`
	Timestamp string  `json:"timestamp,omitempty"`
}

func (m *MaximumDemand) clear() {
	m.Value = 0
	m.Timestamp = ""
}

// TODZone is one time-of-day billing bucket.
type TODZone struct {
	KWh            float64
	KVAh           float64
	MDKW           float64
	MDKVA          float64
	KWhTimestamp   string
	KVAhTimestamp  string
	MDKWTimestamp  string
	MDKVATimestamp string
}

func (z *TODZone) clear() {
	*z = TODZone{}
}

const TODZoneCount = 8

// Record is the complete result of one ReadAll pass. The session mutably
// borrows it for the duration of the read; consumers treat it read-only.
type Record struct {
	// Identification
	SerialNumber         string
	Manufacturer         string
	MeterType            string
	MultiplicationFactor float64

	// Energy counters
	KWhImport  float64
	KVAhImport float64
	KWhExport  float64
	KVAhExport float64
	KVArhLag   float64
	KVArhLead  float64

	// Maximum demand
	MDKWImport  MaximumDemand
	MDKVAImport MaximumDemand
	MDKWExport  MaximumDemand
	MDKVAExport MaximumDemand

	// Instantaneous values
	VoltageR       float64
	VoltageY       float64
	VoltageB       float64
	CurrentR       float64
	CurrentY       float64
	CurrentB       float64
	CurrentNeutral float64
	PowerFactor    float64
	Frequency      float64

	TODZones [TODZoneCount]TODZone

	Timestamp  string
	Valid      bool
	ErrorCount int
}

// Clear resets every field; ReadAll calls it before populating.
func (r *Record) Clear() {
	r.SerialNumber = ""
	r.Manufacturer = ""
	r.MeterType = ""
	r.MultiplicationFactor = 1.0

	r.KWhImport, r.KVAhImport, r.KVArhLag, r.KVArhLead = 0, 0, 0, 0
	r.KWhExport, r.KVAhExport = 0, 0

	r.MDKWImport.clear()
	r.MDKVAImport.clear()
	r.MDKWExport.clear()
	r.MDKVAExport.clear()

	r.VoltageR, r.VoltageY, r.VoltageB = 0, 0, 0
	r.CurrentR, r.CurrentY, r.CurrentB, r.CurrentNeutral = 0, 0, 0, 0
	r.PowerFactor, r.Frequency = 0, 0

	for i := range r.TODZones {
		r.TODZones[i].clear()
	}

	r.Timestamp = ""
	r.Valid = false
	r.ErrorCount = 0
}

// IsValid reports whether the essential part of the reading landed:
// identification plus at least one energy register.
func (r *Record) IsValid() bool {
	return r.Valid && r.SerialNumber != "" && (r.KWhImport > 0 || r.KVAhImport > 0)
}

// TotalTODKWh sums active energy over all zones.
func (r *Record) TotalTODKWh() float64 {
	total := 0.0
	for i := range r.TODZones {
		total += r.TODZones[i].KWh
	}
	return total
}

// TotalTODKVAh sums apparent energy over all zones.
func (r *Record) TotalTODKVAh() float64 {
	total := 0.0
	for i := range r.TODZones {
		total += r.TODZones[i].KVAh
	}
	return total
}

type meterJSON struct {
	Serial       string  `json:"serial"`
	Manufacturer string  `json:"manufacturer"`
	Type         string  `json:"type"`
	MF           float64 `json:"mf"`
}

type energyJSON struct {
	KWhImport  float64 `json:"kwh_import"`
	KVAhImport float64 `json:"kvah_import"`
	KWhExport  float64 `json:"kwh_export"`
	KVAhExport float64 `json:"kvah_export"`
	KVArhLag   float64 `json:"kvarh_lag"`
	KVArhLead  float64 `json:"kvarh_lead"`
}

type maximumDemandJSON struct {
	KWImport      float64 `json:"kw_import"`
	KWImportTime  string  `json:"kw_import_time"`
	KVAImport     float64 `json:"kva_import"`
	KVAImportTime string  `json:"kva_import_time"`
	KWExport      float64 `json:"kw_export"`
	KWExportTime  string  `json:"kw_export_time"`
	KVAExport     float64 `json:"kva_export"`
	KVAExportTime string  `json:"kva_export_time"`
}

type phasesJSON struct {
	R float64 `json:"r"`
	Y float64 `json:"y"`
	B float64 `json:"b"`
}

type currentsJSON struct {
	R float64 `json:"r"`
	Y float64 `json:"y"`
	B float64 `json:"b"`
	N float64 `json:"n"`
}

type instantaneousJSON struct {
	Voltage     phasesJSON   `json:"voltage"`
	Current     currentsJSON `json:"current"`
	PowerFactor float64      `json:"power_factor"`
	Frequency   float64      `json:"frequency"`
}

type todZoneJSON struct {
	Zone      int     `json:"zone"`
	KWh       float64 `json:"kwh"`
	KVAh      float64 `json:"kvah"`
	MDKW      float64 `json:"md_kw"`
	MDKVA     float64 `json:"md_kva"`
	MDKWTime  string  `json:"md_kw_time,omitempty"`
	MDKVATime string  `json:"md_kva_time,omitempty"`
}

type recordJSON struct {
	Meter         meterJSON         `json:"meter"`
	Energy        energyJSON        `json:"energy"`
	MaximumDemand maximumDemandJSON `json:"maximum_demand"`
	Instantaneous instantaneousJSON `json:"instantaneous"`
	TODZones      []todZoneJSON     `json:"tod_zones,omitempty"`
	Timestamp     string            `json:"timestamp"`
	Valid         bool              `json:"valid"`
	ErrorCount    int               `json:"error_count"`
}

func (r *Record) toJSON(includeTOD bool) recordJSON {
	out := recordJSON{
		Meter: meterJSON{
			Serial:       r.SerialNumber,
			Manufacturer: r.Manufacturer,
			Type:         r.MeterType,
			MF:           r.MultiplicationFactor,
		},
		Energy: energyJSON{
			KWhImport:  r.KWhImport,
			KVAhImport: r.KVAhImport,
			KWhExport:  r.KWhExport,
			KVAhExport: r.KVAhExport,
			KVArhLag:   r.KVArhLag,
			KVArhLead:  r.KVArhLead,
		},
		MaximumDemand: maximumDemandJSON{
			KWImport:      r.MDKWImport.Value,
			KWImportTime:  r.MDKWImport.Timestamp,
			KVAImport:     r.MDKVAImport.Value,
			KVAImportTime: r.MDKVAImport.Timestamp,
			KWExport:      r.MDKWExport.Value,
			KWExportTime:  r.MDKWExport.Timestamp,
			KVAExport:     r.MDKVAExport.Value,
			KVAExportTime: r.MDKVAExport.Timestamp,
		},
		Instantaneous: instantaneousJSON{
			Voltage:     phasesJSON{R: r.VoltageR, Y: r.VoltageY, B: r.VoltageB},
			Current:     currentsJSON{R: r.CurrentR, Y: r.CurrentY, B: r.CurrentB, N: r.CurrentNeutral},
			PowerFactor: r.PowerFactor,
			Frequency:   r.Frequency,
		},
		Timestamp:  r.Timestamp,
		Valid:      r.Valid,
		ErrorCount: r.ErrorCount,
	}
	if includeTOD {
		out.TODZones = make([]todZoneJSON, TODZoneCount)
		for i := range r.TODZones {
			z := &r.TODZones[i]
			out.TODZones[i] = todZoneJSON{
				Zone:      i + 1,
				KWh:       z.KWh,
				KVAh:      z.KVAh,
				MDKW:      z.MDKW,
				MDKVA:     z.MDKVA,
				MDKWTime:  z.MDKWTimestamp,
				MDKVATime: z.MDKVATimestamp,
			}
		}
	}
	return out
}

// MarshalJSON renders the published schema, TOD zones included.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.toJSON(true))
}

// JSON serialises the record, optionally without the TOD zones (smaller
// payload for constrained uplinks).
func (r *Record) JSON(includeTOD bool) ([]byte, error) {
	return json.Marshal(r.toJSON(includeTOD))
}
