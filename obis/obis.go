// Package obis is the static catalogue of OBIS-identified quantities this
// reader knows how to ask a meter for. Codes follow IEC 62056-61
// (A-B:C.D.E*F); the COSEM interface class recorded with each code decides
// which attributes the session reads.
package obis

import "fmt"

// COSEM interface classes used when issuing a GET.
const (
	ClassData             uint16 = 1
	ClassRegister         uint16 = 3
	ClassExtendedRegister uint16 = 4
)

type Code struct {
	Bytes   [6]byte
	Name    string
	Unit    string
	ClassID uint16
}

func (c Code) String() string {
	return fmt.Sprintf("%d-%d:%d.%d.%d*%d",
		c.Bytes[0], c.Bytes[1], c.Bytes[2], c.Bytes[3], c.Bytes[4], c.Bytes[5])
}

func code(a, b, c, d, e, f byte, name, unit string, class uint16) Code {
	return Code{Bytes: [6]byte{a, b, c, d, e, f}, Name: name, Unit: unit, ClassID: class}
}

// Identification
var (
	MeterSerialNumber = code(0x00, 0x00, 0x60, 0x01, 0x00, 0xff, "Serial Number", "", ClassData)
	MeterManufacturer = code(0x00, 0x00, 0x60, 0x01, 0x01, 0xff, "Manufacturer", "", ClassData)
	MeterType         = code(0x00, 0x00, 0x60, 0x01, 0x02, 0xff, "Meter Type", "", ClassData)
)

// Energy totals
var (
	KWhImport = code(0x01, 0x00, 0x01, 0x08, 0x00, 0xff, "Active Energy Import", "kWh", ClassRegister)
	KWhExport = code(0x01, 0x00, 0x02, 0x08, 0x00, 0xff, "Active Energy Export", "kWh", ClassRegister)

	KVAhImport = code(0x01, 0x00, 0x09, 0x08, 0x00, 0xff, "Apparent Energy Import", "kVAh", ClassRegister)
	KVAhExport = code(0x01, 0x00, 0x10, 0x08, 0x00, 0xff, "Apparent Energy Export", "kVAh", ClassRegister)

	KVArhLag  = code(0x01, 0x00, 0x05, 0x08, 0x00, 0xff, "Reactive Energy Lag", "kVArh", ClassRegister)
	KVArhLead = code(0x01, 0x00, 0x08, 0x08, 0x00, 0xff, "Reactive Energy Lead", "kVArh", ClassRegister)
)

// Per-tariff (time-of-day) energy registers, rates 1..8.
var (
	KWhImportRate = [8]Code{
		code(0x01, 0x00, 0x01, 0x08, 0x01, 0xff, "kWh Import Rate 1", "kWh", ClassRegister),
		code(0x01, 0x00, 0x01, 0x08, 0x02, 0xff, "kWh Import Rate 2", "kWh", ClassRegister),
		code(0x01, 0x00, 0x01, 0x08, 0x03, 0xff, "kWh Import Rate 3", "kWh", ClassRegister),
		code(0x01, 0x00, 0x01, 0x08, 0x04, 0xff, "kWh Import Rate 4", "kWh", ClassRegister),
		code(0x01, 0x00, 0x01, 0x08, 0x05, 0xff, "kWh Import Rate 5", "kWh", ClassRegister),
		code(0x01, 0x00, 0x01, 0x08, 0x06, 0xff, "kWh Import Rate 6", "kWh", ClassRegister),
		code(0x01, 0x00, 0x01, 0x08, 0x07, 0xff, "kWh Import Rate 7", "kWh", ClassRegister),
		code(0x01, 0x00, 0x01, 0x08, 0x08, 0xff, "kWh Import Rate 8", "kWh", ClassRegister),
	}
	KVAhImportRate = [8]Code{
		code(0x01, 0x00, 0x09, 0x08, 0x01, 0xff, "kVAh Import Rate 1", "kVAh", ClassRegister),
		code(0x01, 0x00, 0x09, 0x08, 0x02, 0xff, "kVAh Import Rate 2", "kVAh", ClassRegister),
		code(0x01, 0x00, 0x09, 0x08, 0x03, 0xff, "kVAh Import Rate 3", "kVAh", ClassRegister),
		code(0x01, 0x00, 0x09, 0x08, 0x04, 0xff, "kVAh Import Rate 4", "kVAh", ClassRegister),
		code(0x01, 0x00, 0x09, 0x08, 0x05, 0xff, "kVAh Import Rate 5", "kVAh", ClassRegister),
		code(0x01, 0x00, 0x09, 0x08, 0x06, 0xff, "kVAh Import Rate 6", "kVAh", ClassRegister),
		code(0x01, 0x00, 0x09, 0x08, 0x07, 0xff, "kVAh Import Rate 7", "kVAh", ClassRegister),
		code(0x01, 0x00, 0x09, 0x08, 0x08, 0xff, "kVAh Import Rate 8", "kVAh", ClassRegister),
	}
)

// Maximum demand, value plus capture time (extended register).
var (
	MDKWImport  = code(0x01, 0x00, 0x01, 0x06, 0x00, 0xff, "MD Active Import", "kW", ClassExtendedRegister)
	MDKWExport  = code(0x01, 0x00, 0x02, 0x06, 0x00, 0xff, "MD Active Export", "kW", ClassExtendedRegister)
	MDKVAImport = code(0x01, 0x00, 0x09, 0x06, 0x00, 0xff, "MD Apparent Import", "kVA", ClassExtendedRegister)
	MDKVAExport = code(0x01, 0x00, 0x10, 0x06, 0x00, 0xff, "MD Apparent Export", "kVA", ClassExtendedRegister)

	MDKWImportRate = [8]Code{
		code(0x01, 0x00, 0x01, 0x06, 0x01, 0xff, "MD kW Import Rate 1", "kW", ClassExtendedRegister),
		code(0x01, 0x00, 0x01, 0x06, 0x02, 0xff, "MD kW Import Rate 2", "kW", ClassExtendedRegister),
		code(0x01, 0x00, 0x01, 0x06, 0x03, 0xff, "MD kW Import Rate 3", "kW", ClassExtendedRegister),
		code(0x01, 0x00, 0x01, 0x06, 0x04, 0xff, "MD kW Import Rate 4", "kW", ClassExtendedRegister),
		code(0x01, 0x00, 0x01, 0x06, 0x05, 0xff, "MD kW Import Rate 5", "kW", ClassExtendedRegister),
		code(0x01, 0x00, 0x01, 0x06, 0x06, 0xff, "MD kW Import Rate 6", "kW", ClassExtendedRegister),
		code(0x01, 0x00, 0x01, 0x06, 0x07, 0xff, "MD kW Import Rate 7", "kW", ClassExtendedRegister),
		code(0x01, 0x00, 0x01, 0x06, 0x08, 0xff, "MD kW Import Rate 8", "kW", ClassExtendedRegister),
	}
	MDKVAImportRate = [8]Code{
		code(0x01, 0x00, 0x09, 0x06, 0x01, 0xff, "MD kVA Import Rate 1", "kVA", ClassExtendedRegister),
		code(0x01, 0x00, 0x09, 0x06, 0x02, 0xff, "MD kVA Import Rate 2", "kVA", ClassExtendedRegister),
		code(0x01, 0x00, 0x09, 0x06, 0x03, 0xff, "MD kVA Import Rate 3", "kVA", ClassExtendedRegister),
		code(0x01, 0x00, 0x09, 0x06, 0x04, 0xff, "MD kVA Import Rate 4", "kVA", ClassExtendedRegister),
		code(0x01, 0x00, 0x09, 0x06, 0x05, 0xff, "MD kVA Import Rate 5", "kVA", ClassExtendedRegister),
		code(0x01, 0x00, 0x09, 0x06, 0x06, 0xff, "MD kVA Import Rate 6", "kVA", ClassExtendedRegister),
		code(0x01, 0x00, 0x09, 0x06, 0x07, 0xff, "MD kVA Import Rate 7", "kVA", ClassExtendedRegister),
		code(0x01, 0x00, 0x09, 0x06, 0x08, 0xff, "MD kVA Import Rate 8", "kVA", ClassExtendedRegister),
	}
)

// Instantaneous values
var (
	VoltageR = code(0x01, 0x00, 0x20, 0x07, 0x00, 0xff, "Voltage Phase R", "V", ClassRegister)
	VoltageY = code(0x01, 0x00, 0x34, 0x07, 0x00, 0xff, "Voltage Phase Y", "V", ClassRegister)
	VoltageB = code(0x01, 0x00, 0x48, 0x07, 0x00, 0xff, "Voltage Phase B", "V", ClassRegister)

	CurrentR       = code(0x01, 0x00, 0x1f, 0x07, 0x00, 0xff, "Current Phase R", "A", ClassRegister)
	CurrentY       = code(0x01, 0x00, 0x33, 0x07, 0x00, 0xff, "Current Phase Y", "A", ClassRegister)
	CurrentB       = code(0x01, 0x00, 0x47, 0x07, 0x00, 0xff, "Current Phase B", "A", ClassRegister)
	CurrentNeutral = code(0x01, 0x00, 0x5b, 0x07, 0x00, 0xff, "Current Neutral", "A", ClassRegister)

	PowerFactor = code(0x01, 0x00, 0x0d, 0x07, 0x00, 0xff, "Power Factor", "", ClassRegister)
	Frequency   = code(0x01, 0x00, 0x0e, 0x07, 0x00, 0xff, "Frequency", "Hz", ClassRegister)
)

// Configuration
var MultiplicationFactor = code(0x01, 0x00, 0x00, 0x04, 0x03, 0xff, "Multiplication Factor", "", ClassData)

var registry = func() map[string]Code {
	m := make(map[string]Code)
	for _, c := range All() {
		m[c.Name] = c
	}
	return m
}()

// ByName returns the catalogue entry with the given display name.
func ByName(name string) (Code, bool) {
	c, ok := registry[name]
	return c, ok
}

// All enumerates the catalogue: identification, energy totals, maximum
// demand, instantaneous values and the multiplication factor, then the
// per-rate registers grouped rate by rate.
func All() []Code {
	all := []Code{
		MeterSerialNumber, MeterManufacturer, MeterType,
		KWhImport, KVAhImport, KWhExport, KVAhExport, KVArhLag, KVArhLead,
		MDKWImport, MDKVAImport, MDKWExport, MDKVAExport,
		VoltageR, VoltageY, VoltageB,
		CurrentR, CurrentY, CurrentB, CurrentNeutral,
		PowerFactor, Frequency,
		MultiplicationFactor,
	}
	for i := range KWhImportRate {
		all = append(all, KWhImportRate[i], KVAhImportRate[i], MDKWImportRate[i], MDKVAImportRate[i])
	}
	return all
}
