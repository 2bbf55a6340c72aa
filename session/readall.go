package session

import (
	"fmt"
	"time"

	"github.com/sahasra-iot/meterlink/base"
	"github.com/sahasra-iot/meterlink/cosem"
	"github.com/sahasra-iot/meterlink/meterdata"
	"github.com/sahasra-iot/meterlink/obis"
)

// readString fetches attribute 2 of a class 1 object as text.
func (s *Session) readString(code obis.Code) (string, error) {
	raw, err := s.readAttribute(code, 2)
	if err != nil {
		return "", err
	}
	data, _, err := cosem.Decode(raw)
	if err != nil {
		return "", err
	}
	v, ok := data.Text()
	if !ok {
		return "", fmt.Errorf("%w: %s attribute 2 tag 0x%02x", base.ErrUnsupportedDataType, code.Name, byte(data.Tag))
	}
	return v, nil
}

// readNumber runs the per-class attribute sequence of one object: an
// attribute 1 probe, attribute 2 for the raw value, attribute 3 for
// scaler/unit on registers and attribute 5 for the capture time on
// extended registers. Scaler or capture-time failures degrade gracefully,
// a failed probe or value read does not.
func (s *Session) readNumber(code obis.Code) (float64, string, error) {
	if _, err := s.readAttribute(code, 1); err != nil {
		return 0, "", err
	}
	s.pause()

	raw, err := s.readAttribute(code, 2)
	if err != nil {
		return 0, "", err
	}
	data, _, err := cosem.Decode(raw)
	if err != nil {
		return 0, "", err
	}
	value, ok := data.Float()
	if !ok {
		return 0, "", fmt.Errorf("%w: %s attribute 2 tag 0x%02x", base.ErrUnsupportedDataType, code.Name, byte(data.Tag))
	}

	if code.ClassID == obis.ClassRegister || code.ClassID == obis.ClassExtendedRegister {
		s.pause()
		if raw, err := s.readAttribute(code, 3); err == nil {
			if su, err := scalerUnit(raw); err == nil {
				value = su.Apply(value)
				s.dlogf("%s scaler %s", code.Name, su)
			} else {
				s.warnf("%s: scaler ignored: %v", code.Name, err)
			}
		} else {
			s.warnf("%s: scaler read failed, keeping raw value: %v", code.Name, err)
		}
	}

	timestamp := ""
	if code.ClassID == obis.ClassExtendedRegister {
		s.pause()
		if raw, err := s.readAttribute(code, 5); err == nil {
			if dt, err := captureTime(raw); err == nil {
				timestamp = dt.String()
			} else {
				s.warnf("%s: capture time ignored: %v", code.Name, err)
			}
		} else {
			s.warnf("%s: capture time read failed: %v", code.Name, err)
		}
	}
	return value, timestamp, nil
}

func scalerUnit(raw []byte) (cosem.ScalerUnit, error) {
	data, _, err := cosem.Decode(raw)
	if err != nil {
		return cosem.ScalerUnit{}, err
	}
	return cosem.DecodeScalerUnit(data)
}

func captureTime(raw []byte) (cosem.DateTime, error) {
	data, _, err := cosem.Decode(raw)
	if err != nil {
		return cosem.DateTime{}, err
	}
	switch v := data.Value.(type) {
	case cosem.DateTime:
		return v, nil
	case []byte:
		return cosem.DecodeDateTime(v)
	}
	return cosem.DateTime{}, fmt.Errorf("%w: capture time tag 0x%02x", base.ErrUnsupportedDataType, byte(data.Tag))
}

// ReadAll populates rec with a full reading. Individual object failures
// are logged, counted on the record and skipped; the meter type and
// multiplication factor reads are optional and their failures are not
// counted (the factor stays 1). The pass only errors out
// when the association is missing or the essential registers (identity
// plus one energy total) could not be read.
func (s *Session) ReadAll(rec *meterdata.Record) error {
	if s.state != Associated {
		return fmt.Errorf("%w: state %s", base.ErrNotAssociated, s.state)
	}
	s.state = Reading
	defer func() {
		if s.state == Reading {
			s.state = Associated
		}
	}()

	rec.Clear()
	s.logf("reading meter")

	idOK := false
	if v, err := s.readString(obis.MeterSerialNumber); err == nil {
		rec.SerialNumber = v
		idOK = true
	} else {
		s.warnf("serial number: %v", err)
		rec.ErrorCount++
	}
	s.pause()
	if v, err := s.readString(obis.MeterManufacturer); err == nil {
		rec.Manufacturer = v
	} else {
		s.warnf("manufacturer: %v", err)
		rec.ErrorCount++
	}
	s.pause()
	if v, err := s.readString(obis.MeterType); err == nil {
		rec.MeterType = v
	} else {
		s.dlogf("meter type: %v", err)
	}
	s.pause()
	if v, _, err := s.readNumber(obis.MultiplicationFactor); err == nil && v > 0 {
		rec.MultiplicationFactor = v
	}
	s.pause()

	energyOK := false
	number := func(dst *float64, code obis.Code) {
		v, _, err := s.readNumber(code)
		if err != nil {
			s.warnf("%s: %v", code.Name, err)
			rec.ErrorCount++
			return
		}
		*dst = v
		s.pause()
	}
	energy := func(dst *float64, code obis.Code) {
		v, _, err := s.readNumber(code)
		if err != nil {
			s.warnf("%s: %v", code.Name, err)
			rec.ErrorCount++
			return
		}
		*dst = v
		energyOK = true
		s.pause()
	}
	demand := func(dst *meterdata.MaximumDemand, code obis.Code) {
		v, ts, err := s.readNumber(code)
		if err != nil {
			s.warnf("%s: %v", code.Name, err)
			rec.ErrorCount++
			return
		}
		dst.Value = v
		dst.Timestamp = ts
		s.pause()
	}

	energy(&rec.KWhImport, obis.KWhImport)
	energy(&rec.KVAhImport, obis.KVAhImport)
	energy(&rec.KWhExport, obis.KWhExport)
	energy(&rec.KVAhExport, obis.KVAhExport)
	energy(&rec.KVArhLag, obis.KVArhLag)
	energy(&rec.KVArhLead, obis.KVArhLead)

	demand(&rec.MDKWImport, obis.MDKWImport)
	demand(&rec.MDKVAImport, obis.MDKVAImport)
	demand(&rec.MDKWExport, obis.MDKWExport)
	demand(&rec.MDKVAExport, obis.MDKVAExport)

	number(&rec.VoltageR, obis.VoltageR)
	number(&rec.VoltageY, obis.VoltageY)
	number(&rec.VoltageB, obis.VoltageB)
	number(&rec.CurrentR, obis.CurrentR)
	number(&rec.CurrentY, obis.CurrentY)
	number(&rec.CurrentB, obis.CurrentB)
	number(&rec.CurrentNeutral, obis.CurrentNeutral)
	number(&rec.PowerFactor, obis.PowerFactor)
	number(&rec.Frequency, obis.Frequency)

	for i := 0; i < 4; i++ {
		zone := &rec.TODZones[i]
		number(&zone.KWh, obis.KWhImportRate[i])
		number(&zone.KVAh, obis.KVAhImportRate[i])
		if v, ts, err := s.readNumber(obis.MDKWImportRate[i]); err == nil {
			zone.MDKW = v
			zone.MDKWTimestamp = ts
			s.pause()
		} else {
			s.warnf("%s: %v", obis.MDKWImportRate[i].Name, err)
			rec.ErrorCount++
		}
		if v, ts, err := s.readNumber(obis.MDKVAImportRate[i]); err == nil {
			zone.MDKVA = v
			zone.MDKVATimestamp = ts
			s.pause()
		} else {
			s.warnf("%s: %v", obis.MDKVAImportRate[i].Name, err)
			rec.ErrorCount++
		}
	}

	rec.Timestamp = cosem.FormatTimestamp(time.Now())
	rec.Valid = idOK && energyOK
	s.logf("read complete, %d errors", rec.ErrorCount)
	if !rec.Valid {
		return fmt.Errorf("essential registers missing: %w", base.ErrReadFailed)
	}
	return nil
}
