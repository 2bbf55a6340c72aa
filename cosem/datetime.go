package cosem

import (
	"fmt"
	"time"
)

// DateTime is the COSEM date-time: year, month, day, weekday, hour, minute,
// second, hundredths, deviation (minutes from UTC) and clock status. Fields
// a meter marks "not specified" (0xff, year 0xffff) are normalised at
// decode time: year 0, month 1, day 1, hour, minute and second 0. Day of
// week and hundredths are kept as sent.
type DateTime struct {
	Year       uint16
	Month      byte
	Day        byte
	DayOfWeek  byte
	Hour       byte
	Minute     byte
	Second     byte
	Hundredths byte
	Deviation  int16
	Status     byte
}

// DecodeDateTime decodes the wire representation. Full encoding is 12
// bytes; some meters truncate the trailing deviation/status, so anything
// from year through minute (7 bytes) is accepted and missing trailing
// fields read as zero.
func DecodeDateTime(src []byte) (DateTime, error) {
	if len(src) < 7 {
		return DateTime{}, fmt.Errorf("date-time needs at least 7 bytes, got %d", len(src))
	}
	dt := DateTime{
		Year:      uint16(src[0])<<8 | uint16(src[1]),
		Month:     src[2],
		Day:       src[3],
		DayOfWeek: src[4],
		Hour:      src[5],
		Minute:    src[6],
	}
	if len(src) > 7 {
		dt.Second = src[7]
	}
	if len(src) > 8 {
		dt.Hundredths = src[8]
	}
	if len(src) > 10 {
		dt.Deviation = int16(src[9])<<8 | int16(src[10])
	}
	if len(src) > 11 {
		dt.Status = src[11]
	}
	if dt.Year == 0xffff {
		dt.Year = 0
	}
	if dt.Month == 0xff {
		dt.Month = 1
	}
	if dt.Day == 0xff {
		dt.Day = 1
	}
	if dt.Hour == 0xff {
		dt.Hour = 0
	}
	if dt.Minute == 0xff {
		dt.Minute = 0
	}
	if dt.Second == 0xff {
		dt.Second = 0
	}
	return dt, nil
}

// String renders the local date-time as YYYY-MM-DD HH:MM:SS.
func (dt DateTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
		dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second)
}

// FormatTimestamp renders a host time the same way the meter capture times
// are rendered.
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
