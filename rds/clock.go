package rds

import (
	"fmt"
	"time"
)

// mjdEpoch is day 0 of the Modified Julian Day count.
var mjdEpoch = time.Date(1858, time.November, 17, 0, 0, 0, 0, time.UTC)

// ClockTime is the content of a type 4A group. Hour and Minute are UTC,
// the local offset is in half hours.
type ClockTime struct {
	MJD             uint32 // 17 bits
	Hour            uint8
	Minute          uint8
	OffsetHalfHours uint8
	OffsetNegative  bool
}

// Block B carries the two high bits of the MJD, block C the other fifteen
// and the high bit of the hour, block D the rest.
func decodeClock(b, c, d uint16) ClockTime {
	return ClockTime{
		MJD:             uint32(b&0x3)<<15 | uint32(c>>1),
		Hour:            uint8((c&0x1)<<4 | d>>12),
		Minute:          uint8((d >> 6) & 0x3F),
		OffsetNegative:  (d>>5)&0x1 == 1,
		OffsetHalfHours: uint8(d & 0x1F),
	}
}

// Valid reports whether the hour and minute are in range.
func (c ClockTime) Valid() bool {
	return c.Hour < 24 && c.Minute < 60
}

// Offset is the local time offset from UTC.
func (c ClockTime) Offset() time.Duration {
	off := time.Duration(c.OffsetHalfHours) * 30 * time.Minute
	if c.OffsetNegative {
		return -off
	}
	return off
}

// UTC returns the broadcast time in UTC.
func (c ClockTime) UTC() time.Time {
	return mjdEpoch.AddDate(0, 0, int(c.MJD)).
		Add(time.Duration(c.Hour)*time.Hour + time.Duration(c.Minute)*time.Minute)
}

// Local returns the broadcast time in the station's local offset.
func (c ClockTime) Local() time.Time {
	return c.UTC().In(time.FixedZone("RDS", int(c.Offset().Seconds())))
}

func (c ClockTime) String() string {
	sign := '+'
	if c.OffsetNegative {
		sign = '-'
	}
	l := c.Local()
	return fmt.Sprintf("%s %02d:%02d (UTC%c%02d:%02d)",
		l.Format("2006-01-02"), l.Hour(), l.Minute(),
		sign, c.OffsetHalfHours/2, (c.OffsetHalfHours%2)*30)
}
