package blame

import (
	"fmt"
	"time"
)

// ParseTZ converts a git timezone offset such as "+0900" or "-0530" into a
// fixed location named after the offset.
func ParseTZ(tz string) (*time.Location, error) {
	if len(tz) != 5 || (tz[0] != '+' && tz[0] != '-') {
		return nil, fmt.Errorf("invalid timezone offset %q", tz)
	}

	var digits [4]int
	for i := range digits {
		c := tz[i+1]
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("invalid timezone offset %q", tz)
		}
		digits[i] = int(c - '0')
	}

	hours := digits[0]*10 + digits[1]
	minutes := digits[2]*10 + digits[3]
	if minutes >= 60 {
		return nil, fmt.Errorf("invalid timezone offset %q: minutes out of range", tz)
	}

	offset := hours*3600 + minutes*60
	if tz[0] == '-' {
		offset = -offset
	}
	return time.FixedZone(tz, offset), nil
}
