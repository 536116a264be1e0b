package parse

import (
	"fmt"
	"time"
)

const (
	patchBaseYear = 2001
	// Year letters run from 'A' (2001) to 'X' (2024).
	patchLastYearLetter = 'X'
	// Month letters run from 'A' (January) to 'L' (December).
	patchLastMonthLetter = 'L'
)

// Patch is a security patch level decoded from a baseband version string.
type Patch struct {
	Year  int
	Month time.Month
}

func (p Patch) String() string {
	return fmt.Sprintf("%s %d", p.Month, p.Year)
}

// DecodePatch decodes the year and month letters found in the last three
// characters of a baseband version, for example "G991USQU5CVDB" where 'V'
// is the year and 'D' the month. The second return value is false when the
// version is Unknown, too short, or either letter is out of range. Letters
// must be uppercase.
func DecodePatch(version string) (Patch, bool) {
	if version == Unknown || len(version) < 3 {
		return Patch{}, false
	}
	tail := version[len(version)-3:]

	y, m := tail[0], tail[1]
	if y < 'A' || y > patchLastYearLetter {
		return Patch{}, false
	}
	if m < 'A' || m > patchLastMonthLetter {
		return Patch{}, false
	}
	return Patch{
		Year:  patchBaseYear + int(y-'A'),
		Month: time.January + time.Month(m-'A'),
	}, true
}
