package parse

import (
	"regexp"
	"strings"

	"widtech.dev/atfrp/at"
)

// FRPStatus is the factory reset protection state reported by AT+REACTIVE.
type FRPStatus string

const (
	FRPUnlocked FRPStatus = "UNLOCK"
	FRPLocked   FRPStatus = "LOCK"
	FRPTrigger  FRPStatus = "TRIGGER" // trigger pending
	// FRPTriggered is a protection event that has fired.
	FRPTriggered FRPStatus = "TRIGGERED"
	FRPUnknown   FRPStatus = Unknown
)

var frpStatusRe = regexp.MustCompile(regexp.QuoteMeta(at.MarkerReactive) + `(.*)\r\n`)

// Critical reports whether the status needs operator attention.
func (s FRPStatus) Critical() bool {
	return s == FRPTrigger || s == FRPTriggered
}

// Known reports whether s belongs to the closed set of device statuses.
func (s FRPStatus) Known() bool {
	switch s {
	case FRPUnlocked, FRPLocked, FRPTrigger, FRPTriggered:
		return true
	}
	return false
}

func (s FRPStatus) String() string {
	return string(s)
}

// ParseFRPStatus extracts the status from a "REACTIVE:1,<status>\r\n" line.
// The second return value is false when the line is absent or the status is
// outside the known set; the status is then FRPUnknown.
func ParseFRPStatus(text string) (FRPStatus, bool) {
	m := frpStatusRe.FindStringSubmatch(text)
	if m == nil {
		return FRPUnknown, false
	}
	status := FRPStatus(strings.TrimSpace(m[1]))
	if !status.Known() {
		return FRPUnknown, false
	}
	return status, true
}
