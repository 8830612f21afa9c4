package identifier

import "strings"

// InternalID is the 3-digit manufacturer number embedded in an EOI.
type InternalID string

// FallbackInternalID is used when gpInternalId has no "-<digits>" suffix.
const FallbackInternalID InternalID = "000"

// ParseInternalID takes the digits after the last hyphen of a composite id such
// as "GP-12" or "GPSC-312" and left-pads them to three digits. The second
// result is false, with FallbackInternalID, when the suffix is absent or not
// purely numeric.
func ParseInternalID(raw string) (InternalID, bool) {
	idx := strings.LastIndexByte(raw, '-')
	if idx < 0 {
		return FallbackInternalID, false
	}
	digits := raw[idx+1:]
	if digits == "" {
		return FallbackInternalID, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return FallbackInternalID, false
		}
	}
	if len(digits) < 3 {
		digits = strings.Repeat("0", 3-len(digits)) + digits
	}
	return InternalID(digits), true
}
