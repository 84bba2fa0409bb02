package common

import (
	"fmt"
	"strconv"
	"strings"

	gethcommon "github.com/ethereum/go-ethereum/common"
)

// TrimHexPrefix removes a single leading "0x" or "0X" from s.
// Example: TrimHexPrefix("0xabcd") = "abcd"
func TrimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// WithHexPrefix returns s with exactly one "0x" prefix.
func WithHexPrefix(s string) string {
	return "0x" + TrimHexPrefix(s)
}

// ParseAddress parses a checksummed or lower-case hex address.
func ParseAddress(s string) (gethcommon.Address, error) {
	s = strings.TrimSpace(s)
	if !gethcommon.IsHexAddress(s) {
		return gethcommon.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return gethcommon.HexToAddress(s), nil
}

// FormatUint renders an optional plaintext value; nil means "not available".
func FormatUint(v *uint64, unavailable string) string {
	if v == nil {
		return unavailable
	}
	return strconv.FormatUint(*v, 10)
}

// ShortHex abbreviates long hex strings for logs: 0x1234…abcd
func ShortHex(s string) string {
	if len(s) <= 14 {
		return s
	}
	return s[:6] + "…" + s[len(s)-4:]
}
