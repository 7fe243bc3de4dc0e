package domain

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidUserTag is returned for tag uids that are not a hexadecimal uint64.
var ErrInvalidUserTag = errors.New("invalid user tag")

// ParseUserTagUID decodes the hexadecimal form printed on wristbands. An
// optional 0x prefix is accepted.
func ParseUserTagUID(raw string) (uint64, error) {
	s := strings.TrimSpace(raw)
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	if s == "" {
		return 0, ErrInvalidUserTag
	}
	uid, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, ErrInvalidUserTag
	}
	return uid, nil
}

// FormatUserTagUID renders uid in the upper-case hexadecimal wristband form.
func FormatUserTagUID(uid uint64) string {
	return strings.ToUpper(strconv.FormatUint(uid, 16))
}
