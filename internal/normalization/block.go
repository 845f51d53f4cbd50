package normalization

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseBlockNumber parses a "0x"-prefixed hex block number, or a decimal one.
func ParseBlockNumber(s string) (int64, error) {
	s = strings.TrimSpace(s)

	var (
		v   int64
		err error
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = strconv.ParseInt(s[2:], 16, 64)
	} else {
		v, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidBlockNumber, s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidBlockNumber, s)
	}
	return v, nil
}
