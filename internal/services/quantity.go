package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseQuantity parses user-entered quantity text. Surrounding whitespace is
// ignored and a decimal comma is accepted ("2,5" == 2.5). Only plain decimal
// notation is allowed: hex floats and digit separators are rejected, as is
// anything that is not a finite number. Failures yield ErrInvalidQuantity.
func ParseQuantity(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if strings.ContainsAny(s, "xX_") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuantity, s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !isFinite(f) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuantity, s)
	}
	return f, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
