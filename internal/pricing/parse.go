package pricing

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAmount parses a user-entered monetary or percentage value, accepting
// both '.' and ',' as the decimal separator.
func ParseAmount(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("pricing: parse amount %q: %w", raw, err)
	}
	return v, nil
}

// ParseQuantity parses a quantity field. Decimal input is tolerated while
// typing but truncated to a whole number; the result must be positive.
func ParseQuantity(raw string) (int, error) {
	v, err := ParseAmount(raw)
	if err != nil {
		return 0, err
	}
	qty := int(v)
	if qty <= 0 {
		return 0, fmt.Errorf("pricing: quantity must be positive, got %q", raw)
	}
	return qty, nil
}
