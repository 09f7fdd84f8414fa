package enums

import (
	"fmt"
	"strings"
)

// SizeTier maps to the size_tier enum in Postgres.
type SizeTier string

const (
	SizeTierSmall  SizeTier = "small"
	SizeTierMedium SizeTier = "medium"
	SizeTierLarge  SizeTier = "large"
)

var validSizeTiers = []SizeTier{
	SizeTierSmall,
	SizeTierMedium,
	SizeTierLarge,
}

// SizeTiers returns the tiers in display order.
func SizeTiers() []SizeTier {
	out := make([]SizeTier, len(validSizeTiers))
	copy(out, validSizeTiers)
	return out
}

// String implements fmt.Stringer.
func (t SizeTier) String() string {
	return string(t)
}

// IsValid reports whether the value is a known SizeTier.
func (t SizeTier) IsValid() bool {
	for _, candidate := range validSizeTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// Rank orders tiers small < medium < large; unknown tiers sort last.
func (t SizeTier) Rank() int {
	for i, candidate := range validSizeTiers {
		if candidate == t {
			return i
		}
	}
	return len(validSizeTiers)
}

// ParseSizeTier converts raw input into a SizeTier. Input is matched case-insensitively.
func ParseSizeTier(value string) (SizeTier, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validSizeTiers {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid size tier %q", value)
}
