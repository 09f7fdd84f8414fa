package enums

import "fmt"

// WasteCause maps to the waste_cause enum in Postgres.
type WasteCause string

const (
	WasteCauseTransportBreakage WasteCause = "transport_breakage"
	WasteCauseOverbaked         WasteCause = "overbaked"
	WasteCauseDecorationDefect  WasteCause = "decoration_defect"
	WasteCauseExpired           WasteCause = "expired"
	WasteCauseContamination     WasteCause = "contamination"
	WasteCauseProductionError   WasteCause = "production_error"
	WasteCauseHandlingDamage    WasteCause = "handling_damage"
	WasteCauseOther             WasteCause = "other"
)

var validWasteCauses = []WasteCause{
	WasteCauseTransportBreakage,
	WasteCauseOverbaked,
	WasteCauseDecorationDefect,
	WasteCauseExpired,
	WasteCauseContamination,
	WasteCauseProductionError,
	WasteCauseHandlingDamage,
	WasteCauseOther,
}

// String implements fmt.Stringer.
func (c WasteCause) String() string {
	return string(c)
}

// IsValid reports whether the value is a known WasteCause.
func (c WasteCause) IsValid() bool {
	for _, candidate := range validWasteCauses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseWasteCause converts raw input into a WasteCause.
func ParseWasteCause(value string) (WasteCause, error) {
	for _, candidate := range validWasteCauses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid waste cause %q", value)
}
