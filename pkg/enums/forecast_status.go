package enums

import "fmt"

// ForecastStatus maps to the forecast_status enum in Postgres.
type ForecastStatus string

const (
	ForecastStatusPending ForecastStatus = "pending"
	ForecastStatusScored  ForecastStatus = "scored"
)

var validForecastStatuses = []ForecastStatus{
	ForecastStatusPending,
	ForecastStatusScored,
}

// IsValid reports whether the value matches the canonical forecast status enum.
func (s ForecastStatus) IsValid() bool {
	for _, candidate := range validForecastStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseForecastStatus converts raw input into ForecastStatus.
func ParseForecastStatus(value string) (ForecastStatus, error) {
	for _, candidate := range validForecastStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid forecast status %q", value)
}
