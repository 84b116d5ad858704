package types

import "github.com/m-mizutani/goerr/v2"

// Dimension is one of the four named risk axes
type Dimension string

const (
	DimensionIdentity Dimension = "identity"
	DimensionIndustry Dimension = "industry"
	DimensionNetwork  Dimension = "network"
	DimensionSecurity Dimension = "security"
)

// AllDimensions returns the four dimensions in their canonical order
func AllDimensions() []Dimension {
	return []Dimension{
		DimensionIdentity,
		DimensionIndustry,
		DimensionNetwork,
		DimensionSecurity,
	}
}

// IsValid checks if the dimension is valid
func (d Dimension) IsValid() bool {
	switch d {
	case DimensionIdentity,
		DimensionIndustry,
		DimensionNetwork,
		DimensionSecurity:
		return true
	default:
		return false
	}
}

// String returns the string representation of the dimension
func (d Dimension) String() string {
	return string(d)
}

// ParseDimension parses a string into a Dimension
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(s)
	if !d.IsValid() {
		return "", goerr.New("invalid risk dimension", goerr.V("value", s))
	}
	return d, nil
}
