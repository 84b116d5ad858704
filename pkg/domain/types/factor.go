package types

import "github.com/m-mizutani/goerr/v2"

// FactorType is the closed set of risk factor categories. Scoring and
// reporting logic switch on these values exhaustively instead of matching
// free-form strings.
type FactorType string

const (
	FactorTypeIdentity        FactorType = "identity"
	FactorTypeIndustry        FactorType = "industry"
	FactorTypeNetwork         FactorType = "network"
	FactorTypeSecurity        FactorType = "security"
	FactorTypeDocumentFraud   FactorType = "document_fraud"
	FactorTypeLegalRegulatory FactorType = "legal_regulatory"
	FactorTypeAdverseMedia    FactorType = "adverse_media"
	FactorTypeSanctions       FactorType = "sanctions"
	FactorTypeDataBreach      FactorType = "data_breach"
)

// IsValid checks if the factor type is valid
func (t FactorType) IsValid() bool {
	switch t {
	case FactorTypeIdentity,
		FactorTypeIndustry,
		FactorTypeNetwork,
		FactorTypeSecurity,
		FactorTypeDocumentFraud,
		FactorTypeLegalRegulatory,
		FactorTypeAdverseMedia,
		FactorTypeSanctions,
		FactorTypeDataBreach:
		return true
	default:
		return false
	}
}

// String returns the string representation of the factor type
func (t FactorType) String() string {
	return string(t)
}

// FactorSource identifies which provider contributed a risk factor
type FactorSource string

const (
	FactorSourceAIAnalysis       FactorSource = "ai_analysis"
	FactorSourceDocumentAnalysis FactorSource = "document_analysis"
	FactorSourceWebIntelligence  FactorSource = "web_intelligence"
	FactorSourceSanctionsMatch   FactorSource = "sanctions_match"
	FactorSourceDataBreach       FactorSource = "data_breach"
)

// IsValid checks if the factor source is valid
func (s FactorSource) IsValid() bool {
	switch s {
	case FactorSourceAIAnalysis,
		FactorSourceDocumentAnalysis,
		FactorSourceWebIntelligence,
		FactorSourceSanctionsMatch,
		FactorSourceDataBreach:
		return true
	default:
		return false
	}
}

// String returns the string representation of the factor source
func (s FactorSource) String() string {
	return string(s)
}

// ParseFactorType parses a string into a FactorType
func ParseFactorType(s string) (FactorType, error) {
	t := FactorType(s)
	if !t.IsValid() {
		return "", goerr.New("invalid factor type", goerr.V("value", s))
	}
	return t, nil
}
