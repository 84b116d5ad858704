package scoring

import (
	"fmt"
	"time"

	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
)

func dimensionFactorType(d types.Dimension) types.FactorType {
	switch d {
	case types.DimensionIdentity:
		return types.FactorTypeIdentity
	case types.DimensionIndustry:
		return types.FactorTypeIndustry
	case types.DimensionNetwork:
		return types.FactorTypeNetwork
	default:
		return types.FactorTypeSecurity
	}
}

// DeriveFactors merges the run's findings into one ordered risk factor list:
// AI dimension factors first, then web-intelligence indicators, then
// document fraud indicators. The order is part of the audit contract.
func DeriveFactors(dimensions []model.DimensionScore, bundle *model.IntelBundle, now time.Time) []model.RiskFactor {
	now = now.UTC()
	var factors []model.RiskFactor

	for _, d := range dimensions {
		for _, label := range d.Factors {
			factors = append(factors, model.RiskFactor{
				ID:          types.NewFactorID(),
				Type:        dimensionFactorType(d.Dimension),
				Description: label,
				Severity:    d.Level,
				Source:      types.FactorSourceAIAnalysis,
				CreatedAt:   now,
			})
		}
	}

	for _, f := range bundle.WebIntel.Findings {
		factorType := f.Category
		if !factorType.IsValid() {
			factorType = types.FactorTypeAdverseMedia
		}
		factors = append(factors, model.RiskFactor{
			ID:          types.NewFactorID(),
			Type:        factorType,
			Description: f.Title,
			Severity:    f.Severity,
			Source:      types.FactorSourceWebIntelligence,
			CreatedAt:   now,
		})
	}

	for _, h := range bundle.Sanctions.Hits {
		severity := types.RiskLevelHigh
		if h.ExactMatch {
			severity = types.RiskLevelCritical
		}
		factors = append(factors, model.RiskFactor{
			ID:          types.NewFactorID(),
			Type:        types.FactorTypeSanctions,
			Description: fmt.Sprintf("listed on %s as %q", h.ListName, h.MatchedName),
			Severity:    severity,
			Source:      types.FactorSourceSanctionsMatch,
			CreatedAt:   now,
		})
	}

	for _, b := range bundle.Breaches.Breaches {
		severity := types.RiskLevelMedium
		if b.Confirmed {
			severity = types.RiskLevelHigh
		}
		factors = append(factors, model.RiskFactor{
			ID:          types.NewFactorID(),
			Type:        types.FactorTypeDataBreach,
			Description: fmt.Sprintf("credentials exposed in %s breach", b.Name),
			Severity:    severity,
			Source:      types.FactorSourceDataBreach,
			CreatedAt:   now,
		})
	}

	for _, finding := range bundle.Documents {
		if finding.Analysis == nil {
			continue
		}
		for _, indicator := range finding.Analysis.FraudIndicators {
			factors = append(factors, model.RiskFactor{
				ID:          types.NewFactorID(),
				Type:        types.FactorTypeDocumentFraud,
				Description: indicator,
				Severity:    types.RiskLevelHigh,
				Source:      types.FactorSourceDocumentAnalysis,
				CreatedAt:   now,
			})
		}
	}

	return factors
}
