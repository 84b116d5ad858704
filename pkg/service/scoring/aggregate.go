package scoring

import (
	"math"

	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
)

// Aggregate computes the overall score as the arithmetic mean of the
// dimensional scores, rounded to nearest integer. The level comes from the
// same threshold function as every dimensional level.
func Aggregate(dimensions []model.DimensionScore) (int, types.RiskLevel) {
	if len(dimensions) == 0 {
		return 0, types.RiskLevelLow
	}

	sum := 0
	for _, d := range dimensions {
		sum += d.Score
	}
	score := int(math.Round(float64(sum) / float64(len(dimensions))))

	return score, types.LevelForScore(score)
}
