package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/route07/riskcore/pkg/domain/types"
)

func TestLevelForScore(t *testing.T) {
	tests := []struct {
		name  string
		score int
		want  types.RiskLevel
	}{
		{
			name:  "zero is low",
			score: 0,
			want:  types.RiskLevelLow,
		},
		{
			name:  "29 is low",
			score: 29,
			want:  types.RiskLevelLow,
		},
		{
			name:  "30 is medium",
			score: 30,
			want:  types.RiskLevelMedium,
		},
		{
			name:  "59 is medium",
			score: 59,
			want:  types.RiskLevelMedium,
		},
		{
			name:  "60 is high",
			score: 60,
			want:  types.RiskLevelHigh,
		},
		{
			name:  "79 is high",
			score: 79,
			want:  types.RiskLevelHigh,
		},
		{
			name:  "80 is critical",
			score: 80,
			want:  types.RiskLevelCritical,
		},
		{
			name:  "100 is critical",
			score: 100,
			want:  types.RiskLevelCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.V(t, types.LevelForScore(tt.score)).Equal(tt.want)
		})
	}
}

func TestRiskLevel_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		level types.RiskLevel
		want  bool
	}{
		{
			name:  "valid low",
			level: types.RiskLevelLow,
			want:  true,
		},
		{
			name:  "valid medium",
			level: types.RiskLevelMedium,
			want:  true,
		},
		{
			name:  "valid high",
			level: types.RiskLevelHigh,
			want:  true,
		},
		{
			name:  "valid critical",
			level: types.RiskLevelCritical,
			want:  true,
		},
		{
			name:  "invalid level",
			level: types.RiskLevel("SEVERE"),
			want:  false,
		},
		{
			name:  "lowercase is invalid",
			level: types.RiskLevel("high"),
			want:  false,
		},
		{
			name:  "empty level",
			level: types.RiskLevel(""),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.want {
				gt.B(t, tt.level.IsValid()).True()
			} else {
				gt.B(t, tt.level.IsValid()).False()
			}
		})
	}
}

func TestRiskLevel_AtLeast(t *testing.T) {
	levels := types.AllRiskLevels()
	gt.A(t, levels).Length(4)

	// Ranks strictly increase in declared order
	for i := 1; i < len(levels); i++ {
		gt.B(t, levels[i].Rank() > levels[i-1].Rank()).True()
	}

	gt.B(t, types.RiskLevelCritical.AtLeast(types.RiskLevelHigh)).True()
	gt.B(t, types.RiskLevelHigh.AtLeast(types.RiskLevelHigh)).True()
	gt.B(t, types.RiskLevelMedium.AtLeast(types.RiskLevelHigh)).False()
	gt.B(t, types.RiskLevelLow.AtLeast(types.RiskLevelLow)).True()
}

func TestParseRiskLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.RiskLevel
		wantErr bool
	}{
		{
			name:  "valid low",
			input: "LOW",
			want:  types.RiskLevelLow,
		},
		{
			name:  "valid medium",
			input: "MEDIUM",
			want:  types.RiskLevelMedium,
		},
		{
			name:  "valid high",
			input: "HIGH",
			want:  types.RiskLevelHigh,
		},
		{
			name:  "valid critical",
			input: "CRITICAL",
			want:  types.RiskLevelCritical,
		},
		{
			name:    "invalid level",
			input:   "EXTREME",
			wantErr: true,
		},
		{
			name:    "empty level",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParseRiskLevel(tt.input)
			if tt.wantErr {
				gt.Error(t, err)
			} else {
				gt.NoError(t, err)
				gt.V(t, got).Equal(tt.want)
			}
		})
	}
}
