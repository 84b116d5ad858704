package model

import (
	"time"

	"github.com/route07/riskcore/pkg/domain/types"
)

// Subject is the person or entity being assessed. Identity attributes are
// immutable for the duration of one assessment run and are owned by the
// user-profile collaborator; only the cached risk score is written back.
type Subject struct {
	ID          types.SubjectID
	Name        string
	Email       string `masq:"secret"`
	DateOfBirth string `masq:"secret"`
	Nationality string
	Address     string `masq:"secret"`

	// WalletAddress links the subject to an external ledger identity.
	// Empty when no wallet is linked; the mirror stage is skipped then.
	WalletAddress string

	// RiskScore is the cached aggregate score, updated after each run.
	RiskScore    int
	RiskLevel    types.RiskLevel
	LastAssessed time.Time
}

// Pending reports whether the subject has never been assessed
func (s *Subject) Pending() bool {
	return s.LastAssessed.IsZero()
}
