package types

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// SubjectID is the identifier of the individual or entity being assessed
type SubjectID string

// Validate checks if the SubjectID is valid
func (s SubjectID) Validate() error {
	if s == "" {
		return goerr.New("subject ID cannot be empty")
	}
	return nil
}

// String returns the string representation of SubjectID
func (s SubjectID) String() string {
	return string(s)
}

// DocumentID is the identifier of an uploaded evidence artifact
type DocumentID string

// String returns the string representation of DocumentID
func (d DocumentID) String() string {
	return string(d)
}

// FactorID is the identifier of one immutable risk factor record
type FactorID string

// NewFactorID issues a time-ordered factor ID
func NewFactorID() FactorID {
	return FactorID(uuid.Must(uuid.NewV7()).String())
}

// String returns the string representation of FactorID
func (f FactorID) String() string {
	return string(f)
}

// EventID is the identifier of one audit event
type EventID string

// NewEventID issues a time-ordered event ID
func NewEventID() EventID {
	return EventID(uuid.Must(uuid.NewV7()).String())
}

// String returns the string representation of EventID
func (e EventID) String() string {
	return string(e)
}
