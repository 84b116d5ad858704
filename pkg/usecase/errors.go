package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Not found errors
	ErrSubjectNotFound = errors.New("subject not found")

	// Configuration errors
	ErrNoDocumentAnalyzer = errors.New("document analyzer is not configured")
)

// Context keys for error values
const (
	SubjectIDKey = "subject_id"
)
