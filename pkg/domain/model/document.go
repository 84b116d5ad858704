package model

import (
	"time"

	"github.com/route07/riskcore/pkg/domain/types"
)

// Document is one uploaded evidence artifact. The engine reads documents and
// appends an analysis annotation; it never creates or deletes them.
type Document struct {
	ID        types.DocumentID
	SubjectID types.SubjectID
	Type      types.DocumentType

	// StorageRef is an opaque reference into the document object store
	// (a GCS object name in the live deployment).
	StorageRef string

	// OCRData is the extracted text when OCR has already run. When empty the
	// analyzer fetches the raw object via StorageRef.
	OCRData string

	VerificationStatus types.VerificationStatus
	AIAnalysis         *DocumentAnalysis
	UploadedAt         time.Time
}

// DocumentAnalysis is the AI-produced annotation of one document
type DocumentAnalysis struct {
	DocumentID      types.DocumentID
	Summary         string
	FraudIndicators []string
	ExtractedName   string
	Confidence      float64
	AnalyzedAt      time.Time
}

// DocumentFinding is one fan-out slot of the per-document analysis stage.
// Exactly one of Analysis or Err is set.
type DocumentFinding struct {
	DocumentID types.DocumentID
	Analysis   *DocumentAnalysis
	Err        error
}
