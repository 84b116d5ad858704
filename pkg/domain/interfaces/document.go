package interfaces

import (
	"context"

	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
)

type DocumentRepository interface {
	// ListBySubject retrieves all documents uploaded for a subject
	ListBySubject(ctx context.Context, subjectID types.SubjectID) ([]*model.Document, error)

	// Put stores a document record
	Put(ctx context.Context, doc *model.Document) error

	// AttachAnalysis appends the AI analysis annotation onto an existing
	// document record. The document itself is never rewritten.
	AttachAnalysis(ctx context.Context, docID types.DocumentID, analysis *model.DocumentAnalysis) error
}
