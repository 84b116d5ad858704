package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
)

type documentRepository struct {
	mu        sync.RWMutex
	documents map[types.DocumentID]*model.Document
}

func newDocumentRepository() *documentRepository {
	return &documentRepository{
		documents: make(map[types.DocumentID]*model.Document),
	}
}

func copyDocument(d *model.Document) *model.Document {
	copied := *d
	if d.AIAnalysis != nil {
		analysis := *d.AIAnalysis
		copied.AIAnalysis = &analysis
	}
	return &copied
}

func (r *documentRepository) ListBySubject(ctx context.Context, subjectID types.SubjectID) ([]*model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var docs []*model.Document
	for _, doc := range r.documents {
		if doc.SubjectID == subjectID {
			docs = append(docs, copyDocument(doc))
		}
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].ID < docs[j].ID
	})

	return docs, nil
}

func (r *documentRepository) Put(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		return goerr.New("document ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.documents[doc.ID] = copyDocument(doc)
	return nil
}

func (r *documentRepository) AttachAnalysis(ctx context.Context, docID types.DocumentID, analysis *model.DocumentAnalysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, exists := r.documents[docID]
	if !exists {
		return goerr.Wrap(ErrNotFound, "document not found", goerr.V("id", docID))
	}

	copied := *analysis
	doc.AIAnalysis = &copied
	return nil
}
