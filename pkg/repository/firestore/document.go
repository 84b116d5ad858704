package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type analysisDocument struct {
	DocumentID      string    `firestore:"document_id"`
	Summary         string    `firestore:"summary"`
	FraudIndicators []string  `firestore:"fraud_indicators"`
	ExtractedName   string    `firestore:"extracted_name"`
	Confidence      float64   `firestore:"confidence"`
	AnalyzedAt      time.Time `firestore:"analyzed_at"`
}

type documentDocument struct {
	ID                 string            `firestore:"id"`
	SubjectID          string            `firestore:"subject_id"`
	Type               string            `firestore:"type"`
	StorageRef         string            `firestore:"storage_ref"`
	OCRData            string            `firestore:"ocr_data"`
	VerificationStatus string            `firestore:"verification_status"`
	AIAnalysis         *analysisDocument `firestore:"ai_analysis"`
	UploadedAt         time.Time         `firestore:"uploaded_at"`
}

func toAnalysisDocument(a *model.DocumentAnalysis) *analysisDocument {
	if a == nil {
		return nil
	}
	return &analysisDocument{
		DocumentID:      a.DocumentID.String(),
		Summary:         a.Summary,
		FraudIndicators: a.FraudIndicators,
		ExtractedName:   a.ExtractedName,
		Confidence:      a.Confidence,
		AnalyzedAt:      a.AnalyzedAt,
	}
}

func (d *documentDocument) toModel() *model.Document {
	doc := &model.Document{
		ID:                 types.DocumentID(d.ID),
		SubjectID:          types.SubjectID(d.SubjectID),
		Type:               types.DocumentType(d.Type),
		StorageRef:         d.StorageRef,
		OCRData:            d.OCRData,
		VerificationStatus: types.VerificationStatus(d.VerificationStatus),
		UploadedAt:         d.UploadedAt,
	}
	if d.AIAnalysis != nil {
		doc.AIAnalysis = &model.DocumentAnalysis{
			DocumentID:      types.DocumentID(d.AIAnalysis.DocumentID),
			Summary:         d.AIAnalysis.Summary,
			FraudIndicators: d.AIAnalysis.FraudIndicators,
			ExtractedName:   d.AIAnalysis.ExtractedName,
			Confidence:      d.AIAnalysis.Confidence,
			AnalyzedAt:      d.AIAnalysis.AnalyzedAt,
		}
	}
	return doc
}

type documentRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newDocumentRepository(client *firestore.Client) *documentRepository {
	return &documentRepository{client: client}
}

func (r *documentRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_documents"
	}
	return "documents"
}

func (r *documentRepository) ListBySubject(ctx context.Context, subjectID types.SubjectID) ([]*model.Document, error) {
	iter := r.client.Collection(r.collection()).
		Where("subject_id", "==", subjectID.String()).
		OrderBy("id", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var docs []*model.Document
	for {
		snapshot, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate documents", goerr.V("subjectID", subjectID))
		}

		var doc documentDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode document")
		}
		docs = append(docs, doc.toModel())
	}

	return docs, nil
}

func (r *documentRepository) Put(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		return goerr.New("document ID is required")
	}

	stored := &documentDocument{
		ID:                 doc.ID.String(),
		SubjectID:          doc.SubjectID.String(),
		Type:               doc.Type.String(),
		StorageRef:         doc.StorageRef,
		OCRData:            doc.OCRData,
		VerificationStatus: doc.VerificationStatus.String(),
		AIAnalysis:         toAnalysisDocument(doc.AIAnalysis),
		UploadedAt:         doc.UploadedAt,
	}

	_, err := r.client.Collection(r.collection()).Doc(doc.ID.String()).Set(ctx, stored)
	if err != nil {
		return goerr.Wrap(err, "failed to put document", goerr.V("id", doc.ID))
	}
	return nil
}

func (r *documentRepository) AttachAnalysis(ctx context.Context, docID types.DocumentID, analysis *model.DocumentAnalysis) error {
	_, err := r.client.Collection(r.collection()).Doc(docID.String()).Update(ctx, []firestore.Update{
		{Path: "ai_analysis", Value: toAnalysisDocument(analysis)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(types.ErrRecordNotFound, "document not found", goerr.V("id", docID))
		}
		return goerr.Wrap(err, "failed to attach analysis", goerr.V("id", docID))
	}
	return nil
}
