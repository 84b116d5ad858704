package docanalysis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/route07/riskcore/pkg/domain/interfaces"
	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
	"github.com/route07/riskcore/pkg/metrics"
	"github.com/route07/riskcore/pkg/service/ratelimit"
	"github.com/route07/riskcore/pkg/utils/safe"
)

// maxDocumentBytes caps how much of a stored document is fed to the model
const maxDocumentBytes = 256 * 1024

// Analyzer implements interfaces.DocumentAnalyzer. It feeds a document's
// extracted text to the AI provider and returns the structured annotation.
// When a document carries no OCR text, the raw object is fetched from the
// document bucket instead.
type Analyzer struct {
	llmClient gollem.LLMClient
	limiter   *ratelimit.Limiter
	metrics   *metrics.Metrics
	bucket    *storage.BucketHandle
	timeout   time.Duration
}

var _ interfaces.DocumentAnalyzer = &Analyzer{}

// Option is a functional option for Analyzer configuration
type Option func(*Analyzer)

// WithTimeout bounds a single analysis call
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithMetrics records analysis call latencies
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

// WithBucket sets the object store bucket for documents without OCR text
func WithBucket(b *storage.BucketHandle) Option {
	return func(a *Analyzer) {
		a.bucket = b
	}
}

// New creates an Analyzer with the provided LLM client
func New(llmClient gollem.LLMClient, limiter *ratelimit.Limiter, opts ...Option) (*Analyzer, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	if limiter == nil {
		return nil, goerr.New("rate limiter is required")
	}

	a := &Analyzer{
		llmClient: llmClient,
		limiter:   limiter,
		timeout:   60 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

type analysisResponse struct {
	Summary         *string   `json:"summary"`
	FraudIndicators *[]string `json:"fraud_indicators"`
	ExtractedName   *string   `json:"extracted_name"`
	Confidence      *float64  `json:"confidence"`
}

// Analyze produces the AI annotation for one document. Unlike the intel
// adapters this returns its error: the orchestrator collects per-document
// failures into fan-out slots.
func (a *Analyzer) Analyze(ctx context.Context, doc *model.Document) (*model.DocumentAnalysis, error) {
	text, err := a.documentText(ctx, doc)
	if err != nil {
		return nil, err
	}

	if err := a.limiter.Acquire(ctx, types.ProviderDocAnalysis); err != nil {
		return nil, goerr.Wrap(err, "cancelled while waiting for document analysis budget")
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		a.metrics.ObserveFetchLatency(types.ProviderDocAnalysis.String(), time.Since(start))
	}()

	session, err := a.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(responseSchema()),
		gollem.WithSessionSystemPrompt(systemPrompt()),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create document analysis session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buildPrompt(doc, text)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to analyze document", goerr.V("documentID", doc.ID))
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.New("document analysis returned no content", goerr.V("documentID", doc.ID))
	}

	return parseResponse(doc.ID, resp.Texts[0], time.Now())
}

// documentText returns the OCR text, falling back to the stored object
func (a *Analyzer) documentText(ctx context.Context, doc *model.Document) (string, error) {
	if doc.OCRData != "" {
		return doc.OCRData, nil
	}
	if a.bucket == nil {
		return "", goerr.New("document has no OCR text and no bucket is configured",
			goerr.V("documentID", doc.ID))
	}

	r, err := a.bucket.Object(doc.StorageRef).NewReader(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to open stored document",
			goerr.V("documentID", doc.ID),
			goerr.V("storageRef", doc.StorageRef))
	}
	defer safe.Close(ctx, r)

	raw, err := io.ReadAll(io.LimitReader(r, maxDocumentBytes))
	if err != nil {
		return "", goerr.Wrap(err, "failed to read stored document", goerr.V("documentID", doc.ID))
	}
	return string(raw), nil
}

func parseResponse(docID types.DocumentID, raw string, now time.Time) (*model.DocumentAnalysis, error) {
	var parsed analysisResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, goerr.Wrap(err, "document analysis response is not valid JSON",
			goerr.V("documentID", docID))
	}
	if parsed.Summary == nil || parsed.FraudIndicators == nil || parsed.ExtractedName == nil || parsed.Confidence == nil {
		return nil, goerr.New("document analysis response is missing required fields",
			goerr.V("documentID", docID),
			goerr.V("response", raw))
	}

	confidence := *parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return &model.DocumentAnalysis{
		DocumentID:      docID,
		Summary:         *parsed.Summary,
		FraudIndicators: *parsed.FraudIndicators,
		ExtractedName:   *parsed.ExtractedName,
		Confidence:      confidence,
		AnalyzedAt:      now,
	}, nil
}

func systemPrompt() string {
	var sb strings.Builder

	sb.WriteString("You are a document verification analyst for a compliance onboarding system.\n\n")
	sb.WriteString("## Instructions:\n\n")
	sb.WriteString("1. Read the document text and summarize what the document attests.\n")
	sb.WriteString("2. List fraud indicators: inconsistent dates, template artifacts, mismatched fields, signs of tampering. Return an empty array when none.\n")
	sb.WriteString("3. Extract the primary holder name exactly as written, or an empty string.\n")
	sb.WriteString("4. Report your confidence in the document's authenticity as a number between 0 and 1.\n")
	sb.WriteString("5. Base every statement on the document text only.\n")

	return sb.String()
}

func buildPrompt(doc *model.Document, text string) string {
	var sb strings.Builder

	sb.WriteString("## Document\n\n")
	fmt.Fprintf(&sb, "Type: %s\n", doc.Type)
	fmt.Fprintf(&sb, "Verification status: %s\n\n", doc.VerificationStatus)
	sb.WriteString("## Text\n\n")
	sb.WriteString(text)

	return sb.String()
}

func responseSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Type:     gollem.TypeObject,
		Required: []string{"summary", "fraud_indicators", "extracted_name", "confidence"},
		Properties: map[string]*gollem.Parameter{
			"summary": {
				Type:        gollem.TypeString,
				Description: "One-paragraph summary of what the document attests",
			},
			"fraud_indicators": {
				Type:        gollem.TypeArray,
				Description: "Concrete signs of tampering or inconsistency, empty when none",
				Items:       &gollem.Parameter{Type: gollem.TypeString},
			},
			"extracted_name": {
				Type:        gollem.TypeString,
				Description: "Primary holder name exactly as written in the document",
			},
			"confidence": {
				Type:        gollem.TypeNumber,
				Description: "Authenticity confidence between 0 and 1",
			},
		},
	}
}
