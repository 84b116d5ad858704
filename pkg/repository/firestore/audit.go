package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/route07/riskcore/pkg/domain/model"
	"github.com/route07/riskcore/pkg/domain/types"
	"google.golang.org/api/iterator"
)

type auditEventDocument struct {
	ID              string         `firestore:"id"`
	SubjectID       string         `firestore:"subject_id"`
	DimensionScores map[string]int `firestore:"dimension_scores"`
	AggregateScore  int            `firestore:"aggregate_score"`
	AggregateLevel  string         `firestore:"aggregate_level"`
	Confidence      int            `firestore:"confidence"`
	Sources         []string       `firestore:"sources"`
	Severity        string         `firestore:"severity"`
	CreatedAt       time.Time      `firestore:"created_at"`
}

func (d *auditEventDocument) toModel() *model.AuditEvent {
	scores := make(map[types.Dimension]int, len(d.DimensionScores))
	for k, v := range d.DimensionScores {
		scores[types.Dimension(k)] = v
	}
	return &model.AuditEvent{
		ID:              types.EventID(d.ID),
		SubjectID:       types.SubjectID(d.SubjectID),
		DimensionScores: scores,
		AggregateScore:  d.AggregateScore,
		AggregateLevel:  types.RiskLevel(d.AggregateLevel),
		Confidence:      d.Confidence,
		Sources:         d.Sources,
		Severity:        types.RiskLevel(d.Severity),
		CreatedAt:       d.CreatedAt,
	}
}

type auditRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newAuditRepository(client *firestore.Client) *auditRepository {
	return &auditRepository{client: client}
}

func (r *auditRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_audit_events"
	}
	return "audit_events"
}

// Append uses Create, not Set: an existing event is never overwritten.
func (r *auditRepository) Append(ctx context.Context, event *model.AuditEvent) error {
	if event.ID == "" {
		return goerr.New("audit event ID is required")
	}

	scores := make(map[string]int, len(event.DimensionScores))
	for k, v := range event.DimensionScores {
		scores[k.String()] = v
	}

	stored := &auditEventDocument{
		ID:              event.ID.String(),
		SubjectID:       event.SubjectID.String(),
		DimensionScores: scores,
		AggregateScore:  event.AggregateScore,
		AggregateLevel:  event.AggregateLevel.String(),
		Confidence:      event.Confidence,
		Sources:         event.Sources,
		Severity:        event.Severity.String(),
		CreatedAt:       event.CreatedAt,
	}

	_, err := r.client.Collection(r.collection()).Doc(event.ID.String()).Create(ctx, stored)
	if err != nil {
		return goerr.Wrap(err, "failed to append audit event", goerr.V("id", event.ID))
	}
	return nil
}

func (r *auditRepository) ListBySubject(ctx context.Context, subjectID types.SubjectID) ([]*model.AuditEvent, error) {
	iter := r.client.Collection(r.collection()).
		Where("subject_id", "==", subjectID.String()).
		OrderBy("created_at", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var events []*model.AuditEvent
	for {
		snapshot, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate audit events", goerr.V("subjectID", subjectID))
		}

		var doc auditEventDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode audit event")
		}
		events = append(events, doc.toModel())
	}

	return events, nil
}
