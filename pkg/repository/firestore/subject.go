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

type subjectDocument struct {
	ID            string    `firestore:"id"`
	Name          string    `firestore:"name"`
	Email         string    `firestore:"email"`
	DateOfBirth   string    `firestore:"date_of_birth"`
	Nationality   string    `firestore:"nationality"`
	Address       string    `firestore:"address"`
	WalletAddress string    `firestore:"wallet_address"`
	RiskScore     int       `firestore:"risk_score"`
	RiskLevel     string    `firestore:"risk_level"`
	LastAssessed  time.Time `firestore:"last_assessed"`
}

func toSubjectDocument(s *model.Subject) *subjectDocument {
	return &subjectDocument{
		ID:            s.ID.String(),
		Name:          s.Name,
		Email:         s.Email,
		DateOfBirth:   s.DateOfBirth,
		Nationality:   s.Nationality,
		Address:       s.Address,
		WalletAddress: s.WalletAddress,
		RiskScore:     s.RiskScore,
		RiskLevel:     s.RiskLevel.String(),
		LastAssessed:  s.LastAssessed,
	}
}

func (d *subjectDocument) toModel() *model.Subject {
	return &model.Subject{
		ID:            types.SubjectID(d.ID),
		Name:          d.Name,
		Email:         d.Email,
		DateOfBirth:   d.DateOfBirth,
		Nationality:   d.Nationality,
		Address:       d.Address,
		WalletAddress: d.WalletAddress,
		RiskScore:     d.RiskScore,
		RiskLevel:     types.RiskLevel(d.RiskLevel),
		LastAssessed:  d.LastAssessed,
	}
}

type subjectRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newSubjectRepository(client *firestore.Client) *subjectRepository {
	return &subjectRepository{client: client}
}

func (r *subjectRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_subjects"
	}
	return "subjects"
}

func (r *subjectRepository) Get(ctx context.Context, id types.SubjectID) (*model.Subject, error) {
	snapshot, err := r.client.Collection(r.collection()).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(types.ErrRecordNotFound, "subject not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get subject", goerr.V("id", id))
	}

	var doc subjectDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode subject", goerr.V("id", id))
	}

	return doc.toModel(), nil
}

func (r *subjectRepository) Put(ctx context.Context, subject *model.Subject) error {
	if err := subject.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid subject ID")
	}

	_, err := r.client.Collection(r.collection()).Doc(subject.ID.String()).Set(ctx, toSubjectDocument(subject))
	if err != nil {
		return goerr.Wrap(err, "failed to put subject", goerr.V("id", subject.ID))
	}
	return nil
}

func (r *subjectRepository) ListPending(ctx context.Context, limit int) ([]*model.Subject, error) {
	query := r.client.Collection(r.collection()).
		Where("last_assessed", "==", time.Time{}).
		OrderBy("id", firestore.Asc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var subjects []*model.Subject
	for {
		snapshot, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate subjects")
		}

		var doc subjectDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode subject")
		}
		subjects = append(subjects, doc.toModel())
	}

	return subjects, nil
}

func (r *subjectRepository) UpdateRiskScore(ctx context.Context, id types.SubjectID, score int, level types.RiskLevel, assessedAt time.Time) error {
	_, err := r.client.Collection(r.collection()).Doc(id.String()).Update(ctx, []firestore.Update{
		{Path: "risk_score", Value: score},
		{Path: "risk_level", Value: level.String()},
		{Path: "last_assessed", Value: assessedAt.UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(types.ErrRecordNotFound, "subject not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to update subject risk score", goerr.V("id", id))
	}
	return nil
}
