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

type dimensionDocument struct {
	Dimension string   `firestore:"dimension"`
	Score     int      `firestore:"score"`
	Level     string   `firestore:"level"`
	Factors   []string `firestore:"factors"`
	Reasoning string   `firestore:"reasoning"`
}

type factorDocument struct {
	ID          string    `firestore:"id"`
	Type        string    `firestore:"type"`
	Description string    `firestore:"description"`
	Severity    string    `firestore:"severity"`
	Source      string    `firestore:"source"`
	CreatedAt   time.Time `firestore:"created_at"`
}

type profileDocument struct {
	SubjectID      string             `firestore:"subject_id"`
	Identity       dimensionDocument  `firestore:"identity"`
	Industry       dimensionDocument  `firestore:"industry"`
	Network        dimensionDocument  `firestore:"network"`
	Security       dimensionDocument  `firestore:"security"`
	AggregateScore int                `firestore:"aggregate_score"`
	AggregateLevel string             `firestore:"aggregate_level"`
	Factors        []factorDocument   `firestore:"factors"`
	LastUpdated    time.Time          `firestore:"last_updated"`
}

func toDimensionDocument(d model.DimensionScore) dimensionDocument {
	return dimensionDocument{
		Dimension: d.Dimension.String(),
		Score:     d.Score,
		Level:     d.Level.String(),
		Factors:   d.Factors,
		Reasoning: d.Reasoning,
	}
}

func (d *dimensionDocument) toModel() model.DimensionScore {
	return model.DimensionScore{
		Dimension: types.Dimension(d.Dimension),
		Score:     d.Score,
		Level:     types.RiskLevel(d.Level),
		Factors:   d.Factors,
		Reasoning: d.Reasoning,
	}
}

func toFactorDocuments(factors []model.RiskFactor) []factorDocument {
	docs := make([]factorDocument, len(factors))
	for i, f := range factors {
		docs[i] = factorDocument{
			ID:          f.ID.String(),
			Type:        f.Type.String(),
			Description: f.Description,
			Severity:    f.Severity.String(),
			Source:      f.Source.String(),
			CreatedAt:   f.CreatedAt,
		}
	}
	return docs
}

func (d *profileDocument) toModel() *model.RiskProfile {
	factors := make([]model.RiskFactor, len(d.Factors))
	for i, f := range d.Factors {
		factors[i] = model.RiskFactor{
			ID:          types.FactorID(f.ID),
			Type:        types.FactorType(f.Type),
			Description: f.Description,
			Severity:    types.RiskLevel(f.Severity),
			Source:      types.FactorSource(f.Source),
			CreatedAt:   f.CreatedAt,
		}
	}

	return &model.RiskProfile{
		SubjectID:      types.SubjectID(d.SubjectID),
		Identity:       d.Identity.toModel(),
		Industry:       d.Industry.toModel(),
		Network:        d.Network.toModel(),
		Security:       d.Security.toModel(),
		AggregateScore: d.AggregateScore,
		AggregateLevel: types.RiskLevel(d.AggregateLevel),
		Factors:        factors,
		LastUpdated:    d.LastUpdated,
	}
}

type profileRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newProfileRepository(client *firestore.Client) *profileRepository {
	return &profileRepository{client: client}
}

func (r *profileRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_risk_profiles"
	}
	return "risk_profiles"
}

func (r *profileRepository) Get(ctx context.Context, subjectID types.SubjectID) (*model.RiskProfile, error) {
	snapshot, err := r.client.Collection(r.collection()).Doc(subjectID.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(types.ErrRecordNotFound, "risk profile not found", goerr.V("subjectID", subjectID))
		}
		return nil, goerr.Wrap(err, "failed to get risk profile", goerr.V("subjectID", subjectID))
	}

	var doc profileDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode risk profile", goerr.V("subjectID", subjectID))
	}

	return doc.toModel(), nil
}

// Upsert runs in a transaction: the read of the existing factor history and
// the write of the merged document are atomic, which gives the per-subject
// exclusivity the factor append requires.
func (r *profileRepository) Upsert(ctx context.Context, profile *model.RiskProfile, newFactors []model.RiskFactor) (*model.RiskProfile, error) {
	if err := profile.SubjectID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid subject ID")
	}

	ref := r.client.Collection(r.collection()).Doc(profile.SubjectID.String())

	var merged profileDocument
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snapshot, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to read existing profile")
		}

		var existingFactors []factorDocument
		if snapshot != nil && snapshot.Exists() {
			var existing profileDocument
			if err := snapshot.DataTo(&existing); err != nil {
				return goerr.Wrap(err, "failed to decode existing profile")
			}
			existingFactors = existing.Factors
		}

		lastUpdated := profile.LastUpdated
		if lastUpdated.IsZero() {
			lastUpdated = time.Now()
		}

		merged = profileDocument{
			SubjectID:      profile.SubjectID.String(),
			Identity:       toDimensionDocument(profile.Identity),
			Industry:       toDimensionDocument(profile.Industry),
			Network:        toDimensionDocument(profile.Network),
			Security:       toDimensionDocument(profile.Security),
			AggregateScore: profile.AggregateScore,
			AggregateLevel: profile.AggregateLevel.String(),
			Factors:        append(existingFactors, toFactorDocuments(newFactors)...),
			LastUpdated:    lastUpdated.UTC(),
		}

		return tx.Set(ref, &merged)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to upsert risk profile", goerr.V("subjectID", profile.SubjectID))
	}

	return merged.toModel(), nil
}

func (r *profileRepository) ListHighRisk(ctx context.Context, minScore int) ([]*model.RiskProfile, error) {
	iter := r.client.Collection(r.collection()).
		Where("aggregate_score", ">=", minScore).
		OrderBy("aggregate_score", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var profiles []*model.RiskProfile
	for {
		snapshot, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate risk profiles")
		}

		var doc profileDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode risk profile")
		}
		profiles = append(profiles, doc.toModel())
	}

	return profiles, nil
}
