package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/route07/riskcore/pkg/domain/interfaces"
)

// Firestore is the Firestore-backed repository used in production
type Firestore struct {
	client   *firestore.Client
	subject  *subjectRepository
	profile  *profileRepository
	document *documentRepository
	audit    *auditRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix namespaces all collections, used by integration tests
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.subject.collectionPrefix = prefix
		f.profile.collectionPrefix = prefix
		f.document.collectionPrefix = prefix
		f.audit.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:   client,
		subject:  newSubjectRepository(client),
		profile:  newProfileRepository(client),
		document: newDocumentRepository(client),
		audit:    newAuditRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Subject() interfaces.SubjectRepository {
	return f.subject
}

func (f *Firestore) Profile() interfaces.ProfileRepository {
	return f.profile
}

func (f *Firestore) Document() interfaces.DocumentRepository {
	return f.document
}

func (f *Firestore) Audit() interfaces.AuditRepository {
	return f.audit
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
