package memory

import (
	"github.com/route07/riskcore/pkg/domain/interfaces"
	"github.com/route07/riskcore/pkg/domain/types"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = types.ErrRecordNotFound

// Memory is the in-memory repository used for development and tests
type Memory struct {
	subject  *subjectRepository
	profile  *profileRepository
	document *documentRepository
	audit    *auditRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		subject:  newSubjectRepository(),
		profile:  newProfileRepository(),
		document: newDocumentRepository(),
		audit:    newAuditRepository(),
	}
}

func (m *Memory) Subject() interfaces.SubjectRepository {
	return m.subject
}

func (m *Memory) Profile() interfaces.ProfileRepository {
	return m.profile
}

func (m *Memory) Document() interfaces.DocumentRepository {
	return m.document
}

func (m *Memory) Audit() interfaces.AuditRepository {
	return m.audit
}

func (m *Memory) Close() error {
	return nil
}
