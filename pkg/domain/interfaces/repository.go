package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Subject() SubjectRepository
	Profile() ProfileRepository
	Document() DocumentRepository
	Audit() AuditRepository

	Close() error
}
