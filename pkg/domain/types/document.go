package types

// DocumentType classifies an uploaded evidence artifact
type DocumentType string

const (
	DocumentTypePassport       DocumentType = "passport"
	DocumentTypeDriversLicense DocumentType = "drivers_license"
	DocumentTypeNationalID     DocumentType = "national_id"
	DocumentTypeUtilityBill    DocumentType = "utility_bill"
	DocumentTypeBankStatement  DocumentType = "bank_statement"
	DocumentTypeOther          DocumentType = "other"
)

// IsValid checks if the document type is valid
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypePassport,
		DocumentTypeDriversLicense,
		DocumentTypeNationalID,
		DocumentTypeUtilityBill,
		DocumentTypeBankStatement,
		DocumentTypeOther:
		return true
	default:
		return false
	}
}

// String returns the string representation of the document type
func (t DocumentType) String() string {
	return string(t)
}

// VerificationStatus is the prior verification state of a document
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// String returns the string representation of the verification status
func (s VerificationStatus) String() string {
	return string(s)
}
