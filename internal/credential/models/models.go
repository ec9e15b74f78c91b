// Package models defines the credential record types shared across the
// issuance, verification, and revocation coordinators.
package models

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	id "vellum/pkg/domain"
	dErrors "vellum/pkg/domain-errors"
)

// ProofSize is the byte length of a binding proof digest.
const ProofSize = 32

// Proof is a fixed-length digest binding a stored artifact and its canonical
// metadata to a credential record. Serialized as a 0x-prefixed hex string.
type Proof []byte

func (p Proof) String() string {
	return "0x" + hex.EncodeToString(p)
}

func (p Proof) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Proof) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "proof is not valid hex")
	}
	*p = decoded
	return nil
}

// DegreeObject is the ledger-resident credential record. Once committed, the
// ledger owns it; every field except IsRevoked is immutable, and IsRevoked
// only ever transitions false to true.
type DegreeObject struct {
	ID        id.ObjectID       `json:"id"`
	StudentID id.SubjectID      `json:"student_id"`
	Issuer    id.AccountAddress `json:"issuer"`
	WalrusURI id.StorageRef     `json:"walrus_uri"`
	Proof     Proof             `json:"proof"`
	IssuedAt  time.Time         `json:"issued_at"`
	IsRevoked bool              `json:"is_revoked"`

	// Version is the ledger object version used for optimistic concurrency.
	// Not part of the credential itself.
	Version uint64 `json:"-"`
}

// DegreeMetadata is the off-chain record paired 1:1 with a DegreeObject by
// student ID. It is created in the same logical step as the ledger object and
// never mutated afterwards; correcting it means issuing a new credential and
// revoking the old one.
type DegreeMetadata struct {
	StudentID  id.SubjectID `json:"student_id"`
	FullName   string       `json:"full_name"`
	DegreeType string       `json:"degree_type"`
	Major      string       `json:"major"`
	IssuedDate string       `json:"issued_date"`
	Issuer     string       `json:"issuer"`
}

// Validate checks the required fields. The student ID is re-parsed so a
// metadata record arriving via JSON carries the same guarantees as one built
// from parsed identifiers.
func (m DegreeMetadata) Validate() error {
	if _, err := id.ParseSubjectID(m.StudentID.String()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid student_id")
	}
	if m.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "full_name is required")
	}
	if m.DegreeType == "" {
		return dErrors.New(dErrors.CodeValidation, "degree_type is required")
	}
	if m.Major == "" {
		return dErrors.New(dErrors.CodeValidation, "major is required")
	}
	if m.Issuer == "" {
		return dErrors.New(dErrors.CodeValidation, "issuer is required")
	}
	if m.IssuedDate == "" {
		return dErrors.New(dErrors.CodeValidation, "issued_date is required")
	}
	if _, err := time.Parse("2006-01-02", m.IssuedDate); err != nil {
		return dErrors.New(dErrors.CodeValidation, "issued_date must be YYYY-MM-DD")
	}
	return nil
}

// VerificationStatus is the tri-state verification outcome.
type VerificationStatus string

const (
	StatusValid    VerificationStatus = "valid"
	StatusRevoked  VerificationStatus = "revoked"
	StatusNotFound VerificationStatus = "not_found"
)

// Reasons carried alongside a non-valid status. ProofMismatch is deliberately
// distinct from a plain miss: it is tamper evidence, never collapsed into
// "revoked" or dropped.
const (
	ReasonProofMismatch       = "proof_mismatch"
	ReasonArtifactUnavailable = "artifact_unavailable"
	ReasonMetadataMissing     = "metadata_missing"
)

// VerificationResult is constructed fresh per verification call and never
// cached: revocation state can change between calls.
type VerificationResult struct {
	Status   VerificationStatus
	Degree   *DegreeObject
	Metadata *DegreeMetadata
	Reason   string
	Err      string
}

// Valid reports whether the artifact and metadata still match the binding
// proof. A revoked credential keeps a matching proof, so it stays valid in
// this sense; revocation is reported through Status, never by folding it
// into a failed proof check.
func (r VerificationResult) Valid() bool {
	return r.Status == StatusValid || r.Status == StatusRevoked
}

// IssuerSession is the request-scoped caller identity for issuance and
// revocation. There is no ambient authority context.
type IssuerSession struct {
	Address id.AccountAddress
	Label   string
}

// IssueRequest carries a certificate artifact and its metadata into the
// issuance coordinator.
type IssueRequest struct {
	Artifact    []byte
	ContentType string
	Metadata    DegreeMetadata
}

// IssuanceReceipt is returned on successful ledger acceptance.
type IssuanceReceipt struct {
	ObjectID  id.ObjectID   `json:"object_id"`
	TxDigest  id.TxDigest   `json:"tx_hash"`
	WalrusURI id.StorageRef `json:"walrus_uri"`
}

// RevocationReceipt references the revocation transaction.
type RevocationReceipt struct {
	TxDigest id.TxDigest `json:"tx_hash"`
}
