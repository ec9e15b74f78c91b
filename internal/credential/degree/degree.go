// Package degree holds the pure transition rules for the ledger-resident
// degree credential record.
//
// It contains no I/O, no context.Context, and no time.Now() calls: callers
// supply timestamps and apply returned values as new ledger state via a
// transaction. The package never mutates a record in place.
//
// Invariants protected here:
//   - StudentID, Issuer, WalrusURI, Proof, IssuedAt are always present
//   - IsRevoked transitions false -> true exactly once, never back
package degree

import (
	"time"

	"vellum/internal/credential/models"
	id "vellum/pkg/domain"
	dErrors "vellum/pkg/domain-errors"
)

// New constructs an uncommitted degree record with validated invariants.
// The ledger assigns ID and Version at commit time.
func New(
	studentID id.SubjectID,
	issuer id.AccountAddress,
	walrusURI id.StorageRef,
	proof models.Proof,
	issuedAt time.Time,
) (models.DegreeObject, error) {
	if _, err := id.ParseSubjectID(studentID.String()); err != nil {
		return models.DegreeObject{}, dErrors.Wrap(err, dErrors.CodeValidation, "invalid subject id")
	}
	if issuer.IsNil() {
		return models.DegreeObject{}, dErrors.New(dErrors.CodeValidation, "issuer is required")
	}
	if walrusURI.IsNil() {
		return models.DegreeObject{}, dErrors.New(dErrors.CodeValidation, "storage ref is required")
	}
	if len(proof) != models.ProofSize {
		return models.DegreeObject{}, dErrors.New(dErrors.CodeValidation, "proof has invalid length")
	}
	if issuedAt.IsZero() {
		return models.DegreeObject{}, dErrors.New(dErrors.CodeValidation, "issued_at is required")
	}

	return models.DegreeObject{
		StudentID: studentID,
		Issuer:    issuer,
		WalrusURI: walrusURI,
		Proof:     proof,
		IssuedAt:  issuedAt,
		IsRevoked: false,
	}, nil
}

// Revoke returns a copy of the record with IsRevoked set. It fails with
// AlreadyRevoked if the flag is already set; the transition is monotonic and
// there is no inverse operation.
func Revoke(obj models.DegreeObject) (models.DegreeObject, error) {
	if obj.IsRevoked {
		return models.DegreeObject{}, dErrors.New(dErrors.CodeAlreadyRevoked, "credential is already revoked")
	}
	revoked := obj
	revoked.IsRevoked = true
	return revoked, nil
}
