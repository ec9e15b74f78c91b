// Package store persists degree metadata records off-ledger. Metadata is
// written once during issuance and read back during verification; the ledger
// object's proof digest is what makes the pairing tamper-evident.
package store

import (
	"context"

	"vellum/internal/credential/models"
	id "vellum/pkg/domain"
	dErrors "vellum/pkg/domain-errors"
)

// ErrNotFound indicates no metadata record exists for the subject.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "degree metadata not found")

// MetadataStore is the persistence port for degree metadata.
type MetadataStore interface {
	// SaveMetadata stores the record for its student ID. Re-issuing a degree
	// for the same subject replaces the record, matching the ledger's
	// most-recent-wins resolution.
	SaveMetadata(ctx context.Context, md models.DegreeMetadata) error

	// MetadataBySubject returns the current record, or ErrNotFound.
	MetadataBySubject(ctx context.Context, studentID id.SubjectID) (models.DegreeMetadata, error)
}
