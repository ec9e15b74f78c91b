package store

import (
	"context"
	"database/sql"
	"errors"

	"vellum/internal/credential/models"
	"vellum/internal/platform/database"
	id "vellum/pkg/domain"
	dErrors "vellum/pkg/domain-errors"
)

// PostgresStore persists metadata in the degree_metadata table. The upsert on
// student_id keeps the store aligned with the ledger's most-recent-wins
// resolution for re-issued degrees.
type PostgresStore struct {
	pool *database.Pool
}

// NewPostgresStore creates a metadata store backed by the given pool.
func NewPostgresStore(pool *database.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) SaveMetadata(ctx context.Context, md models.DegreeMetadata) error {
	const query = `
		INSERT INTO degree_metadata (student_id, full_name, degree_type, major, issued_date, issuer, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (student_id) DO UPDATE SET
			full_name   = EXCLUDED.full_name,
			degree_type = EXCLUDED.degree_type,
			major       = EXCLUDED.major,
			issued_date = EXCLUDED.issued_date,
			issuer      = EXCLUDED.issuer,
			updated_at  = NOW()`

	_, err := s.pool.DB().ExecContext(ctx, query,
		md.StudentID.String(), md.FullName, md.DegreeType, md.Major, md.IssuedDate, md.Issuer)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save degree metadata")
	}
	return nil
}

func (s *PostgresStore) MetadataBySubject(ctx context.Context, studentID id.SubjectID) (models.DegreeMetadata, error) {
	const query = `
		SELECT student_id, full_name, degree_type, major, issued_date, issuer
		FROM degree_metadata
		WHERE student_id = $1`

	var md models.DegreeMetadata
	err := s.pool.DB().QueryRowContext(ctx, query, studentID.String()).Scan(
		&md.StudentID, &md.FullName, &md.DegreeType, &md.Major, &md.IssuedDate, &md.Issuer)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DegreeMetadata{}, ErrNotFound
	}
	if err != nil {
		return models.DegreeMetadata{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load degree metadata")
	}
	return md, nil
}
