package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vellum/internal/credential/models"
	id "vellum/pkg/domain"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	md := models.DegreeMetadata{
		StudentID:  id.SubjectID("20215001"),
		FullName:   "Nguyen Van A",
		DegreeType: "Bachelor of Engineering",
		Major:      "Computer Science",
		IssuedDate: "2025-01-15",
		Issuer:     "HCMUTE",
	}
	require.NoError(t, s.SaveMetadata(ctx, md))

	got, err := s.MetadataBySubject(ctx, md.StudentID)
	require.NoError(t, err)
	assert.Equal(t, md, got)
}

func TestMemoryStoreMissingSubject(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.MetadataBySubject(context.Background(), id.SubjectID("nobody"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreReplacesOnReissue(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first := models.DegreeMetadata{StudentID: id.SubjectID("20215001"), FullName: "Nguyen Van A"}
	second := first
	second.DegreeType = "Master of Engineering"

	require.NoError(t, s.SaveMetadata(ctx, first))
	require.NoError(t, s.SaveMetadata(ctx, second))

	got, err := s.MetadataBySubject(ctx, first.StudentID)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}
