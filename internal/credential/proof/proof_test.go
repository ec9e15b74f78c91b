package proof_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vellum/internal/credential/models"
	"vellum/internal/credential/proof"
	id "vellum/pkg/domain"
)

func sampleMetadata() models.DegreeMetadata {
	return models.DegreeMetadata{
		StudentID:  id.SubjectID("20215001"),
		FullName:   "Nguyen Van A",
		DegreeType: "Bachelor of Engineering",
		Major:      "Computer Science",
		IssuedDate: "2025-01-15",
		Issuer:     "HCMUTE",
	}
}

func TestBindVerifyRoundTrip(t *testing.T) {
	artifact := []byte("certificate image bytes")
	md := sampleMetadata()

	p := proof.Bind(artifact, md)
	require.Len(t, []byte(p), models.ProofSize)
	assert.True(t, proof.Verify(p, artifact, md))
}

func TestBindIsDeterministic(t *testing.T) {
	artifact := []byte("certificate image bytes")
	md := sampleMetadata()

	assert.Equal(t, proof.Bind(artifact, md), proof.Bind(artifact, md))
}

func TestVerifyDetectsArtifactTampering(t *testing.T) {
	md := sampleMetadata()
	p := proof.Bind([]byte("original bytes"), md)

	assert.False(t, proof.Verify(p, []byte("altered bytes"), md))
}

func TestVerifyDetectsMetadataTampering(t *testing.T) {
	artifact := []byte("certificate image bytes")
	p := proof.Bind(artifact, sampleMetadata())

	tampered := sampleMetadata()
	tampered.FullName = "Nguyen Van B"
	assert.False(t, proof.Verify(p, artifact, tampered))
}

func TestVerifyRejectsMalformedProof(t *testing.T) {
	md := sampleMetadata()
	artifact := []byte("bytes")

	assert.False(t, proof.Verify(models.Proof{}, artifact, md))
	assert.False(t, proof.Verify(models.Proof{0x01, 0x02}, artifact, md))
}

// Canonical encoding must keep adjacent fields unambiguous: moving a
// character across a field boundary has to change the serialization.
func TestCanonicalFieldBoundaries(t *testing.T) {
	a := sampleMetadata()
	a.FullName = "AB"
	a.DegreeType = "C"

	b := sampleMetadata()
	b.FullName = "A"
	b.DegreeType = "BC"

	assert.NotEqual(t, proof.Canonical(a), proof.Canonical(b))
	assert.NotEqual(t, proof.Bind([]byte("x"), a), proof.Bind([]byte("x"), b))
}
