// Package proof binds a certificate artifact and its metadata to a
// credential record with a collision-resistant digest.
//
// The proof is blake2b-256 over the canonical metadata encoding followed by
// the blake2b-256 digest of the artifact bytes. Any later substitution of the
// stored bytes or the metadata changes the recomputed digest and is
// detectable by Verify.
package proof

import (
	"crypto/subtle"
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"vellum/internal/credential/models"
)

// canonicalFields returns metadata fields in the fixed, documented order.
// Two logically equal metadata records always serialize identically:
//
//	student_id, full_name, degree_type, major, issued_date, issuer
//
// Each field is encoded as uvarint(len) || UTF-8 bytes, so there is no
// ambiguity between adjacent fields or empty values.
func canonicalFields(md models.DegreeMetadata) []string {
	return []string{
		md.StudentID.String(),
		md.FullName,
		md.DegreeType,
		md.Major,
		md.IssuedDate,
		md.Issuer,
	}
}

// Canonical returns the canonical byte serialization of metadata.
func Canonical(md models.DegreeMetadata) []byte {
	var out []byte
	var lenBuf [binary.MaxVarintLen64]byte
	for _, field := range canonicalFields(md) {
		n := binary.PutUvarint(lenBuf[:], uint64(len(field)))
		out = append(out, lenBuf[:n]...)
		out = append(out, field...)
	}
	return out
}

// Bind computes the proof digest over the artifact bytes and metadata.
func Bind(artifact []byte, md models.DegreeMetadata) models.Proof {
	artifactDigest := blake2b.Sum256(artifact)

	h, _ := blake2b.New256(nil) // only errors with a key longer than 64 bytes
	h.Write(Canonical(md))
	h.Write(artifactDigest[:])
	return models.Proof(h.Sum(nil))
}

// Verify recomputes the proof for the given artifact and metadata and
// compares it against the recorded one in constant time relative to the
// digest length, so partial matches leak nothing.
func Verify(p models.Proof, artifact []byte, md models.DegreeMetadata) bool {
	if len(p) != models.ProofSize {
		return false
	}
	expected := Bind(artifact, md)
	return subtle.ConstantTimeCompare(expected, p) == 1
}
