package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vellum/internal/credential/models"
	"vellum/internal/ledger"
	id "vellum/pkg/domain"
)

var testIssuer = id.AccountAddress("0x7a1bfa4c3c5e8d2f9b6a0c4d8e1f2a3b4c5d6e7f")

func testObject(studentID string) models.DegreeObject {
	return models.DegreeObject{
		StudentID: id.SubjectID(studentID),
		Issuer:    testIssuer,
		WalrusURI: id.NewStorageRef("walrus", "blob-1"),
		Proof:     make(models.Proof, models.ProofSize),
		IssuedAt:  time.Now().UTC(),
	}
}

func TestCreateAndResolve(t *testing.T) {
	l := New()
	ctx := context.Background()

	committed, tx, err := l.CreateDegree(ctx, testObject("20215001"), testIssuer)
	require.NoError(t, err)
	assert.False(t, committed.ID.IsNil())
	assert.Equal(t, uint64(1), committed.Version)
	assert.NotEmpty(t, tx.Digest)

	found, err := l.DegreeBySubject(ctx, id.SubjectID("20215001"))
	require.NoError(t, err)
	assert.Equal(t, committed, found)
}

func TestResolveUnknownSubject(t *testing.T) {
	l := New()

	_, err := l.DegreeBySubject(context.Background(), id.SubjectID("nobody"))
	assert.ErrorIs(t, err, ledger.ErrObjectNotFound)
}

func TestMostRecentWins(t *testing.T) {
	l := New()
	ctx := context.Background()

	_, _, err := l.CreateDegree(ctx, testObject("20215001"), testIssuer)
	require.NoError(t, err)

	second := testObject("20215001")
	second.WalrusURI = id.NewStorageRef("walrus", "blob-2")
	committed, _, err := l.CreateDegree(ctx, second, testIssuer)
	require.NoError(t, err)

	found, err := l.DegreeBySubject(ctx, id.SubjectID("20215001"))
	require.NoError(t, err)
	assert.Equal(t, committed.ID, found.ID)
	assert.Equal(t, id.NewStorageRef("walrus", "blob-2"), found.WalrusURI)
}

func TestMarkRevoked(t *testing.T) {
	l := New()
	ctx := context.Background()

	committed, _, err := l.CreateDegree(ctx, testObject("20215001"), testIssuer)
	require.NoError(t, err)

	_, err = l.MarkRevoked(ctx, committed, testIssuer)
	require.NoError(t, err)

	found, err := l.DegreeBySubject(ctx, id.SubjectID("20215001"))
	require.NoError(t, err)
	assert.True(t, found.IsRevoked)
	assert.Equal(t, uint64(2), found.Version)
}

func TestMarkRevokedStaleVersion(t *testing.T) {
	l := New()
	ctx := context.Background()

	committed, _, err := l.CreateDegree(ctx, testObject("20215001"), testIssuer)
	require.NoError(t, err)

	// First writer wins; the second holds a stale version.
	_, err = l.MarkRevoked(ctx, committed, testIssuer)
	require.NoError(t, err)

	_, err = l.MarkRevoked(ctx, committed, testIssuer)
	assert.ErrorIs(t, err, ledger.ErrVersionConflict)
}

func TestMarkRevokedUnknownObject(t *testing.T) {
	l := New()

	obj := testObject("20215001")
	obj.ID = id.ObjectID("0xdeadbeef")
	obj.Version = 1

	_, err := l.MarkRevoked(context.Background(), obj, testIssuer)
	assert.ErrorIs(t, err, ledger.ErrObjectNotFound)
}

func TestSubmitSigned(t *testing.T) {
	l := New()

	tx, err := l.SubmitSigned(context.Background(), []byte(`{"sender":"0xab"}`), []string{"sig"})
	require.NoError(t, err)
	assert.NotEmpty(t, tx.Digest)
	require.Len(t, l.Submitted(), 1)
	assert.JSONEq(t, `{"sender":"0xab"}`, string(l.Submitted()[0]))
}
