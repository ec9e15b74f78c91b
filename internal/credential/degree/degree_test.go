package degree_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vellum/internal/credential/degree"
	"vellum/internal/credential/models"
	id "vellum/pkg/domain"
	dErrors "vellum/pkg/domain-errors"
)

type DegreeSuite struct {
	suite.Suite
	studentID id.SubjectID
	issuer    id.AccountAddress
	walrusURI id.StorageRef
	proof     models.Proof
	issuedAt  time.Time
}

func TestDegreeSuite(t *testing.T) {
	suite.Run(t, new(DegreeSuite))
}

func (s *DegreeSuite) SetupTest() {
	s.studentID = id.SubjectID("20215001")
	s.issuer = id.AccountAddress("0xabc123")
	s.walrusURI = id.NewStorageRef("walrus", "blob-1")
	s.proof = make(models.Proof, models.ProofSize)
	s.issuedAt = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
}

func (s *DegreeSuite) TestConstructionInvariants() {
	cases := []struct {
		name      string
		studentID id.SubjectID
		issuer    id.AccountAddress
		walrusURI id.StorageRef
		proof     models.Proof
		issuedAt  time.Time
		wantErr   bool
	}{
		{
			name: "rejects empty subject id", studentID: "",
			issuer: s.issuer, walrusURI: s.walrusURI, proof: s.proof, issuedAt: s.issuedAt,
			wantErr: true,
		},
		{
			name: "rejects malformed subject id", studentID: "2021 5001",
			issuer: s.issuer, walrusURI: s.walrusURI, proof: s.proof, issuedAt: s.issuedAt,
			wantErr: true,
		},
		{
			name: "rejects missing issuer", studentID: s.studentID,
			issuer: "", walrusURI: s.walrusURI, proof: s.proof, issuedAt: s.issuedAt,
			wantErr: true,
		},
		{
			name: "rejects missing storage ref", studentID: s.studentID,
			issuer: s.issuer, walrusURI: "", proof: s.proof, issuedAt: s.issuedAt,
			wantErr: true,
		},
		{
			name: "rejects short proof", studentID: s.studentID,
			issuer: s.issuer, walrusURI: s.walrusURI, proof: models.Proof{0x01}, issuedAt: s.issuedAt,
			wantErr: true,
		},
		{
			name: "rejects zero issued_at", studentID: s.studentID,
			issuer: s.issuer, walrusURI: s.walrusURI, proof: s.proof, issuedAt: time.Time{},
			wantErr: true,
		},
		{
			name: "accepts valid inputs", studentID: s.studentID,
			issuer: s.issuer, walrusURI: s.walrusURI, proof: s.proof, issuedAt: s.issuedAt,
			wantErr: false,
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			obj, err := degree.New(tc.studentID, tc.issuer, tc.walrusURI, tc.proof, tc.issuedAt)
			if tc.wantErr {
				s.Require().Error(err)
				s.True(dErrors.HasCode(err, dErrors.CodeValidation))
				return
			}
			s.Require().NoError(err)
			s.Equal(tc.studentID, obj.StudentID)
			s.Equal(tc.issuer, obj.Issuer)
			s.Equal(tc.walrusURI, obj.WalrusURI)
			s.False(obj.IsRevoked)
			s.True(obj.ID.IsNil()) // ledger assigns the ID at commit
		})
	}
}

func (s *DegreeSuite) TestRevokeIsCopyOnWrite() {
	obj, err := degree.New(s.studentID, s.issuer, s.walrusURI, s.proof, s.issuedAt)
	s.Require().NoError(err)

	revoked, err := degree.Revoke(obj)
	s.Require().NoError(err)

	s.True(revoked.IsRevoked)
	s.False(obj.IsRevoked) // original unchanged
	s.Equal(obj.StudentID, revoked.StudentID)
	s.Equal(obj.Proof, revoked.Proof)
}

func (s *DegreeSuite) TestRevokeIsMonotonic() {
	obj, err := degree.New(s.studentID, s.issuer, s.walrusURI, s.proof, s.issuedAt)
	s.Require().NoError(err)

	revoked, err := degree.Revoke(obj)
	s.Require().NoError(err)

	_, err = degree.Revoke(revoked)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyRevoked))
}
