package domainerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite tests the domain error primitives.
//
// Justification: These are core error primitives used at every trust boundary.
// Unit tests ensure invariants like "wrapped domain errors preserve original code"
// and "errors.Is matches by code" are maintained.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorInterface() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeNotFound, Message: "degree not found"}
		s.Equal("degree not found", err.Error())
	})

	s.Run("returns code when message is empty", func() {
		err := &Error{Code: CodeAlreadyRevoked}
		s.Equal("already_revoked", err.Error())
	})
}

func (s *DomainErrorsSuite) TestUnwrap() {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeStorageUnavailable, "blob store unreachable")
	s.ErrorIs(err, cause)
}

func (s *DomainErrorsSuite) TestIsMatchesByCode() {
	err := New(CodeProofMismatch, "digest differs")
	s.ErrorIs(err, &Error{Code: CodeProofMismatch})
	s.NotErrorIs(err, &Error{Code: CodeNotFound})
}

func (s *DomainErrorsSuite) TestWrapPreservesDomainCode() {
	inner := New(CodeAlreadyRevoked, "already revoked")
	wrapped := Wrap(inner, CodeInternal, "revocation failed")

	var e *Error
	s.Require().ErrorAs(wrapped, &e)
	s.Equal(CodeAlreadyRevoked, e.Code)
	s.Equal("revocation failed", e.Message)
}

func (s *DomainErrorsSuite) TestHasCode() {
	err := Wrap(New(CodeLedgerSubmission, "tx rejected"), CodeInternal, "issue failed")
	s.True(HasCode(err, CodeLedgerSubmission))
	s.False(HasCode(err, CodeInternal))
	s.False(HasCode(errors.New("plain"), CodeInternal))
}
