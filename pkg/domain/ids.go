// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"encoding/hex"
	"strings"

	dErrors "vellum/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a SubjectID where an
// ObjectID is expected.
type (
	// SubjectID identifies the credential holder (a student identifier).
	SubjectID string
	// ObjectID is a ledger object identifier, assigned at commit time.
	ObjectID string
	// AccountAddress is a ledger account address (hex, 0x-prefixed).
	AccountAddress string
	// TxDigest references a committed ledger transaction.
	TxDigest string
)

// Parse functions - use at trust boundaries (handlers, API inputs).

// ParseSubjectID validates a student identifier. Subject IDs are opaque to
// the ledger but must be printable, non-empty, and bounded so they can be
// used as index keys.
func ParseSubjectID(s string) (SubjectID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "subject ID cannot be empty")
	}
	if len(s) > 64 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "subject ID is too long")
	}
	for _, r := range s {
		if !isSubjectRune(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "subject ID contains invalid characters")
		}
	}
	return SubjectID(s), nil
}

// ParseObjectID validates a 0x-prefixed hex object identifier.
func ParseObjectID(s string) (ObjectID, error) {
	if err := validateHexID(s, "object ID"); err != nil {
		return "", err
	}
	return ObjectID(strings.ToLower(s)), nil
}

// ParseAccountAddress validates a 0x-prefixed hex account address.
func ParseAccountAddress(s string) (AccountAddress, error) {
	if err := validateHexID(s, "account address"); err != nil {
		return "", err
	}
	return AccountAddress(strings.ToLower(s)), nil
}

// ParseTxDigest validates a transaction digest reference.
func ParseTxDigest(s string) (TxDigest, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "transaction digest cannot be empty")
	}
	return TxDigest(s), nil
}

// String methods - for logging and debugging.

func (id SubjectID) String() string     { return string(id) }
func (id ObjectID) String() string      { return string(id) }
func (a AccountAddress) String() string { return string(a) }
func (d TxDigest) String() string       { return string(d) }

// IsNil checks - used for service-layer validation.

func (id SubjectID) IsNil() bool     { return id == "" }
func (id ObjectID) IsNil() bool      { return id == "" }
func (a AccountAddress) IsNil() bool { return a == "" }
func (d TxDigest) IsNil() bool       { return d == "" }

func isSubjectRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r == '-' || r == '_' || r == '.':
		return true
	}
	return false
}

// validateHexID is the shared validation for 0x-prefixed ledger identifiers.
// Length is not pinned to 32 bytes: test ledgers use short addresses.
func validateHexID(s, label string) error {
	if s == "" {
		return dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	if !strings.HasPrefix(s, "0x") {
		return dErrors.New(dErrors.CodeInvalidInput, label+" must be 0x-prefixed")
	}
	body := s[2:]
	if body == "" || len(body) > 64 {
		return dErrors.New(dErrors.CodeInvalidInput, label+" has invalid length")
	}
	if _, err := hex.DecodeString(body); err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, label+" is not valid hex")
	}
	return nil
}
