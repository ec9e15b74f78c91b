// Package ledger defines the port to the authoritative ledger holding degree
// credential objects.
//
// The ledger is the single source of truth for ordering: concurrent writes
// to the same object race at the ledger layer and its object-version
// concurrency control arbitrates them. No implementation holds locks across
// network calls.
package ledger

import (
	"context"
	"encoding/json"

	"vellum/internal/credential/models"
	id "vellum/pkg/domain"
	dErrors "vellum/pkg/domain-errors"
)

var (
	// ErrObjectNotFound indicates no credential object exists for the query.
	ErrObjectNotFound = dErrors.New(dErrors.CodeNotFound, "ledger object not found")
	// ErrVersionConflict indicates the submitted transition raced with a
	// concurrent write; callers must re-read state before deciding anything.
	ErrVersionConflict = dErrors.New(dErrors.CodeConflict, "ledger object version conflict")
)

// TxResult references a committed ledger transaction.
type TxResult struct {
	Digest id.TxDigest
}

// Ledger is the write/read port for degree credential objects.
type Ledger interface {
	// CreateDegree commits a new credential object signed by the issuer and
	// returns the committed copy with its ledger-assigned ID and version.
	CreateDegree(ctx context.Context, obj models.DegreeObject, signer id.AccountAddress) (models.DegreeObject, TxResult, error)

	// DegreeBySubject resolves the current (most recently issued) credential
	// object for a subject, or ErrObjectNotFound.
	DegreeBySubject(ctx context.Context, studentID id.SubjectID) (models.DegreeObject, error)

	// MarkRevoked applies the monotonic revocation transition. The object's
	// Version pins the expected ledger state; a concurrent write yields
	// ErrVersionConflict and at most one revocation transaction succeeds.
	MarkRevoked(ctx context.Context, obj models.DegreeObject, signer id.AccountAddress) (TxResult, error)

	// SubmitSigned submits a pre-built transaction with its signatures.
	// Used by the sponsorship relay; the ledger does not interpret intent
	// beyond executing the transaction.
	SubmitSigned(ctx context.Context, txBytes []byte, signatures []string) (TxResult, error)
}

// UnsignedTx is the wire form of a pre-built, unsigned transaction accepted
// by the sponsorship relay. The relay inspects it before co-signing to
// confirm its effects are limited to degree issuance or revocation.
type UnsignedTx struct {
	Sender   string     `json:"sender"`
	GasOwner string     `json:"gasOwner,omitempty"`
	Commands []MoveCall `json:"commands"`
}

// MoveCall is a single command inside an UnsignedTx.
type MoveCall struct {
	Target string            `json:"target"` // package::module::function
	Args   []json.RawMessage `json:"args,omitempty"`
}

// ParseUnsignedTx decodes the relay's transaction envelope.
func ParseUnsignedTx(txBytes []byte) (UnsignedTx, error) {
	var tx UnsignedTx
	if err := json.Unmarshal(txBytes, &tx); err != nil {
		return UnsignedTx{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed transaction payload")
	}
	if tx.Sender == "" {
		return UnsignedTx{}, dErrors.New(dErrors.CodeBadRequest, "transaction missing sender")
	}
	if len(tx.Commands) == 0 {
		return UnsignedTx{}, dErrors.New(dErrors.CodeBadRequest, "transaction has no commands")
	}
	return tx, nil
}
