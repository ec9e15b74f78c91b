// Package memory provides an in-process ledger for development and tests.
// It enforces the same version-based concurrency control as the real ledger
// so coordinator behavior under races is observable without a network.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"

	"vellum/internal/credential/models"
	"vellum/internal/ledger"
	id "vellum/pkg/domain"
)

// Ledger stores degree objects keyed by object ID, with a per-subject index
// ordered by insertion so "most recent" resolution is deterministic.
type Ledger struct {
	mu        sync.RWMutex
	objects   map[id.ObjectID]models.DegreeObject
	bySubject map[id.SubjectID][]id.ObjectID
	submitted [][]byte
}

// New creates an empty in-memory ledger.
func New() *Ledger {
	return &Ledger{
		objects:   make(map[id.ObjectID]models.DegreeObject),
		bySubject: make(map[id.SubjectID][]id.ObjectID),
	}
}

func randomHex(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	return "0x" + hex.EncodeToString(buf)
}

// CreateDegree assigns a fresh object ID and version 1 and commits the object.
func (l *Ledger) CreateDegree(_ context.Context, obj models.DegreeObject, _ id.AccountAddress) (models.DegreeObject, ledger.TxResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	objectID, err := id.ParseObjectID(randomHex(16))
	if err != nil {
		return models.DegreeObject{}, ledger.TxResult{}, err
	}
	obj.ID = objectID
	obj.Version = 1

	l.objects[obj.ID] = obj
	l.bySubject[obj.StudentID] = append(l.bySubject[obj.StudentID], obj.ID)

	return obj, ledger.TxResult{Digest: id.TxDigest(randomHex(16))}, nil
}

// DegreeBySubject returns the most recently created object for the subject.
func (l *Ledger) DegreeBySubject(_ context.Context, studentID id.SubjectID) (models.DegreeObject, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := l.bySubject[studentID]
	if len(ids) == 0 {
		return models.DegreeObject{}, ledger.ErrObjectNotFound
	}
	return l.objects[ids[len(ids)-1]], nil
}

// MarkRevoked flips is_revoked if the caller's version matches the stored
// one. A stale version means a concurrent write won and the caller must
// re-read.
func (l *Ledger) MarkRevoked(_ context.Context, obj models.DegreeObject, _ id.AccountAddress) (ledger.TxResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.objects[obj.ID]
	if !ok {
		return ledger.TxResult{}, ledger.ErrObjectNotFound
	}
	if current.Version != obj.Version {
		return ledger.TxResult{}, ledger.ErrVersionConflict
	}

	current.IsRevoked = true
	current.Version++
	l.objects[obj.ID] = current

	return ledger.TxResult{Digest: id.TxDigest(randomHex(16))}, nil
}

// SubmitSigned records the raw transaction and returns a synthetic digest.
func (l *Ledger) SubmitSigned(_ context.Context, txBytes []byte, _ []string) (ledger.TxResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.submitted = append(l.submitted, txBytes)
	return ledger.TxResult{Digest: id.TxDigest(randomHex(16))}, nil
}

// Submitted returns raw transactions accepted via SubmitSigned, for tests.
func (l *Ledger) Submitted() [][]byte {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([][]byte, len(l.submitted))
	copy(out, l.submitted)
	return out
}
