package audit

import (
	"context"

	pkgerrors "vellum/pkg/domain-errors"
)

var (
	// ErrNotFound keeps storage-specific 404s consistent across implementations.
	ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
)

type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subjectID string) ([]Event, error)
}
