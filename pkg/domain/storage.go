package domain

import (
	"strings"

	dErrors "vellum/pkg/domain-errors"
)

// StorageRef is a content address in scheme://identifier form. The identifier
// is bound to the stored bytes by the content store; substituting the bytes
// behind a ref is detectable by re-fetch-and-compare.
type StorageRef string

// ParseStorageRef validates the scheme://identifier shape without
// interpreting the scheme. Resolution is the content store adapter's concern.
func ParseStorageRef(s string) (StorageRef, error) {
	scheme, id, ok := strings.Cut(s, "://")
	if !ok || scheme == "" || id == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "storage ref must be scheme://identifier")
	}
	return StorageRef(s), nil
}

// NewStorageRef builds a ref from a scheme and content identifier.
func NewStorageRef(scheme, id string) StorageRef {
	return StorageRef(scheme + "://" + id)
}

func (r StorageRef) String() string { return string(r) }
func (r StorageRef) IsNil() bool    { return r == "" }

// Scheme returns the addressing scheme, or "" for a malformed ref.
func (r StorageRef) Scheme() string {
	scheme, _, ok := strings.Cut(string(r), "://")
	if !ok {
		return ""
	}
	return scheme
}

// ContentID returns the content identifier, or "" for a malformed ref.
func (r StorageRef) ContentID() string {
	_, id, ok := strings.Cut(string(r), "://")
	if !ok {
		return ""
	}
	return id
}
