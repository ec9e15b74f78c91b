package sui

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	id "vellum/pkg/domain"
)

// ed25519Flag is the Sui signature scheme flag prepended to serialized
// signatures.
const ed25519Flag = 0x00

// intentPrefix marks the payload as transaction data under the default
// intent version and app.
var intentPrefix = []byte{0x00, 0x00, 0x00}

// Ed25519Signer signs transactions with a Sui ed25519 account key.
type Ed25519Signer struct {
	key     ed25519.PrivateKey
	address id.AccountAddress
}

// NewEd25519Signer builds a signer from a 32-byte hex-encoded seed.
func NewEd25519Signer(seedHex string) (*Ed25519Signer, error) {
	seed, err := hex.DecodeString(strings.TrimPrefix(seedHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode signer seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("signer seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return newSignerFromKey(ed25519.NewKeyFromSeed(seed))
}

// NewEphemeralSigner generates a throwaway key, for local development with
// the in-memory ledger.
func NewEphemeralSigner() (*Ed25519Signer, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate signer key: %w", err)
	}
	return newSignerFromKey(key)
}

func newSignerFromKey(key ed25519.PrivateKey) (*Ed25519Signer, error) {
	// The Sui address is blake2b-256 over the scheme flag plus public key.
	h, _ := blake2b.New256(nil)
	h.Write([]byte{ed25519Flag})
	h.Write(key.Public().(ed25519.PublicKey))
	address, err := id.ParseAccountAddress("0x" + hex.EncodeToString(h.Sum(nil)))
	if err != nil {
		return nil, fmt.Errorf("derive signer address: %w", err)
	}
	return &Ed25519Signer{key: key, address: address}, nil
}

func (s *Ed25519Signer) Address() id.AccountAddress {
	return s.address
}

// hashIntent computes the signing digest over the intent-wrapped payload.
func hashIntent(txBytes []byte) []byte {
	h, _ := blake2b.New256(nil)
	h.Write(intentPrefix)
	h.Write(txBytes)
	return h.Sum(nil)
}

// Sign produces the serialized Sui signature over the transaction intent:
// base64(flag || ed25519 signature || public key).
func (s *Ed25519Signer) Sign(_ context.Context, txBytes []byte) (string, error) {
	signature := ed25519.Sign(s.key, hashIntent(txBytes))
	publicKey := s.key.Public().(ed25519.PublicKey)

	serialized := make([]byte, 0, 1+len(signature)+len(publicKey))
	serialized = append(serialized, ed25519Flag)
	serialized = append(serialized, signature...)
	serialized = append(serialized, publicKey...)
	return base64.StdEncoding.EncodeToString(serialized), nil
}
