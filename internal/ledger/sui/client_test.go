package sui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vellum/internal/credential/models"
	"vellum/internal/ledger"
	id "vellum/pkg/domain"
)

const testPackage = id.ObjectID("0xa1b2c3d4e5f60718293a4b5c6d7e8f90")

type stubSigner struct {
	address id.AccountAddress
}

func (s stubSigner) Address() id.AccountAddress { return s.address }

func (s stubSigner) Sign(_ context.Context, _ []byte) (string, error) {
	return "stub-signature", nil
}

// rpcHandler dispatches fake JSON-RPC replies keyed by method name.
func rpcHandler(t *testing.T, results map[string]any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, ok := results[req.Method]
		require.True(t, ok, "unexpected RPC method %s", req.Method)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"result":  result,
		})
	}
}

func newTestClient(serverURL string) *Client {
	signer := stubSigner{address: id.AccountAddress("0x7a1bfa4c3c5e8d2f9b6a0c4d8e1f2a3b4c5d6e7f")}
	return New(serverURL, testPackage, signer, time.Second)
}

func TestCreateDegree(t *testing.T) {
	server := httptest.NewServer(rpcHandler(t, map[string]any{
		"unsafe_moveCall": map[string]string{"txBytes": "dHg="},
		"sui_executeTransactionBlock": map[string]any{
			"digest":  "9LNN3YSzjry",
			"effects": map[string]any{"status": map[string]string{"status": "success"}},
			"objectChanges": []map[string]string{
				{
					"type":       "created",
					"objectType": string(testPackage) + "::degree::DegreeObject",
					"objectId":   "0x0badc0ffee",
					"version":    "3",
				},
			},
		},
	}))
	defer server.Close()

	obj := models.DegreeObject{
		StudentID: id.SubjectID("20215001"),
		Issuer:    id.AccountAddress("0x7a1bfa4c3c5e8d2f9b6a0c4d8e1f2a3b4c5d6e7f"),
		WalrusURI: id.NewStorageRef("walrus", "blob-1"),
		Proof:     make(models.Proof, models.ProofSize),
		IssuedAt:  time.Now().UTC(),
	}

	committed, tx, err := newTestClient(server.URL).CreateDegree(context.Background(), obj, obj.Issuer)
	require.NoError(t, err)
	assert.Equal(t, id.ObjectID("0x0badc0ffee"), committed.ID)
	assert.Equal(t, uint64(3), committed.Version)
	assert.Equal(t, id.TxDigest("9LNN3YSzjry"), tx.Digest)
}

func TestMarkRevokedStaleVersion(t *testing.T) {
	server := httptest.NewServer(rpcHandler(t, map[string]any{
		"unsafe_moveCall": map[string]string{"txBytes": "dHg="},
		"sui_executeTransactionBlock": map[string]any{
			"digest": "9LNN3YSzjry",
			"effects": map[string]any{"status": map[string]string{
				"status": "failure",
				"error":  "Object 0x0badc0ffee is not available for consumption",
			}},
		},
	}))
	defer server.Close()

	obj := models.DegreeObject{ID: id.ObjectID("0x0badc0ffee"), Version: 2}
	_, err := newTestClient(server.URL).MarkRevoked(context.Background(), obj, id.AccountAddress("0xab"))
	assert.ErrorIs(t, err, ledger.ErrVersionConflict)
}

func TestDegreeBySubject(t *testing.T) {
	entry := func(objectID, studentID, issuedAtMs string) map[string]any {
		return map[string]any{
			"data": map[string]any{
				"objectId": objectID,
				"version":  "1",
				"content": map[string]any{
					"fields": map[string]any{
						"student_id": studentID,
						"issuer":     "0x7a1bfa4c3c5e8d2f9b6a0c4d8e1f2a3b4c5d6e7f",
						"walrus_uri": "walrus://blob-1",
						"proof":      "00",
						"issued_at":  issuedAtMs,
						"is_revoked": false,
					},
				},
			},
		}
	}

	server := httptest.NewServer(rpcHandler(t, map[string]any{
		"suix_getOwnedObjects": map[string]any{
			"data": []map[string]any{
				entry("0x01", "20215001", "1700000000000"),
				entry("0x02", "20215001", "1800000000000"), // most recent
				entry("0x03", "20219999", "1900000000000"), // other subject
			},
		},
	}))
	defer server.Close()

	obj, err := newTestClient(server.URL).DegreeBySubject(context.Background(), id.SubjectID("20215001"))
	require.NoError(t, err)
	assert.Equal(t, id.ObjectID("0x02"), obj.ID)

	_, err = newTestClient(server.URL).DegreeBySubject(context.Background(), id.SubjectID("nobody"))
	assert.ErrorIs(t, err, ledger.ErrObjectNotFound)
}

func TestRPCErrorMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"error":   map[string]any{"code": -32000, "message": "Could not find the referenced object"},
		})
	}))
	defer server.Close()

	obj := models.DegreeObject{ID: id.ObjectID("0x0badc0ffee"), Version: 1}
	_, err := newTestClient(server.URL).MarkRevoked(context.Background(), obj, id.AccountAddress("0xab"))
	assert.ErrorIs(t, err, ledger.ErrObjectNotFound)
}
