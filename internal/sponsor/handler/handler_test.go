package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vellum/internal/credential/models"
	"vellum/internal/sponsor"
	id "vellum/pkg/domain"
	dErrors "vellum/pkg/domain-errors"
	"vellum/pkg/requestcontext"
)

type fakeSponsor struct {
	receipt sponsor.Receipt
	err     error
	txBytes []byte
}

func (f *fakeSponsor) Sponsor(_ context.Context, _ models.IssuerSession, txBytes []byte, _ string) (sponsor.Receipt, error) {
	f.txBytes = txBytes
	return f.receipt, f.err
}

func newRouter(service *fakeSponsor) http.Handler {
	h := New(service, slog.New(slog.DiscardHandler))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithIssuer(r.Context(), requestcontext.Issuer{
				Address: id.AccountAddress("0x7a1bfa4c3c5e8d2f9b6a0c4d8e1f2a3b4c5d6e7f"),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	h.Register(r)
	return r
}

func sponsorBody(t *testing.T, txBytes []byte, signature string) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]string{
		"txBytes":   base64.StdEncoding.EncodeToString(txBytes),
		"signature": signature,
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestHandleSponsorTx(t *testing.T) {
	service := &fakeSponsor{
		receipt: sponsor.Receipt{
			TxDigest: id.TxDigest("digest-1"),
			Sponsor:  id.AccountAddress("0x2222222222222222222222222222222222222222"),
		},
	}

	tx := []byte(`{"sender":"0xab","commands":[{"target":"0x01::degree::issue"}]}`)
	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/sponsor-tx", sponsorBody(t, tx, "sender-sig")))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tx, service.txBytes)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "digest-1", body["tx_hash"])
}

func TestHandleSponsorTxRejectedByPolicy(t *testing.T) {
	service := &fakeSponsor{
		err: dErrors.New(dErrors.CodeRejectedByPolicy, "transaction rejected: foreign_effect"),
	}

	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/sponsor-tx", sponsorBody(t, []byte(`{}`), "sig")))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleSponsorTxRejectsBadBase64(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&fakeSponsor{}).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/sponsor-tx",
			bytes.NewBufferString(`{"txBytes":"%%not-base64%%","signature":"sig"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSponsorTxRequiresTxBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&fakeSponsor{}).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/sponsor-tx",
			bytes.NewBufferString(`{"signature":"sig"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
