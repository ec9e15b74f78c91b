// Package sui implements the ledger port against a Sui full-node JSON-RPC
// endpoint. Degree objects live in a Move package whose degree module exposes
// issue and revoke entry functions.
//
// Sui's owned-object model gives us versioned concurrency for free: a
// transaction referencing a stale object version is rejected by the node, so
// at most one revocation of a given object version ever commits.
package sui

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"vellum/internal/credential/models"
	"vellum/internal/ledger"
	id "vellum/pkg/domain"
	dErrors "vellum/pkg/domain-errors"
)

const (
	degreeModule   = "degree"
	issueFunction  = "issue"
	revokeFunction = "revoke"

	defaultGasBudget = "20000000"
)

// Signer produces Sui transaction signatures for the service account that
// submits issuance and revocation transactions.
type Signer interface {
	Address() id.AccountAddress
	Sign(ctx context.Context, txBytes []byte) (string, error)
}

// Client is the JSON-RPC ledger adapter.
type Client struct {
	rpcURL     string
	packageID  id.ObjectID
	signer     Signer
	httpClient *http.Client
	gasBudget  string
	nextID     atomic.Int64
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithGasBudget overrides the per-transaction gas budget.
func WithGasBudget(budget string) Option {
	return func(c *Client) {
		c.gasBudget = budget
	}
}

// New creates a Sui ledger client. packageID is the Move package holding the
// degree module; signer signs the transactions this client builds.
func New(rpcURL string, packageID id.ObjectID, signer Signer, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		rpcURL:    strings.TrimRight(rpcURL, "/"),
		packageID: packageID,
		signer:    signer,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		gasBudget: defaultGasBudget,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []any, result any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode RPC request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create RPC request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "RPC request timed out")
		}
		return dErrors.Wrap(err, dErrors.CodeLedgerSubmission, "ledger node unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return dErrors.New(dErrors.CodeLedgerSubmission,
			fmt.Sprintf("ledger node returned status %d", resp.StatusCode))
	}

	var parsed rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return dErrors.Wrap(err, dErrors.CodeLedgerSubmission, "invalid RPC response")
	}
	if parsed.Error != nil {
		return mapRPCError(parsed.Error)
	}
	if result != nil {
		if err := json.Unmarshal(parsed.Result, result); err != nil {
			return dErrors.Wrap(err, dErrors.CodeLedgerSubmission, "invalid RPC result")
		}
	}
	return nil
}

// mapRPCError classifies node errors. A stale object version surfaces from
// the node as "not available for consumption".
func mapRPCError(rpcErr *rpcError) error {
	msg := strings.ToLower(rpcErr.Message)
	switch {
	case strings.Contains(msg, "not available for consumption"),
		strings.Contains(msg, "objectversionunavailableforconsumption"):
		return ledger.ErrVersionConflict
	case strings.Contains(msg, "could not find"), strings.Contains(msg, "notexists"):
		return ledger.ErrObjectNotFound
	default:
		return dErrors.New(dErrors.CodeLedgerSubmission,
			fmt.Sprintf("RPC error %d: %s", rpcErr.Code, rpcErr.Message))
	}
}

// moveCallResult is the reply of unsafe_moveCall: the serialized transaction
// ready for signing.
type moveCallResult struct {
	TxBytes string `json:"txBytes"`
}

type objectChange struct {
	Type       string `json:"type"`
	ObjectType string `json:"objectType"`
	ObjectID   string `json:"objectId"`
	Version    string `json:"version"`
}

type executeResult struct {
	Digest  string `json:"digest"`
	Effects struct {
		Status struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"status"`
	} `json:"effects"`
	ObjectChanges []objectChange `json:"objectChanges"`
}

func (c *Client) degreeType() string {
	return fmt.Sprintf("%s::%s::DegreeObject", c.packageID, degreeModule)
}

// buildMoveCall asks the node to serialize an entry-function call into
// transaction bytes for signing.
func (c *Client) buildMoveCall(ctx context.Context, function string, args []any) (string, error) {
	var result moveCallResult
	err := c.call(ctx, "unsafe_moveCall", []any{
		c.signer.Address().String(),
		c.packageID.String(),
		degreeModule,
		function,
		[]any{}, // no type arguments
		args,
		nil, // let the node pick a gas object
		c.gasBudget,
	}, &result)
	if err != nil {
		return "", err
	}
	return result.TxBytes, nil
}

// signAndExecute signs the serialized transaction and submits it, waiting
// for effects so the caller sees committed state.
func (c *Client) signAndExecute(ctx context.Context, txBytesB64 string) (executeResult, error) {
	raw, err := base64.StdEncoding.DecodeString(txBytesB64)
	if err != nil {
		return executeResult{}, dErrors.Wrap(err, dErrors.CodeLedgerSubmission, "invalid transaction bytes")
	}
	signature, err := c.signer.Sign(ctx, raw)
	if err != nil {
		return executeResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign transaction")
	}
	return c.execute(ctx, txBytesB64, []string{signature})
}

func (c *Client) execute(ctx context.Context, txBytesB64 string, signatures []string) (executeResult, error) {
	var result executeResult
	err := c.call(ctx, "sui_executeTransactionBlock", []any{
		txBytesB64,
		signatures,
		map[string]bool{"showEffects": true, "showObjectChanges": true},
		"WaitForLocalExecution",
	}, &result)
	if err != nil {
		return executeResult{}, err
	}
	if result.Effects.Status.Status != "success" {
		if strings.Contains(strings.ToLower(result.Effects.Status.Error), "not available for consumption") {
			return executeResult{}, ledger.ErrVersionConflict
		}
		return executeResult{}, dErrors.New(dErrors.CodeLedgerSubmission,
			fmt.Sprintf("transaction failed: %s", result.Effects.Status.Error))
	}
	return result, nil
}

// CreateDegree submits a degree::issue transaction and returns the committed
// object with its node-assigned ID and version.
func (c *Client) CreateDegree(ctx context.Context, obj models.DegreeObject, _ id.AccountAddress) (models.DegreeObject, ledger.TxResult, error) {
	txBytes, err := c.buildMoveCall(ctx, issueFunction, []any{
		obj.StudentID.String(),
		obj.Issuer.String(),
		obj.WalrusURI.String(),
		hex.EncodeToString(obj.Proof),
		strconv.FormatInt(obj.IssuedAt.UnixMilli(), 10),
	})
	if err != nil {
		return models.DegreeObject{}, ledger.TxResult{}, err
	}

	result, err := c.signAndExecute(ctx, txBytes)
	if err != nil {
		return models.DegreeObject{}, ledger.TxResult{}, err
	}

	for _, change := range result.ObjectChanges {
		if change.Type != "created" || change.ObjectType != c.degreeType() {
			continue
		}
		objectID, err := id.ParseObjectID(change.ObjectID)
		if err != nil {
			return models.DegreeObject{}, ledger.TxResult{}, dErrors.Wrap(err,
				dErrors.CodeLedgerSubmission, "node returned invalid object ID")
		}
		version, _ := strconv.ParseUint(change.Version, 10, 64)
		obj.ID = objectID
		obj.Version = version
		return obj, ledger.TxResult{Digest: id.TxDigest(result.Digest)}, nil
	}

	return models.DegreeObject{}, ledger.TxResult{}, dErrors.New(dErrors.CodeLedgerSubmission,
		"transaction committed but no degree object was created")
}

// objectContent mirrors the Move representation of a degree object.
type objectContent struct {
	Data struct {
		ObjectID string `json:"objectId"`
		Version  string `json:"version"`
		Content  struct {
			Fields struct {
				StudentID string `json:"student_id"`
				Issuer    string `json:"issuer"`
				WalrusURI string `json:"walrus_uri"`
				Proof     string `json:"proof"`
				IssuedAt  string `json:"issued_at"`
				IsRevoked bool   `json:"is_revoked"`
			} `json:"fields"`
		} `json:"content"`
	} `json:"data"`
}

type ownedObjectsPage struct {
	Data []objectContent `json:"data"`
}

// DegreeBySubject queries the issuer account's degree objects and resolves
// the most recently issued one for the subject.
func (c *Client) DegreeBySubject(ctx context.Context, studentID id.SubjectID) (models.DegreeObject, error) {
	var page ownedObjectsPage
	err := c.call(ctx, "suix_getOwnedObjects", []any{
		c.signer.Address().String(),
		map[string]any{
			"filter":  map[string]string{"StructType": c.degreeType()},
			"options": map[string]bool{"showContent": true},
		},
		nil, // cursor
		nil, // node default page size
	}, &page)
	if err != nil {
		return models.DegreeObject{}, err
	}

	var (
		best  models.DegreeObject
		found bool
	)
	for _, entry := range page.Data {
		obj, err := decodeObject(entry)
		if err != nil {
			continue // foreign or malformed object in the account
		}
		if obj.StudentID != studentID {
			continue
		}
		if !found || obj.IssuedAt.After(best.IssuedAt) {
			best = obj
			found = true
		}
	}
	if !found {
		return models.DegreeObject{}, ledger.ErrObjectNotFound
	}
	return best, nil
}

func decodeObject(entry objectContent) (models.DegreeObject, error) {
	objectID, err := id.ParseObjectID(entry.Data.ObjectID)
	if err != nil {
		return models.DegreeObject{}, err
	}
	issuer, err := id.ParseAccountAddress(entry.Data.Content.Fields.Issuer)
	if err != nil {
		return models.DegreeObject{}, err
	}
	proof, err := hex.DecodeString(entry.Data.Content.Fields.Proof)
	if err != nil {
		return models.DegreeObject{}, err
	}
	issuedAtMs, err := strconv.ParseInt(entry.Data.Content.Fields.IssuedAt, 10, 64)
	if err != nil {
		return models.DegreeObject{}, err
	}
	version, _ := strconv.ParseUint(entry.Data.Version, 10, 64)

	return models.DegreeObject{
		ID:        objectID,
		StudentID: id.SubjectID(entry.Data.Content.Fields.StudentID),
		Issuer:    issuer,
		WalrusURI: id.StorageRef(entry.Data.Content.Fields.WalrusURI),
		Proof:     proof,
		IssuedAt:  time.UnixMilli(issuedAtMs).UTC(),
		IsRevoked: entry.Data.Content.Fields.IsRevoked,
		Version:   version,
	}, nil
}

// MarkRevoked submits a degree::revoke transaction referencing the object at
// the caller's observed version. The node rejects it if the version is stale.
func (c *Client) MarkRevoked(ctx context.Context, obj models.DegreeObject, _ id.AccountAddress) (ledger.TxResult, error) {
	txBytes, err := c.buildMoveCall(ctx, revokeFunction, []any{obj.ID.String()})
	if err != nil {
		return ledger.TxResult{}, err
	}
	result, err := c.signAndExecute(ctx, txBytes)
	if err != nil {
		return ledger.TxResult{}, err
	}
	return ledger.TxResult{Digest: id.TxDigest(result.Digest)}, nil
}

// SubmitSigned executes a transaction that was built and signed elsewhere,
// as happens with sponsored transactions carrying sender plus sponsor
// signatures.
func (c *Client) SubmitSigned(ctx context.Context, txBytes []byte, signatures []string) (ledger.TxResult, error) {
	result, err := c.execute(ctx, base64.StdEncoding.EncodeToString(txBytes), signatures)
	if err != nil {
		return ledger.TxResult{}, err
	}
	return ledger.TxResult{Digest: id.TxDigest(result.Digest)}, nil
}

// Health checks node reachability for the readiness probe.
func (c *Client) Health(ctx context.Context) error {
	var checkpoint string
	return c.call(ctx, "sui_getLatestCheckpointSequenceNumber", []any{}, &checkpoint)
}
