// Package gateway wraps the external payment provider.  The core
// treats the provider as a trusted oracle: a transaction it reports
// as successful is ground truth and is never re-derived locally.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// InitializedTransaction is the provider's answer to a new
// transaction: the checkout URL the client is redirected to and the
// reference all later verification goes through.
type InitializedTransaction struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
}

// VerifiedTransaction reports the settled state of a transaction
// together with the metadata attached at initialization time: which
// trip and which seats the charge covers.
type VerifiedTransaction struct {
	Status      string
	AmountMinor int64
	TripID      uint64
	SeatIDs     []uint64
}

// Succeeded reports whether the provider settled the charge.
func (t *VerifiedTransaction) Succeeded() bool { return t.Status == "success" }

// Client is the provider surface the booking core consumes.
type Client interface {
	Initialize(ctx context.Context, email string, amountMinor int64, tripID uint64, seatIDs []uint64, callbackURL string) (*InitializedTransaction, error)
	Verify(ctx context.Context, reference string) (*VerifiedTransaction, error)
}

// PaystackClient talks to the Paystack REST API.
type PaystackClient struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

// NewPaystackClient builds a client for the given base URL (empty
// for the production endpoint) and secret key.
func NewPaystackClient(baseURL, secretKey string) *PaystackClient {
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	return &PaystackClient{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

type paystackMetadata struct {
	TripID  uint64   `json:"tripId"`
	SeatIDs []uint64 `json:"seatIds"`
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Initialize creates a transaction for the given amount and binds
// the trip and seat set into the transaction metadata, where the
// verify call reads them back.
func (c *PaystackClient) Initialize(ctx context.Context, email string, amountMinor int64, tripID uint64, seatIDs []uint64, callbackURL string) (*InitializedTransaction, error) {
	payload := struct {
		Email       string           `json:"email"`
		Amount      int64            `json:"amount"`
		CallbackURL string           `json:"callback_url,omitempty"`
		Metadata    paystackMetadata `json:"metadata"`
	}{
		Email:       email,
		Amount:      amountMinor,
		CallbackURL: callbackURL,
		Metadata:    paystackMetadata{TripID: tripID, SeatIDs: seatIDs},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	env, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var data InitializedTransaction
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("gateway: decode initialize response: %w", err)
	}
	return &data, nil
}

// Verify fetches the settled state of a transaction by reference.
func (c *PaystackClient) Verify(ctx context.Context, reference string) (*VerifiedTransaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	env, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var data struct {
		Status   string           `json:"status"`
		Amount   int64            `json:"amount"`
		Metadata paystackMetadata `json:"metadata"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("gateway: decode verify response: %w", err)
	}
	return &VerifiedTransaction{
		Status:      data.Status,
		AmountMinor: data.Amount,
		TripID:      data.Metadata.TripID,
		SeatIDs:     data.Metadata.SeatIDs,
	}, nil
}

func (c *PaystackClient) do(req *http.Request) (*paystackEnvelope, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}
	defer resp.Body.Close()
	var env paystackEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("gateway: decode response: %w", err)
	}
	if resp.StatusCode >= 400 || !env.Status {
		return nil, fmt.Errorf("gateway: %s", env.Message)
	}
	return &env, nil
}

var _ Client = (*PaystackClient)(nil)
