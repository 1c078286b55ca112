package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeSendsMetadataAndAuth(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/transaction/initialize", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": true,
			"message": "Authorization URL created",
			"data": {
				"authorization_url": "https://checkout.paystack.com/abc123",
				"reference": "ref-abc123"
			}
		}`))
	}))
	defer srv.Close()

	client := NewPaystackClient(srv.URL, "sk_test_secret")
	tx, err := client.Initialize(context.Background(), "ada@example.com", 9000, 10, []uint64{41, 42}, "")
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk_test_secret", gotAuth)
	assert.Equal(t, "ref-abc123", tx.Reference)
	assert.Equal(t, "https://checkout.paystack.com/abc123", tx.AuthorizationURL)

	// The trip and seat set ride in the transaction metadata so the
	// verify call can read them back.
	meta, ok := gotBody["metadata"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(10), meta["tripId"])
	assert.Equal(t, []interface{}{float64(41), float64(42)}, meta["seatIds"])
	assert.Equal(t, float64(9000), gotBody["amount"])
}

func TestVerifyReadsBackMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction/verify/ref-abc123", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": true,
			"message": "Verification successful",
			"data": {
				"status": "success",
				"amount": 9000,
				"metadata": {"tripId": 10, "seatIds": [41, 42]}
			}
		}`))
	}))
	defer srv.Close()

	client := NewPaystackClient(srv.URL, "sk_test_secret")
	vt, err := client.Verify(context.Background(), "ref-abc123")
	require.NoError(t, err)

	assert.True(t, vt.Succeeded())
	assert.Equal(t, int64(9000), vt.AmountMinor)
	assert.Equal(t, uint64(10), vt.TripID)
	assert.Equal(t, []uint64{41, 42}, vt.SeatIDs)
}

func TestVerifyAbandonedChargeIsNotSucceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": true,
			"message": "Verification successful",
			"data": {"status": "abandoned", "amount": 9000, "metadata": {}}
		}`))
	}))
	defer srv.Close()

	client := NewPaystackClient(srv.URL, "sk_test_secret")
	vt, err := client.Verify(context.Background(), "ref-dead")
	require.NoError(t, err)
	assert.False(t, vt.Succeeded())
}

func TestGatewayErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status": false, "message": "Invalid key"}`))
	}))
	defer srv.Close()

	client := NewPaystackClient(srv.URL, "sk_bad")
	_, err := client.Verify(context.Background(), "ref-x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid key")
}
