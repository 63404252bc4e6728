package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/premium-access-bot/internal/models"
)

var weeklyPlan = models.Plan{ID: "weekly", Name: "Weekly Plan", Amount: 500}

func newTestClient(serverURL string) *Client {
	c := NewClient("sk_test", "pk_test")
	c.apiURL = serverURL
	return c
}

func TestCreatePaymentLink_Success(t *testing.T) {
	var gotReq createPaymentRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"link": "https://checkout.flutterwave.com/pay/abc"},
		})
	}))
	defer server.Close()

	link, err := newTestClient(server.URL).CreatePaymentLink(context.Background(), 42, weeklyPlan)
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.flutterwave.com/pay/abc", link.URL)
	assert.True(t, strings.HasPrefix(link.TxRef, "premium_bot_42_"))
	assert.Equal(t, link.TxRef, gotReq.TxRef)
	assert.Equal(t, 5.0, gotReq.Amount) // 500 кобо = 5 найр
	assert.Equal(t, "NGN", gotReq.Currency)
	assert.Equal(t, "42", gotReq.Meta.UserID)
	assert.Equal(t, "weekly", gotReq.Meta.Plan)
}

func TestCreatePaymentLink_FreshRefPerCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"link": "https://checkout.flutterwave.com/pay/x"},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	first, err := c.CreatePaymentLink(context.Background(), 7, models.Plan{ID: "daily", Name: "Daily Plan", Amount: 100})
	require.NoError(t, err)
	second, err := c.CreatePaymentLink(context.Background(), 7, models.Plan{ID: "daily", Name: "Daily Plan", Amount: 100})
	require.NoError(t, err)

	// Две подряд покупки одного тарифа не должны давать коллизию ссылок
	assert.NotEqual(t, first.TxRef, second.TxRef)
}

func TestCreatePaymentLink_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "error",
			"message": "invalid currency",
		})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).CreatePaymentLink(context.Background(), 1, weeklyPlan)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLinkCreation)
}

func TestCreatePaymentLink_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).CreatePaymentLink(context.Background(), 1, weeklyPlan)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLinkCreation)
}

func TestVerifyPayment(t *testing.T) {
	tests := []struct {
		name        string
		response    map[string]any
		httpStatus  int
		wantOutcome Outcome
		wantErr     bool
	}{
		{
			name: "successful payment",
			response: map[string]any{
				"status": "success",
				"data": map[string]any{
					"status": "successful",
					"meta":   map[string]any{"user_id": "42", "plan": "weekly"},
				},
			},
			httpStatus:  http.StatusOK,
			wantOutcome: OutcomeSuccessful,
		},
		{
			name: "pending payment",
			response: map[string]any{
				"status": "success",
				"data":   map[string]any{"status": "pending"},
			},
			httpStatus:  http.StatusOK,
			wantOutcome: OutcomePending,
		},
		{
			name: "failed payment",
			response: map[string]any{
				"status": "success",
				"data":   map[string]any{"status": "failed"},
			},
			httpStatus:  http.StatusOK,
			wantOutcome: OutcomeFailed,
		},
		{
			name: "unknown reference",
			response: map[string]any{
				"status":  "error",
				"message": "No transaction was found for this id",
			},
			httpStatus: http.StatusOK,
			wantErr:    true,
		},
		{
			name:       "gateway down",
			response:   map[string]any{},
			httpStatus: http.StatusServiceUnavailable,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/transactions/verify_by_reference", r.URL.Path)
				assert.Equal(t, "ref-1", r.URL.Query().Get("tx_ref"))
				w.WriteHeader(tt.httpStatus)
				_ = json.NewEncoder(w).Encode(tt.response)
			}))
			defer server.Close()

			result, err := newTestClient(server.URL).VerifyPayment(context.Background(), "ref-1")
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrVerification)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, result.Outcome)
			if tt.wantOutcome == OutcomeSuccessful {
				assert.Equal(t, "weekly", result.PlanID)
				assert.Equal(t, int64(42), result.UserID)
			}
		})
	}
}

func TestVerifyPayment_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // соединение сразу отклоняется

	_, err := newTestClient(server.URL).VerifyPayment(context.Background(), "ref-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVerification)
}

func TestNewTxRef_Format(t *testing.T) {
	ref := newTxRef(123)
	parts := strings.Split(ref, "_")
	require.Len(t, parts, 5) // premium, bot, uid, suffix, unix
	assert.Equal(t, "premium", parts[0])
	assert.Equal(t, "bot", parts[1])
	assert.Equal(t, "123", parts[2])
	assert.Len(t, parts[3], 8)
}
