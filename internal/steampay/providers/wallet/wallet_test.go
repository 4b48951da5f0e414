package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/M0R1S0N/steampay/internal/steampay/data"
	"github.com/M0R1S0N/steampay/internal/steampay/sign"
	"github.com/M0R1S0N/steampay/pkg/logging"
)

func newClientForTest(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	logger, err := logging.NewZapLogger(zapcore.ErrorLevel)
	require.NoError(t, err)
	return New(Config{BaseURL: server.URL, APIKey: "test-key"}, logger), server
}

func TestBalance(t *testing.T) {
	client, _ := newClientForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get-balance/", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("pw-api-key"))
		w.Write([]byte(`{"status":"success","data":{"balance":"123.45"}}`))
	}))

	balance, err := client.Balance(context.Background())

	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("123.45")))
}

func TestBalanceMalformedResponse(t *testing.T) {
	client, _ := newClientForTest(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"success","data":{"balance":"not-a-number"}}`))
	}))

	balance, err := client.Balance(context.Background())

	require.NoError(t, err, "a malformed balance is treated as zero, not an error")
	assert.True(t, balance.IsZero())
}

func TestBalanceUpstreamError(t *testing.T) {
	client, _ := newClientForTest(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))

	_, err := client.Balance(context.Background())

	var upstream *data.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadGateway, upstream.Status)
}

func TestCreateOrder(t *testing.T) {
	client, _ := newClientForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/create-order/", r.URL.Path)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "code-1", payload["externalId"])
		assert.Equal(t, "9.40", payload["amount"])
		assert.Equal(t, "gamer42", payload["login"])
		w.Write([]byte(`{"status":"success","data":{
			"id":"order-1","externalId":"code-1","serviceId":"steam",
			"amount":9.40,"status":"created","createdDateTime":"2024-05-01T10:00:00Z"}}`))
	}))

	order, err := client.CreateOrder(context.Background(), CreateOrderRequest{
		ExternalID: "code-1",
		ServiceID:  "steam",
		Login:      "gamer42",
		Amount:     decimal.RequireFromString("9.40"),
	})

	require.NoError(t, err)
	assert.Equal(t, "order-1", order.ID)
	assert.Equal(t, "2024-05-01T10:00:00Z", order.CreatedDateTime)
	assert.False(t, order.CreatedAt().IsZero())
}

func TestCreateOrderRejected(t *testing.T) {
	client, _ := newClientForTest(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"error","data":null}`))
	}))

	_, err := client.CreateOrder(context.Background(), CreateOrderRequest{
		ExternalID: "code-1",
		Amount:     decimal.New(1, 0),
	})

	assert.True(t, errors.Is(err, ErrOrderRejected))
}

func TestPayOrderSendsBoundToken(t *testing.T) {
	client, _ := newClientForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pay-order/", r.URL.Path)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "order-1", payload["id"])
		assert.Equal(t, sign.PayToken("order-1", "2024-05-01T10:00:00Z"), payload["token"])
		w.Write([]byte(`{"status":"success","data":{}}`))
	}))

	err := client.PayOrder(context.Background(), "order-1", "code-1", "2024-05-01T10:00:00Z")

	require.NoError(t, err)
}

func TestPayOrderRejected(t *testing.T) {
	client, _ := newClientForTest(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"error"}`))
	}))

	err := client.PayOrder(context.Background(), "order-1", "code-1", "2024-05-01T10:00:00Z")

	assert.True(t, errors.Is(err, ErrPayRejected))
}
