package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/M0R1S0N/steampay/pkg/logging"
)

const (
	testAPIKey    = "test-key"
	testAPISecret = "test-secret"
)

func newClientForTest(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	logger, err := logging.NewZapLogger(zapcore.ErrorLevel)
	require.NoError(t, err)
	return New(Config{
		BaseURL:   server.URL,
		APIKey:    testAPIKey,
		APISecret: testAPISecret,
		UID:       "uid-1",
	}, logger)
}

func expectedSignature(t *testing.T, ts, payload string) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(testAPISecret))
	mac.Write([]byte(ts + testAPIKey + "5000" + payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestBalanceSignedOverQuery(t *testing.T) {
	client := newClientForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/account/wallet-balance", r.URL.Path)
		assert.Equal(t, "accountType=UNIFIED", r.URL.RawQuery)
		assert.Equal(t, testAPIKey, r.Header.Get("X-BAPI-API-KEY"))
		assert.Equal(t, "5000", r.Header.Get("X-BAPI-RECV-WINDOW"))
		ts := r.Header.Get("X-BAPI-TIMESTAMP")
		require.NotEmpty(t, ts)
		assert.Equal(t, expectedSignature(t, ts, r.URL.RawQuery), r.Header.Get("X-BAPI-SIGN"))
		w.Write([]byte(`{"result":{"list":[{"coin":[
			{"coin":"BTC","walletBalance":"0.5"},
			{"coin":"USDT","walletBalance":"150.25"}]}]}}`))
	}))

	balance, err := client.Balance(context.Background())

	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("150.25")))
}

func TestBalanceNoUSDT(t *testing.T) {
	client := newClientForTest(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"result":{"list":[{"coin":[{"coin":"BTC","walletBalance":"0.5"}]}]}}`))
	}))

	balance, err := client.Balance(context.Background())

	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestTransferSignsSentBytes(t *testing.T) {
	client := newClientForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/asset/transfer/inter-transfer", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		ts := r.Header.Get("X-BAPI-TIMESTAMP")
		assert.Equal(t, expectedSignature(t, ts, string(body)), r.Header.Get("X-BAPI-SIGN"),
			"signature must cover the exact transmitted bytes")

		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, float64(2), payload["transferType"])
		assert.Equal(t, "USDT", payload["coin"])
		assert.Equal(t, "120", payload["amount"])
		assert.Equal(t, "uid-1", payload["toUserId"])
		w.Write([]byte(`{"retCode":0,"retMsg":"success"}`))
	}))

	result, err := client.Transfer(context.Background(), decimal.NewFromInt(120))

	require.NoError(t, err)
	assert.Equal(t, "success", result.RetMsg)
}

func TestTransferRejected(t *testing.T) {
	client := newClientForTest(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"retCode":131200,"retMsg":"insufficient balance"}`))
	}))

	result, err := client.Transfer(context.Background(), decimal.NewFromInt(120))

	require.Error(t, err)
	assert.Equal(t, 131200, result.RetCode)
	assert.Contains(t, err.Error(), "insufficient balance")
}
