package sign

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchangeSignerHeaders(t *testing.T) {
	signer := NewExchangeSigner("test-key", "test-secret")
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	payload := "accountType=UNIFIED"

	headers := signer.headersAt(now, payload)

	ts := strconv.FormatInt(now.UnixMilli(), 10)
	assert.Equal(t, "test-key", headers["X-BAPI-API-KEY"])
	assert.Equal(t, ts, headers["X-BAPI-TIMESTAMP"])
	assert.Equal(t, "5000", headers["X-BAPI-RECV-WINDOW"])
	assert.Equal(t, "application/json", headers["Content-Type"])

	mac := hmac.New(sha256.New, []byte("test-secret"))
	mac.Write([]byte(ts + "test-key" + "5000" + payload))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), headers["X-BAPI-SIGN"])
}

func TestExchangeSignerPayloadChangesSignature(t *testing.T) {
	signer := NewExchangeSigner("test-key", "test-secret")
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	first := signer.headersAt(now, "accountType=UNIFIED")
	second := signer.headersAt(now, `{"coin":"USDT"}`)

	assert.NotEqual(t, first["X-BAPI-SIGN"], second["X-BAPI-SIGN"])
}

func TestPayToken(t *testing.T) {
	token := PayToken("order-1", "2024-05-01T10:00:00Z")

	sum := sha512.Sum512([]byte("order-1" + "2024-05-01T10:00:00Z"))
	assert.Equal(t, hex.EncodeToString(sum[:]), token)
	require.Len(t, token, 128)

	assert.NotEqual(t, token, PayToken("order-2", "2024-05-01T10:00:00Z"))
	assert.NotEqual(t, token, PayToken("order-1", "2024-05-01T10:00:01Z"))
}

func TestLoginSign(t *testing.T) {
	got := LoginSign("api-key", "1714557600000")

	sum := sha256.Sum256([]byte("api-key" + "1714557600000"))
	assert.Equal(t, hex.EncodeToString(sum[:]), got)
}
