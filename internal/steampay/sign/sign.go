// Package sign builds authentication material for the three provider schemes.
// None of the functions here perform I/O or fail; an unusable credential only
// surfaces once the signed request is rejected upstream.
package sign

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"strconv"
	"time"
)

// RecvWindow is the fixed exchange receive window, signed into every request.
const RecvWindow = "5000"

// ExchangeSigner produces the exchange's v5 header set: HMAC-SHA256 over
// timestamp + api key + recv window + payload, where payload is the raw query
// string for GET requests and the compact JSON body for POST requests.
type ExchangeSigner struct {
	apiKey    string
	apiSecret string
}

func NewExchangeSigner(apiKey, apiSecret string) *ExchangeSigner {
	return &ExchangeSigner{
		apiKey:    apiKey,
		apiSecret: apiSecret,
	}
}

func (s *ExchangeSigner) QueryHeaders(query string) map[string]string {
	return s.headersAt(time.Now(), query)
}

func (s *ExchangeSigner) BodyHeaders(body []byte) map[string]string {
	return s.headersAt(time.Now(), string(body))
}

func (s *ExchangeSigner) headersAt(now time.Time, payload string) map[string]string {
	ts := strconv.FormatInt(now.UnixMilli(), 10)
	return map[string]string{
		"X-BAPI-API-KEY":     s.apiKey,
		"X-BAPI-SIGN":        s.signature(ts, payload),
		"X-BAPI-TIMESTAMP":   ts,
		"X-BAPI-RECV-WINDOW": RecvWindow,
		"Content-Type":       "application/json",
	}
}

func (s *ExchangeSigner) signature(ts, payload string) string {
	mac := hmac.New(sha256.New, []byte(s.apiSecret))
	mac.Write([]byte(ts + s.apiKey + RecvWindow + payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// PayToken is the one-time settlement token: SHA-512 over the order id and
// the provider-issued creation timestamp, exactly as received. Binding the
// token to both values keeps it useless against any other order.
func PayToken(orderID, createdDateTime string) string {
	sum := sha512.Sum512([]byte(orderID + createdDateTime))
	return hex.EncodeToString(sum[:])
}

// LoginSign authenticates the marketplace apilogin exchange:
// SHA-256 over the api key and a millisecond timestamp.
func LoginSign(apiKey, tsMillis string) string {
	sum := sha256.Sum256([]byte(apiKey + tsMillis))
	return hex.EncodeToString(sum[:])
}
