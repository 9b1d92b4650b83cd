// momo-gateway/internal/momo/signature.go
package momo

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// CreateCanonical builds the raw signature string for a create request.
// Keys are in the gateway's fixed order and values are not escaped.
func CreateCanonical(accessKey string, r CreateRequest) string {
	return fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=%s",
		accessKey, r.Amount, r.ExtraData, r.IPNURL, r.OrderID, r.OrderInfo, r.PartnerCode, r.RedirectURL, r.RequestID, r.RequestType,
	)
}

func QueryCanonical(accessKey string, r QueryRequest) string {
	return fmt.Sprintf(
		"accessKey=%s&orderId=%s&partnerCode=%s&requestId=%s",
		accessKey, r.OrderID, r.PartnerCode, r.RequestID,
	)
}

// Sign returns hex(HMAC-SHA256(secret, canonical)).
func Sign(secret, canonical string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares in constant time.
func Verify(secret, canonical, signature string) bool {
	want, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hmac.Equal(mac.Sum(nil), want)
}
