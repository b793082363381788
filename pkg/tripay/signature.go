package tripay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// RequestSignature signs a gateway API call: HMAC-SHA256 over
// "METHOD\n/endpoint\nbody", hex-encoded. Sent in the X-Signature header.
func RequestSignature(privateKey, method, endpoint, body string) string {
	stringToSign := strings.ToUpper(method) + "\n" + endpoint + "\n" + body
	mac := hmac.New(sha256.New, []byte(privateKey))
	mac.Write([]byte(stringToSign))
	return hex.EncodeToString(mac.Sum(nil))
}

// PayloadSignature signs an invoice-creation payload: HMAC-SHA256 over
// merchantCode + merchantRef + amount.
func PayloadSignature(privateKey, merchantCode, merchantRef string, amount int64) string {
	mac := hmac.New(sha256.New, []byte(privateKey))
	fmt.Fprintf(mac, "%s%s%d", merchantCode, merchantRef, amount)
	return hex.EncodeToString(mac.Sum(nil))
}

// CallbackSignature computes the expected signature of a raw callback body.
func CallbackSignature(privateKey string, rawBody []byte) string {
	mac := hmac.New(sha256.New, []byte(privateKey))
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}

func verifyCallbackSignature(privateKey, signature string, rawBody []byte) bool {
	if privateKey == "" {
		return false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(privateKey))
	mac.Write(rawBody)

	return hmac.Equal(provided, mac.Sum(nil))
}
