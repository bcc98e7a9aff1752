package msgtask

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

const HeaderSignature = "X-Line-Signature"

// Sign returns the base64 HMAC-SHA256 of body keyed by secret, as carried in
// the X-Line-Signature header.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature authenticates body under secret.
func VerifySignature(body []byte, signature, secret string) bool {
	return SignatureVerifier{Secret: secret}.Verify(body, signature) == nil
}

type SignatureVerifier struct {
	Secret string
}

func (v SignatureVerifier) Verify(body []byte, signature string) error {
	// The secret keys the HMAC exactly as given so Verify agrees with Sign.
	secret := v.Secret
	if secret == "" {
		return signatureError("msgtask: channel secret is required")
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return signatureError("msgtask: " + HeaderSignature + " header is required")
	}
	decoded, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return signatureError("msgtask: decode base64 signature: " + err.Error())
	}
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	if !hmac.Equal(decoded, mac.Sum(nil)) {
		return signatureError("msgtask: signature verification failed")
	}
	return nil
}

// HeaderValue looks up key in headers ignoring case.
func HeaderValue(headers map[string]string, key string) string {
	if v, ok := headers[key]; ok {
		return v
	}
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), key) {
			return value
		}
	}
	return ""
}
