package msgtask

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestSignRoundTrip(t *testing.T) {
	bodies := [][]byte{
		nil,
		[]byte(`{"events":[]}`),
		[]byte(`{"destination":"U1","events":[{"type":"message","message":{"type":"text","text":"こんにちは"}}]}`),
	}
	secrets := []string{"channel-secret", "secret ", " secret", "\tsecret\n"}
	for _, secret := range secrets {
		for _, body := range bodies {
			sig := Sign(body, secret)
			if !VerifySignature(body, sig, secret) {
				t.Fatalf("expected signature for %q under secret %q to verify", body, secret)
			}
		}
	}
}

func TestVerifySignatureSecretIsExact(t *testing.T) {
	body := []byte(`{"events":[]}`)
	if VerifySignature(body, Sign(body, "secret"), "secret ") {
		t.Fatalf("padded secret must not verify a signature made with the bare secret")
	}
}

func TestVerifySignatureRejects(t *testing.T) {
	body := []byte(`{"events":[]}`)
	valid := Sign(body, "secret")

	cases := []struct {
		name      string
		body      []byte
		signature string
		secret    string
	}{
		{name: "missing header", body: body, signature: "", secret: "secret"},
		{name: "blank header", body: body, signature: "   ", secret: "secret"},
		{name: "wrong secret", body: body, signature: valid, secret: "other"},
		{name: "empty secret", body: body, signature: Sign(body, ""), secret: ""},
		{name: "tampered body", body: []byte(`{"events":[{}]}`), signature: valid, secret: "secret"},
		{name: "not base64", body: body, signature: "%%%not-base64", secret: "secret"},
		{name: "truncated digest", body: body, signature: valid[:10], secret: "secret"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if VerifySignature(tc.body, tc.signature, tc.secret) {
				t.Fatalf("expected verification to fail")
			}
		})
	}
}

func TestSignatureVerifierClassifiesFailure(t *testing.T) {
	err := SignatureVerifier{Secret: "secret"}.Verify([]byte("{}"), "AAAA")
	if err == nil {
		t.Fatalf("expected error")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryAuth {
		t.Fatalf("expected auth category, got %v", rich.Category)
	}
	if rich.TextCode != TextCodeSignatureInvalid {
		t.Fatalf("expected %s, got %q", TextCodeSignatureInvalid, rich.TextCode)
	}
}

func TestHeaderValueIgnoresCase(t *testing.T) {
	headers := map[string]string{"x-line-signature": "abc"}
	if got := HeaderValue(headers, HeaderSignature); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
	if got := HeaderValue(nil, HeaderSignature); got != "" {
		t.Fatalf("expected empty value, got %q", got)
	}
}
