package polymarket

import (
	"strings"
	"testing"
)

func newTestAuth(t *testing.T) *Auth {
	t.Helper()
	auth, err := NewAuth(Config{
		PrivateKeyHex: "0x0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		ChainID:       137,
		APIKey:        "test-key",
		APISecret:     "dGVzdC1zZWNyZXQ", // base64url, no padding
		APIPassphrase: "test-pass",
	})
	if err != nil {
		t.Fatalf("NewAuth: %v", err)
	}
	return auth
}

func TestHasL2CredentialsRequiresAllThree(t *testing.T) {
	t.Parallel()

	full := newTestAuth(t)
	if !full.HasL2Credentials() {
		t.Fatalf("expected full credentials to report true")
	}

	partial, err := NewAuth(Config{
		PrivateKeyHex: "0x0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		ChainID:       137,
		APIKey:        "only-key",
	})
	if err != nil {
		t.Fatalf("NewAuth: %v", err)
	}
	if partial.HasL2Credentials() {
		t.Fatalf("expected HasL2Credentials to be false when secret/passphrase are missing")
	}
}

func TestL1HeadersSignsClobAuth(t *testing.T) {
	t.Parallel()

	auth := newTestAuth(t)
	headers, err := auth.L1Headers(0)
	if err != nil {
		t.Fatalf("L1Headers: %v", err)
	}

	sig := headers["POLY_SIGNATURE"]
	if !strings.HasPrefix(sig, "0x") {
		t.Fatalf("signature = %q, want 0x-prefixed", sig)
	}
	if headers["POLY_ADDRESS"] != auth.Address().Hex() {
		t.Fatalf("POLY_ADDRESS = %q, want %q", headers["POLY_ADDRESS"], auth.Address().Hex())
	}
	if headers["POLY_NONCE"] != "0" {
		t.Fatalf("POLY_NONCE = %q, want 0", headers["POLY_NONCE"])
	}
}

func TestL2HeadersProducesDeterministicSignatureForFixedTimestamp(t *testing.T) {
	t.Parallel()

	auth := newTestAuth(t)
	sigA, err := auth.buildHMAC("1700000000", "POST", "/orders", `{"a":1}`)
	if err != nil {
		t.Fatalf("buildHMAC: %v", err)
	}
	sigB, err := auth.buildHMAC("1700000000", "POST", "/orders", `{"a":1}`)
	if err != nil {
		t.Fatalf("buildHMAC: %v", err)
	}
	if sigA != sigB {
		t.Fatalf("HMAC signature must be deterministic for identical inputs: %q != %q", sigA, sigB)
	}

	sigDiffBody, err := auth.buildHMAC("1700000000", "POST", "/orders", `{"a":2}`)
	if err != nil {
		t.Fatalf("buildHMAC: %v", err)
	}
	if sigA == sigDiffBody {
		t.Fatalf("expected signature to change when the signed body changes")
	}
}

func TestWSAuthPayloadCarriesCredentials(t *testing.T) {
	t.Parallel()

	auth := newTestAuth(t)
	payload := auth.WSAuthPayload()
	if payload["apiKey"] != "test-key" || payload["passphrase"] != "test-pass" {
		t.Fatalf("unexpected WS auth payload: %+v", payload)
	}
}
