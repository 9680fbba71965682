package helpers

import (
	"encoding/base32"
	"strings"
	"testing"
	"time"
)

// RFC 6238 appendix B vectors, truncated from 8 to 6 digits for the SHA1
// reference secret.
func TestVerifyTOTP_RFCVectors(t *testing.T) {
	t.Parallel()

	secret := base32.StdEncoding.WithPadding(base32.NoPadding).
		EncodeToString([]byte("12345678901234567890"))

	cases := []struct {
		ts   int64
		code string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
		{2000000000, "279037"},
		{20000000000, "353130"},
	}
	for _, tc := range cases {
		ok, err := VerifyTOTP(secret, tc.code, 0, time.Unix(tc.ts, 0))
		if err != nil {
			t.Fatalf("VerifyTOTP(t=%d) error: %v", tc.ts, err)
		}
		if !ok {
			t.Fatalf("vector failed at t=%d code=%s", tc.ts, tc.code)
		}
	}
}

func TestVerifyTOTP_SkewWindow(t *testing.T) {
	t.Parallel()

	secret, err := GenerateTOTPSecret()
	if err != nil {
		t.Fatalf("GenerateTOTPSecret error: %v", err)
	}
	now := time.Unix(1700000000, 0)

	prev, err := TOTPCodeAt(secret, now, -1)
	if err != nil {
		t.Fatalf("TOTPCodeAt error: %v", err)
	}

	// The previous step's code passes with skew 1 but not with skew 0.
	if ok, _ := VerifyTOTP(secret, prev, 1, now); !ok {
		t.Fatalf("previous-step code rejected with skew 1")
	}
	if ok, _ := VerifyTOTP(secret, prev, 0, now); ok {
		t.Fatalf("previous-step code accepted with skew 0")
	}

	next, _ := TOTPCodeAt(secret, now, 1)
	if ok, _ := VerifyTOTP(secret, next, 1, now); !ok {
		t.Fatalf("next-step code rejected with skew 1")
	}

	// Codes well outside the window never pass.
	far, _ := TOTPCodeAt(secret, now, 3)
	if ok, _ := VerifyTOTP(secret, far, 1, now); ok {
		t.Fatalf("+3 step code accepted with skew 1")
	}
}

func TestVerifyTOTP_MalformedInput(t *testing.T) {
	t.Parallel()

	secret, _ := GenerateTOTPSecret()
	now := time.Now()

	for _, code := range []string{"", "12345", "1234567", "12a456"} {
		ok, err := VerifyTOTP(secret, code, 1, now)
		if err != nil || ok {
			t.Fatalf("VerifyTOTP(%q): want (false, nil), got (%v, %v)", code, ok, err)
		}
	}

	if _, err := VerifyTOTP("not base32 !!!", "123456", 0, now); err == nil {
		t.Fatalf("malformed secret: want error, got nil")
	}
}

func TestGenerateTOTPSecret_Shape(t *testing.T) {
	t.Parallel()

	a, err := GenerateTOTPSecret()
	if err != nil {
		t.Fatalf("GenerateTOTPSecret error: %v", err)
	}
	b, _ := GenerateTOTPSecret()
	if a == b {
		t.Fatalf("two generated secrets are identical")
	}
	if strings.Contains(a, "=") {
		t.Fatalf("secret contains base32 padding: %q", a)
	}
	if _, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(a); err != nil {
		t.Fatalf("secret is not valid base32: %v", err)
	}
}

func TestTOTPProvisionURI(t *testing.T) {
	t.Parallel()

	uri := TOTPProvisionURI("Huddle", "user@example.com", "ABC234")
	if !strings.HasPrefix(uri, "otpauth://totp/") {
		t.Fatalf("unexpected scheme: %q", uri)
	}
	for _, want := range []string{"secret=ABC234", "issuer=Huddle", "digits=6", "period=30", "algorithm=SHA1"} {
		if !strings.Contains(uri, want) {
			t.Fatalf("uri missing %q: %s", want, uri)
		}
	}
}
