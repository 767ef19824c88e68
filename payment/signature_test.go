package payment

import (
	"strings"
	"testing"
)

func TestChecksumKeyOrderIndependent(t *testing.T) {
	a := Checksum("secret", map[string]string{
		"amount":     "480000",
		"order_code": "SO-20260301-ABC123",
		"currency":   "vnd",
	})
	b := Checksum("secret", map[string]string{
		"currency":   "vnd",
		"amount":     "480000",
		"order_code": "SO-20260301-ABC123",
	})
	if a != b {
		t.Errorf("checksum depends on map iteration: %s != %s", a, b)
	}
}

func TestChecksumKnownValue(t *testing.T) {
	// HMAC-SHA256("secret", "a=1&b=2")
	const want = "604fe97c66c6393ff22e3cae366eee1131e351ebc736bf12f5d62e1755b7a233"

	got := Checksum("secret", map[string]string{"b": "2", "a": "1"})
	if got != want {
		t.Errorf("Checksum = %s, want %s", got, want)
	}
}

func TestChecksumSensitivity(t *testing.T) {
	base := map[string]string{"amount": "480000", "order_code": "SO-1"}

	ref := Checksum("secret", base)

	if Checksum("other", base) == ref {
		t.Error("checksum ignores the secret")
	}
	if Checksum("secret", map[string]string{"amount": "480001", "order_code": "SO-1"}) == ref {
		t.Error("checksum ignores field values")
	}
}

func TestVerifyChecksum(t *testing.T) {
	fields := map[string]string{"amount": "480000", "order_code": "SO-1"}
	sig := Checksum("secret", fields)

	if !VerifyChecksum("secret", fields, sig) {
		t.Error("valid signature rejected")
	}
	if !VerifyChecksum("secret", fields, strings.ToUpper(sig)) {
		t.Error("uppercase hex signature rejected")
	}
	if VerifyChecksum("secret", fields, "deadbeef") {
		t.Error("bogus signature accepted")
	}
	if VerifyChecksum("wrong", fields, sig) {
		t.Error("wrong secret accepted")
	}
}

func BenchmarkChecksum(b *testing.B) {
	fields := map[string]string{
		"amount":     "480000",
		"order_code": "SO-20260301-ABC123",
		"currency":   "vnd",
		"return_url": "https://shop.example/return",
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Checksum("secret", fields)
	}
}
