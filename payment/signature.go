package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Checksum signs a set of request fields the way bank gateways expect:
// keys sorted lexicographically, joined as "k1=v1&k2=v2", HMAC-SHA256
// with the shared secret, hex-encoded. Field order in the input map never
// affects the result.
func Checksum(secret string, fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(fields[k])
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(sb.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyChecksum recomputes the checksum and compares it to the supplied
// signature in constant time.
func VerifyChecksum(secret string, fields map[string]string, signature string) bool {
	want := Checksum(secret, fields)
	return hmac.Equal([]byte(want), []byte(strings.ToLower(signature)))
}
