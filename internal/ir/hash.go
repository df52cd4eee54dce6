package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content fingerprints.
// Version suffix enables future algorithm migration.
const (
	DomainRequest  = "rowfilter/request/v1"
	DomainQuerySet = "rowfilter/queryset/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes a stable content hash of v under the given domain.
// Two values that encode to the same canonical JSON share a fingerprint,
// regardless of map iteration order or Unicode normalization form.
func Fingerprint(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// RequestFingerprint hashes a compile request: the policy query, the input
// document and the unknown roots.
func RequestFingerprint(query string, input any, unknowns []string) (string, error) {
	roots := make([]any, len(unknowns))
	for i, u := range unknowns {
		roots[i] = u
	}
	return Fingerprint(DomainRequest, map[string]any{
		"query":    query,
		"input":    input,
		"unknowns": roots,
	})
}
