package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix tracks IRVersion.
const (
	DomainDescriptor = "reqlgate/descriptor/v" + IRVersion
	DomainResult     = "reqlgate/result/v" + IRVersion
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the content-addressed identity of a canonical
// descriptor encoding. Two structurally equal descriptors always share a
// fingerprint; the raw query text is not part of it, so whitespace and quote
// style do not matter.
func Fingerprint(descriptor IRObject) (string, error) {
	canonical, err := MarshalCanonical(descriptor)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDescriptor, canonical), nil
}

// ResultHash computes a digest of a normalized result set. The history
// store keeps it so two executions can be compared without keeping the data.
func ResultHash(documents any) (string, error) {
	canonical, err := MarshalCanonical(documents)
	if err != nil {
		return "", fmt.Errorf("ResultHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainResult, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFingerprint(descriptor IRObject) string {
	fp, err := Fingerprint(descriptor)
	if err != nil {
		panic(err)
	}
	return fp
}
