// Package gbkcodec provides the GBK wire/disk encoding and the content
// fingerprint used throughout the client. The original implementation
// computes its change-detection MD5 over GBK bytes, not UTF-8; reproducing
// that exactly is load-bearing, since a UTF-8 fingerprint would never
// converge with what the server reports as changed (see spec.md §9).
package gbkcodec

import (
	"crypto/md5"
	"encoding/hex"

	"golang.org/x/text/encoding/simplifiedchinese"
)

// Encode converts a UTF-8 string to its GBK byte representation.
func Encode(s string) ([]byte, error) {
	out, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Decode converts GBK-encoded bytes to a UTF-8 string.
func Decode(b []byte) (string, error) {
	out, err := simplifiedchinese.GBK.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Fingerprint returns the lowercase hex MD5 of the GBK encoding of content.
// An empty fingerprint ("") is reserved to mean "no local value" and is
// never produced by this function, even for empty input — callers that
// want that sentinel use the empty string directly rather than calling
// Fingerprint on nil/empty content.
func Fingerprint(content string) (string, error) {
	encoded, err := Encode(content)
	if err != nil {
		return "", err
	}
	h := md5.New()
	h.Write(encoded)
	return hex.EncodeToString(h.Sum(nil)), nil
}
