// Package hashutil computes the content digests used for cache-safe
// artifact names.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// DefaultDigestLength is the fragment length used by a bare [hash] token
const DefaultDigestLength = 20

// ContentDigest returns the full lowercase hex SHA256 of content
func ContentDigest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Fragment returns the first n hex characters of the content digest. n is
// clamped to the digest length; n <= 0 selects DefaultDigestLength.
func Fragment(content []byte, n int) string {
	digest := ContentDigest(content)
	if n <= 0 {
		n = DefaultDigestLength
	}
	if n > len(digest) {
		n = len(digest)
	}
	return digest[:n]
}

// CalculateFileChecksum calculates the SHA256 checksum of a file
func CalculateFileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = file.Close()
	}()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}
