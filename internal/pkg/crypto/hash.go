package crypto

import (
	"crypto/md5" //nolint:gosec // S3 requires Content-MD5
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

// Checksum describes an uploaded backup snapshot.
type Checksum struct {
	Size int64

	// SHA256 is hex encoded and stored as object metadata.
	SHA256 string

	// ContentMD5 is base64 encoded, as the Content-MD5 header expects.
	ContentMD5 string
}

// Sum computes both digests of data.
func Sum(data []byte) Checksum {
	sha := sha256.Sum256(data)
	md := md5.Sum(data) //nolint:gosec
	return Checksum{
		Size:       int64(len(data)),
		SHA256:     hex.EncodeToString(sha[:]),
		ContentMD5: base64.StdEncoding.EncodeToString(md[:]),
	}
}

// ComputeSHA256 is the stored form of a password reset token.
func ComputeSHA256(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// EqualDigest compares two hex digests in constant time.
func EqualDigest(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
