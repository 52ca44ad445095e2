package persist

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

var (
	ErrChecksum  = errors.New("save checksum mismatch")
	ErrTruncated = errors.New("save file truncated")
)

// Seal appends a BLAKE2b-256 digest of payload.
func Seal(payload []byte) []byte {
	sum := blake2b.Sum256(payload)
	out := make([]byte, 0, len(payload)+blake2b.Size256)
	out = append(out, payload...)
	return append(out, sum[:]...)
}

// Open verifies and strips the trailer added by Seal.
func Open(sealed []byte) ([]byte, error) {
	if len(sealed) < blake2b.Size256 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(sealed))
	}
	n := len(sealed) - blake2b.Size256
	payload, trailer := sealed[:n], sealed[n:]
	sum := blake2b.Sum256(payload)
	if !bytes.Equal(sum[:], trailer) {
		return nil, ErrChecksum
	}
	return payload, nil
}

// Checksum returns the digest Seal would append.
func Checksum(payload []byte) []byte {
	sum := blake2b.Sum256(payload)
	return sum[:]
}
