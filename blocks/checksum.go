package blocks

import (
	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// Checksum computes checksum of bytes. Multiple parts are hashed as if they were concatenated.
func Checksum(parts ...[]byte) Hash {
	if len(parts) == 1 {
		return Hash(xxhash.Sum64(parts[0]))
	}

	d := xxhash.New()
	for _, p := range parts {
		_, _ = d.Write(p)
	}
	return Hash(d.Sum64())
}

// VerifyChecksum verifies that checksum of provided data matches the expected one.
func VerifyChecksum(what string, expectedChecksum Hash, parts ...[]byte) error {
	checksum := Checksum(parts...)
	if checksum == expectedChecksum {
		return nil
	}
	return errors.Errorf("checksum mismatch for %s, computed: %016x, expected: %016x",
		what, uint64(checksum), uint64(expectedChecksum))
}
