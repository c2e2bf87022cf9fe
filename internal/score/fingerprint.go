package score

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/kingrea/overture/internal/codec"
)

// Hash is a 32-byte BLAKE3 digest.
type Hash [32]byte

// String returns the hex encoding.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// fingerprintDomainKey separates score fingerprints from any other BLAKE3
// use. Changing it invalidates stored fingerprints.
var fingerprintDomainKey = [32]byte{
	'o', 'v', 'e', 'r', 't', 'u', 'r', 'e', '.', 's', 'c', 'o', 'r', 'e', '.',
	'f', 'i', 'n', 'g', 'e', 'r', 'p', 'r', 'i', 'n', 't', 0, 0, 0, 0, 0, 0,
}

// Fingerprint hashes the deterministic CBOR encoding of the score. Two scores
// with the same voices, leaves and overrides share a fingerprint.
func Fingerprint(s *Score) (Hash, error) {
	data, err := codec.Marshal(s)
	if err != nil {
		return Hash{}, fmt.Errorf("score: encode for fingerprint: %w", err)
	}
	hasher, err := blake3.NewKeyed(fingerprintDomainKey[:])
	if err != nil {
		return Hash{}, fmt.Errorf("score: fingerprint hasher: %w", err)
	}
	_, _ = hasher.Write(data)
	var out Hash
	copy(out[:], hasher.Sum(nil))
	return out, nil
}
