package domain

import (
	"encoding/hex"
	"fmt"
)

const HashSize = 32

// Hash is a 256-bit block digest.
type Hash [HashSize]byte

var NullHash = Hash{}

// ParseHash decodes a 64 characters hex string into a Hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	if len(s) != 2*HashSize {
		return h, fmt.Errorf(
			"%w: expected %d hex characters, got %d", ErrInvalidHash, 2*HashSize, len(s),
		)
	}
	buf, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("%w: %s", ErrInvalidHash, err)
	}
	copy(h[:], buf)
	return h, nil
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) IsNull() bool {
	return h == NullHash
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}
