package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
)

const (
	PadMin = 1024
	PadMax = 4096

	lengthPrefix = 4
)

var ErrInvalidPadding = errors.New("invalid padding")

// Pad prefixes value with its length and appends between min and max
// random filler bytes.
func Pad(value []byte, min, max int) ([]byte, error) {
	if min < 0 || max < min {
		return nil, fmt.Errorf("invalid padding range %d..%d", min, max)
	}

	span, err := rand.Int(rand.Reader, big.NewInt(int64(max-min+1)))
	if err != nil {
		return nil, fmt.Errorf("failed to choose padding length: %w", err)
	}
	filler, err := GenerateRandom(min + int(span.Int64()))
	if err != nil {
		return nil, err
	}

	padded := make([]byte, lengthPrefix, lengthPrefix+len(value)+len(filler))
	binary.BigEndian.PutUint32(padded, uint32(len(value)))
	padded = append(padded, value...)
	padded = append(padded, filler...)

	return padded, nil
}

// Unpad returns the value wrapped by Pad. The result aliases padded.
func Unpad(padded []byte) ([]byte, error) {
	if len(padded) < lengthPrefix {
		return nil, ErrInvalidPadding
	}
	n := binary.BigEndian.Uint32(padded)
	if uint64(n) > uint64(len(padded)-lengthPrefix) {
		return nil, ErrInvalidPadding
	}
	return padded[lengthPrefix : lengthPrefix+int(n)], nil
}
