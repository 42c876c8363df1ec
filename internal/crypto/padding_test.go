package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadUnpad(t *testing.T) {
	value := []byte("foo.com:\n  password: bar\n")

	padded, err := Pad(value, PadMin, PadMax)
	require.NoError(t, err)

	extra := len(padded) - len(value) - lengthPrefix
	assert.GreaterOrEqual(t, extra, PadMin)
	assert.LessOrEqual(t, extra, PadMax)

	unpadded, err := Unpad(padded)
	require.NoError(t, err)
	assert.Equal(t, value, unpadded)
}

func TestPadLengthVaries(t *testing.T) {
	seen := make(map[int]bool)
	for range 20 {
		padded, err := Pad([]byte("x"), 0, 64)
		require.NoError(t, err)
		seen[len(padded)] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestPadFixedRange(t *testing.T) {
	padded, err := Pad([]byte("abc"), 8, 8)
	require.NoError(t, err)
	assert.Len(t, padded, lengthPrefix+3+8)
}

func TestPadInvalidRange(t *testing.T) {
	_, err := Pad([]byte("x"), 10, 5)
	assert.Error(t, err)
	_, err = Pad([]byte("x"), -1, 5)
	assert.Error(t, err)
}

func TestUnpadRejectsGarbage(t *testing.T) {
	_, err := Unpad([]byte{0x01})
	assert.ErrorIs(t, err, ErrInvalidPadding)

	_, err = Unpad([]byte{0xff, 0xff, 0xff, 0xff, 'a'})
	assert.ErrorIs(t, err, ErrInvalidPadding)
}
