package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePassword(t *testing.T) {
	p1, err := GeneratePassword(30, 5, 5)
	require.NoError(t, err)
	assert.Len(t, p1, 30)

	p2, err := GeneratePassword(30, 5, 5)
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)

	_, err = GeneratePassword(4, 5, 5)
	assert.Error(t, err)
}

func TestGeneratePassphrase(t *testing.T) {
	p, err := GeneratePassphrase(5)
	require.NoError(t, err)
	// some diceware words are hyphenated themselves
	assert.GreaterOrEqual(t, len(strings.Split(p, "-")), 5)

	_, err = GeneratePassphrase(0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
