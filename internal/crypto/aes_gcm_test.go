package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestSealOpenJSON(t *testing.T) {
	key, err := ParseHexKey(testKeyHex)
	require.NoError(t, err)
	aead, err := NewAESGCM(key)
	require.NoError(t, err)

	sealed, err := SealJSON(aead, map[string]any{"bot_token": "xoxb-secret"})
	require.NoError(t, err)
	assert.NotContains(t, sealed, "xoxb-secret")

	var out map[string]any
	require.NoError(t, OpenJSON(aead, sealed, &out))
	assert.Equal(t, map[string]any{"bot_token": "xoxb-secret"}, out)
}

func TestOpenJSONRejectsTampering(t *testing.T) {
	key, err := ParseHexKey(testKeyHex)
	require.NoError(t, err)
	aead, err := NewAESGCM(key)
	require.NoError(t, err)

	otherKey, err := ParseHexKey(strings.Repeat("ff", 32))
	require.NoError(t, err)
	other, err := NewAESGCM(otherKey)
	require.NoError(t, err)

	sealed, err := SealJSON(aead, map[string]any{"a": 1})
	require.NoError(t, err)

	var out map[string]any
	require.ErrorIs(t, OpenJSON(other, sealed, &out), ErrAuthenticationFailed)
	require.ErrorIs(t, OpenJSON(aead, "AAAA", &out), ErrInvalidCiphertext)
}

func TestParseHexKey(t *testing.T) {
	_, err := ParseHexKey("abcd")
	require.ErrorIs(t, err, ErrInvalidKeySize)

	_, err = ParseHexKey("not-hex")
	require.Error(t, err)
}
