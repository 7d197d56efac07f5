package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestDeriveKey(t *testing.T) {
	key, err := DeriveKey(testKeyHex)
	require.NoError(t, err)
	assert.Len(t, key, 32)

	_, err = DeriveKey("abcd")
	assert.Error(t, err)

	_, err = DeriveKey(strings.Repeat("zz", 32))
	assert.Error(t, err)
}

func TestEncryptDecrypt(t *testing.T) {
	key, err := DeriveKey(testKeyHex)
	require.NoError(t, err)

	a, err := Encrypt("p256dh-key", key)
	require.NoError(t, err)
	b, err := Encrypt("p256dh-key", key)
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "nonce must differ between calls")

	plain, err := Decrypt(a, key)
	require.NoError(t, err)
	assert.Equal(t, "p256dh-key", plain)
}

func TestDecrypt_WrongKeyFails(t *testing.T) {
	key, _ := DeriveKey(testKeyHex)
	other, _ := DeriveKey(strings.Repeat("ab", 32))

	sealed, err := Encrypt("secret", key)
	require.NoError(t, err)

	_, err = Decrypt(sealed, other)
	assert.Error(t, err)

	_, err = Decrypt("AAAA", key)
	assert.Error(t, err)
}
