package cryptoutil

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, KeySize)
}

// Encrypt → decrypt round-trips, and two encrypts of the same plaintext
// differ (random nonce) yet both decrypt to the original.
func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	box, err := NewBox(testKey())
	require.NoError(t, err)

	ct1, err := box.EncryptString("super-secret-key")
	require.NoError(t, err)
	ct2, err := box.EncryptString("super-secret-key")
	require.NoError(t, err)
	assert.NotEqual(t, ct1, ct2)

	for _, ct := range []string{ct1, ct2} {
		pt, err := box.DecryptString(ct)
		require.NoError(t, err)
		assert.Equal(t, "super-secret-key", pt)
	}
}

func TestNewBox_RejectsWrongKeySize(t *testing.T) {
	_, err := NewBox([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestDecrypt_RejectsTamperedCiphertext(t *testing.T) {
	box, err := NewBox(testKey())
	require.NoError(t, err)

	ct, err := box.EncryptString("payload")
	require.NoError(t, err)

	tampered := []byte(ct)
	tampered[len(tampered)-2] ^= 'x'
	_, err = box.DecryptString(string(tampered))
	assert.Error(t, err)
}

func TestDecrypt_RejectsShortCiphertext(t *testing.T) {
	box, err := NewBox(testKey())
	require.NoError(t, err)

	_, err = box.Decrypt("AAAA")
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestDecrypt_WrongKeyFails(t *testing.T) {
	box1, err := NewBox(testKey())
	require.NoError(t, err)
	box2, err := NewBox(bytes.Repeat([]byte{0x43}, KeySize))
	require.NoError(t, err)

	ct, err := box1.EncryptString("payload")
	require.NoError(t, err)
	_, err = box2.DecryptString(ct)
	assert.Error(t, err)
}

func TestLoadOrCreateKeyFile_CreatesThenReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "profile.key")

	key1, err := LoadOrCreateKeyFile(path)
	require.NoError(t, err)
	assert.Len(t, key1, KeySize)

	key2, err := LoadOrCreateKeyFile(path)
	require.NoError(t, err)
	assert.Equal(t, key1, key2)
}
