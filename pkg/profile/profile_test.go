package profile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return []byte("01234567890123456789012345678901")
}

func TestStore_SaveGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "profiles.json"), testKey())
	require.NoError(t, err)
	defer s.Close()

	saved, err := s.Save(Profile{Name: "dev", AccessKey: "AKIA...", SecretKey: "shh"})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	assert.Equal(t, "us-east-1", saved.Region)

	got, ok, err := s.Get(saved.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "dev", got.Name)
	assert.Equal(t, "AKIA...", got.AccessKey)
	assert.Equal(t, "shh", got.SecretKey)
}

// Encrypt -> decrypt round trips, and two encrypts of the same
// plaintext differ (random nonce) but both decrypt identically.
func TestStore_CiphertextsDifferButDecryptSame(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "profiles.json"), testKey())
	require.NoError(t, err)
	defer s.Close()

	p1, err := s.Save(Profile{Name: "a", AccessKey: "same-key", SecretKey: "s"})
	require.NoError(t, err)
	p2, err := s.Save(Profile{Name: "b", AccessKey: "same-key", SecretKey: "s"})
	require.NoError(t, err)

	s.mu.RLock()
	ct1 := s.profiles[p1.ID].AccessKeyCT
	ct2 := s.profiles[p2.ID].AccessKeyCT
	s.mu.RUnlock()

	assert.NotEqual(t, ct1, ct2)

	got1, _, err := s.Get(p1.ID)
	require.NoError(t, err)
	got2, _, err := s.Get(p2.ID)
	require.NoError(t, err)
	assert.Equal(t, "same-key", got1.AccessKey)
	assert.Equal(t, "same-key", got2.AccessKey)
}

func TestStore_DeleteRemovesProfile(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "profiles.json"), testKey())
	require.NoError(t, err)
	defer s.Close()

	p, err := s.Save(Profile{Name: "dev", AccessKey: "a", SecretKey: "b"})
	require.NoError(t, err)

	ok, err := s.Delete(p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = s.Get(p.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_MigratesUnencryptedProfileOnLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.json")

	raw := fileFormat{
		Version: 1,
		Profiles: map[string]EncryptedProfile{
			"legacy": {
				ID: "legacy", Name: "legacy", AccessKeyCT: "plaintext-access", SecretKeyCT: "plaintext-secret",
				Encrypted: false,
			},
		},
	}
	data, err := json.Marshal(raw)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	s, err := Open(path, testKey())
	require.NoError(t, err)
	defer s.Close()

	got, ok, err := s.Get("legacy")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "plaintext-access", got.AccessKey)

	s.mu.RLock()
	migrated := s.profiles["legacy"]
	version := s.version
	s.mu.RUnlock()
	assert.True(t, migrated.Encrypted)
	assert.Greater(t, version, 1)
}

func TestSanitizeID(t *testing.T) {
	sanitized, err := SanitizeID("abc-123_XYZ!!")
	require.NoError(t, err)
	assert.Equal(t, "abc-123_XYZ", sanitized)

	_, err = SanitizeID("!!!")
	assert.Error(t, err)
}
