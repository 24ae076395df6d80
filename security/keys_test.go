package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicKeyPEM(t *testing.T) {
	_, pub := testKeyPair(t)

	t.Run("round trips", func(t *testing.T) {
		data, err := MarshalPublicKeyPEM(pub)
		require.NoError(t, err)
		assert.Contains(t, string(data), "BEGIN PUBLIC KEY")

		got, err := ParsePublicKeyPEM(data)
		require.NoError(t, err)
		assert.Equal(t, pub, got)
	})

	t.Run("rejects non-PEM input", func(t *testing.T) {
		_, err := ParsePublicKeyPEM([]byte("not a key"))
		assert.Error(t, err)
	})
}

func TestPrivateKeyPEM(t *testing.T) {
	priv, _ := testKeyPair(t)

	data, err := MarshalPrivateKeyPEM(priv)
	require.NoError(t, err)
	assert.Contains(t, string(data), "BEGIN PRIVATE KEY")

	got, err := ParsePrivateKeyPEM(data)
	require.NoError(t, err)
	assert.True(t, priv.Equal(got))
}

func TestLoadPublicKeyPEM(t *testing.T) {
	_, pub := testKeyPair(t)

	t.Run("loads the out-of-band file", func(t *testing.T) {
		data, err := MarshalPublicKeyPEM(pub)
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "public_key.pem")
		require.NoError(t, os.WriteFile(path, data, 0o600))

		got, err := LoadPublicKeyPEM(path)
		require.NoError(t, err)
		assert.Equal(t, pub, got)
	})

	t.Run("reports a missing file", func(t *testing.T) {
		_, err := LoadPublicKeyPEM(filepath.Join(t.TempDir(), "absent.pem"))
		assert.Error(t, err)
	})
}
