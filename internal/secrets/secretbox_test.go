package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validHexKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestNewSecretBox(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "valid 32-byte hex key", key: validHexKey},
		{name: "invalid hex characters", key: "zz" + validHexKey[2:], wantErr: true},
		{name: "16 byte key", key: validHexKey[:32], wantErr: true},
		{name: "empty key", key: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSecretBox(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSecretBox_RoundTrip(t *testing.T) {
	sb, err := NewSecretBox(validHexKey)
	require.NoError(t, err)

	seed := []byte("SBTESTSEEDVALUE")
	sealed, err := sb.Encrypt(seed)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), string(seed))

	again, err := sb.Encrypt(seed)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per encryption")

	opened, err := sb.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, seed, opened)
}

func TestSecretBox_DecryptRejectsTampering(t *testing.T) {
	sb, err := NewSecretBox(validHexKey)
	require.NoError(t, err)

	sealed, err := sb.Encrypt([]byte("seed"))
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xff
	_, err = sb.Decrypt(sealed)
	assert.ErrorIs(t, err, ErrDecrypt)

	_, err = sb.Decrypt([]byte("short"))
	assert.ErrorIs(t, err, ErrDecrypt)

	other, err := NewSecretBox("ff" + validHexKey[2:])
	require.NoError(t, err)
	sealed, err = sb.Encrypt([]byte("seed"))
	require.NoError(t, err)
	_, err = other.Decrypt(sealed)
	assert.ErrorIs(t, err, ErrDecrypt)
}
