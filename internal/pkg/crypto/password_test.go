package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/freshdeal/internal/config"
)

func TestPlainHasher(t *testing.T) {
	h := PlainHasher{}

	stored, err := h.Hash("pw123456")
	require.NoError(t, err)
	assert.Equal(t, "pw123456", stored)

	ok, err := h.Verify(stored, "pw123456")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(stored, "PW123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)

	stored, err := h.Hash("pw123456")
	require.NoError(t, err)
	assert.NotEqual(t, "pw123456", stored)

	ok, err := h.Verify(stored, "pw123456")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(stored, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.Verify("not-a-hash", "pw123456")
	require.Error(t, err)
}

func TestNewPasswordHasher(t *testing.T) {
	h, err := NewPasswordHasher(config.AuthConfig{PasswordHashing: config.HashingPlain})
	require.NoError(t, err)
	assert.IsType(t, PlainHasher{}, h)

	h, err = NewPasswordHasher(config.AuthConfig{PasswordHashing: config.HashingBcrypt, BcryptCost: 4})
	require.NoError(t, err)
	assert.IsType(t, &BcryptHasher{}, h)

	_, err = NewPasswordHasher(config.AuthConfig{PasswordHashing: "rot13"})
	require.Error(t, err)
}
