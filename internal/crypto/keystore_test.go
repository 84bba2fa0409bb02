package crypto

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/AlexZinkM/encrypted-adventure/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// keep unit tests fast
	scryptN = 1 << 10
}

const testAddress = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

func writeTestKeystore(t *testing.T, password string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "player.keystore")
	err := EncryptKeystore(path,
		model.KeystoreFile{Network: "sepolia", ChainID: 11155111, Address: testAddress},
		&model.WalletData{PrivateKey: []byte{1, 2, 3, 4}, CreatedAt: "2025-01-01T00:00:00Z"},
		[]byte(password))
	require.NoError(t, err)
	return path
}

func TestKeystoreRoundTrip(t *testing.T) {
	path := writeTestKeystore(t, "correct horse")

	ks, wd, err := DecryptKeystore(path, []byte("correct horse"))
	require.NoError(t, err)
	assert.Equal(t, testAddress, ks.Address)
	assert.Equal(t, uint64(11155111), ks.ChainID)
	assert.Equal(t, []byte{1, 2, 3, 4}, wd.PrivateKey)

	addr, err := ReadKeystoreAddress(path)
	require.NoError(t, err)
	assert.Equal(t, testAddress, addr)
}

func TestKeystoreWrongPassword(t *testing.T) {
	path := writeTestKeystore(t, "correct horse")

	_, _, err := DecryptKeystore(path, []byte("battery staple"))
	require.ErrorIs(t, err, ErrInvalidPassword)
}

func TestKeystoreAddressIsBound(t *testing.T) {
	path := writeTestKeystore(t, "pw")

	ks, err := ReadKeystore(path)
	require.NoError(t, err)
	ks.Address = "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"
	data, err := json.Marshal(ks)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0600))

	_, _, err = DecryptKeystore(path, []byte("pw"))
	require.ErrorIs(t, err, ErrInvalidPassword)
}

func TestKeystoreRefusesOverwrite(t *testing.T) {
	path := writeTestKeystore(t, "pw")

	err := EncryptKeystore(path, model.KeystoreFile{Address: testAddress}, &model.WalletData{}, []byte("pw"))
	require.True(t, errors.Is(err, ErrKeystoreExists))
}

func TestKeystoreExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.json")
	err := EncryptKeystore(path, model.KeystoreFile{}, &model.WalletData{}, []byte("pw"))
	require.Error(t, err)
}

func TestReadKeystoreMissing(t *testing.T) {
	_, err := ReadKeystore(filepath.Join(t.TempDir(), "none.keystore"))
	require.EqualError(t, err, "file does not exist")
}
