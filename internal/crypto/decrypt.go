package crypto

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/AlexZinkM/encrypted-adventure/internal/model"
)

// ErrInvalidPassword is returned when the keystore cannot be opened
var ErrInvalidPassword = errors.New("invalid password")

// DecryptKeystore reads and decrypts a keystore file.
// password must be []byte (caller should zero it after use).
// Caller should clear WalletData.PrivateKey when done.
func DecryptKeystore(filePath string, password []byte) (*model.KeystoreFile, *model.WalletData, error) {
	ks, err := ReadKeystore(filePath)
	if err != nil {
		return nil, nil, err
	}

	salt, err := base64.StdEncoding.DecodeString(ks.Salt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(ks.Nonce)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(ks.CipherText)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return nil, nil, err
	}
	if len(nonce) != aesGCM.NonceSize() {
		return nil, nil, fmt.Errorf("invalid nonce length %d", len(nonce))
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, additionalData(ks.Address))
	if err != nil {
		return nil, nil, ErrInvalidPassword
	}
	defer clear(plaintext)

	var walletData model.WalletData
	if err := json.Unmarshal(plaintext, &walletData); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal wallet data: %w", err)
	}

	return ks, &walletData, nil
}

// ReadKeystore reads the keystore metadata without decrypting it
func ReadKeystore(filePath string) (*model.KeystoreFile, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("file does not exist")
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if fileInfo.Size() == 0 {
		return nil, errors.New("file is empty")
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	fileData = bytes.TrimPrefix(fileData, utf8BOM)

	var ks model.KeystoreFile
	if err := json.Unmarshal(fileData, &ks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keystore: %w", err)
	}
	return &ks, nil
}

// ReadKeystoreAddress reads only the address from a keystore (without decryption)
func ReadKeystoreAddress(filePath string) (string, error) {
	ks, err := ReadKeystore(filePath)
	if err != nil {
		return "", err
	}
	return ks.Address, nil
}
