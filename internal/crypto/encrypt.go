package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlexZinkM/encrypted-adventure/internal/model"

	"golang.org/x/crypto/scrypt"
)

// KeystoreExt is the required extension of keystore files
const KeystoreExt = ".keystore"

// scrypt parameters. N=2^18 costs ~256MB and 0.5-2s per unlock.
// Variables so tests can lower the cost.
var (
	scryptN = 1 << 18
	scryptR = 8
	scryptP = 1
)

const (
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrKeystoreExists is returned when the target keystore already holds data
var ErrKeystoreExists = errors.New("keystore file is not empty")

// EncryptKeystore encrypts wallet data and writes it to filePath.
// The address is bound to the ciphertext as additional data, so editing it
// in the file makes decryption fail.
// password must be []byte (caller should zero it after use)
func EncryptKeystore(filePath string, meta model.KeystoreFile, walletData *model.WalletData, password []byte) error {
	if filepath.Ext(filePath) != KeystoreExt {
		return fmt.Errorf("file must have %s extension", KeystoreExt)
	}
	if fileInfo, err := os.Stat(filePath); err == nil && fileInfo.Size() > 0 {
		return fmt.Errorf("%s: %w", filePath, ErrKeystoreExists)
	}

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return err
	}

	plaintext, err := json.Marshal(walletData)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet data: %w", err)
	}
	defer clear(plaintext)

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, additionalData(meta.Address))

	meta.Salt = base64.StdEncoding.EncodeToString(salt)
	meta.Nonce = base64.StdEncoding.EncodeToString(nonce)
	meta.CipherText = base64.StdEncoding.EncodeToString(ciphertext)

	fileData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal keystore: %w", err)
	}

	// BOM keeps Windows editors from mangling the file
	if err := os.WriteFile(filePath, append(append([]byte{}, utf8BOM...), fileData...), 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func newGCM(password, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}

func additionalData(address string) []byte {
	return []byte(strings.ToLower(address))
}
