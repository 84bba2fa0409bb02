package adventure

import (
	"crypto/ecdsa"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/encrypted-adventure/internal/common"
	"github.com/AlexZinkM/encrypted-adventure/internal/crypto"
	"github.com/AlexZinkM/encrypted-adventure/internal/model"

	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/skip2/go-qrcode"
)

// IsFileExistsError checks if err means the keystore already holds a wallet
func IsFileExistsError(err error) bool {
	return errors.Is(err, crypto.ErrKeystoreExists)
}

// GenerateWallet generates a new wallet and saves it to a .keystore file.
// Returns the generated address on success.
// password must be []byte for security (caller should zero it after use)
func GenerateWallet(filePath string, chainID uint64, password []byte) (address string, err error) {
	key, err := gethcrypto.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	defer clear(key.D.Bits())

	return saveKey(filePath, chainID, key, password)
}

// ImportWallet encrypts an existing hex private key into a .keystore file
func ImportWallet(filePath string, chainID uint64, privateKeyHex string, password []byte) (address string, err error) {
	raw, err := hexutil.Decode(common.WithHexPrefix(privateKeyHex))
	if err != nil {
		return "", errors.New("private key must be 32 bytes of hex")
	}
	defer clear(raw)

	key, err := gethcrypto.ToECDSA(raw)
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	defer clear(key.D.Bits())

	return saveKey(filePath, chainID, key, password)
}

func saveKey(filePath string, chainID uint64, key *ecdsa.PrivateKey, password []byte) (string, error) {
	address := gethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	qrCode, err := generateQRCode(address)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}

	privateKey := gethcrypto.FromECDSA(key)
	defer clear(privateKey)

	meta := model.KeystoreFile{
		Network: networkName(chainID),
		ChainID: chainID,
		Address: address,
		QR:      qrCode,
	}
	walletData := &model.WalletData{
		PrivateKey: privateKey,
		CreatedAt:  time.Now().Format(time.RFC3339),
	}
	if err := crypto.EncryptKeystore(filePath, meta, walletData, password); err != nil {
		return "", fmt.Errorf("failed to encrypt wallet: %w", err)
	}
	return address, nil
}

// LoadKey unlocks the keystore. The caller owns the key and should wipe it when done.
func LoadKey(filePath string, password []byte) (*ecdsa.PrivateKey, error) {
	ks, walletData, err := crypto.DecryptKeystore(filePath, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt wallet: %w", err)
	}
	defer clear(walletData.PrivateKey)

	key, err := gethcrypto.ToECDSA(walletData.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key in keystore: %w", err)
	}
	if !gethcommon.IsHexAddress(ks.Address) || gethcrypto.PubkeyToAddress(key.PublicKey) != gethcommon.HexToAddress(ks.Address) {
		clear(key.D.Bits())
		return nil, errors.New("private key does not match address")
	}
	return key, nil
}

// WalletAddress reads the address and QR without unlocking the keystore
func WalletAddress(filePath string) (*model.AddressResponse, error) {
	ks, err := crypto.ReadKeystore(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet: %w", err)
	}
	return &model.AddressResponse{
		Address: ks.Address,
		ChainID: ks.ChainID,
		QR:      ks.QR,
	}, nil
}

func networkName(chainID uint64) string {
	switch chainID {
	case 1:
		return "mainnet"
	case 11155111:
		return "sepolia"
	case 31337:
		return "hardhat"
	default:
		return fmt.Sprintf("evm-%d", chainID)
	}
}

// generateQRCode generates QR code of address in base64
func generateQRCode(address string) (string, error) {
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
