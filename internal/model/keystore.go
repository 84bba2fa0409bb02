package model

// KeystoreFile represents the on-disk encrypted wallet
type KeystoreFile struct {
	Network    string `json:"network"`
	ChainID    uint64 `json:"chainId"`
	Address    string `json:"address"`
	QR         string `json:"QR"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// WalletData represents decrypted wallet data
type WalletData struct {
	PrivateKey []byte `json:"privateKey"` // 32-byte secp256k1 scalar (base64 in JSON)
	CreatedAt  string `json:"createdAt"`
}
