package model

// GenerateResponse represents response for POST /wallet/generate
type GenerateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Address string `json:"address,omitempty"`
}

// AddressResponse represents response for GET /wallet/address
type AddressResponse struct {
	Address string `json:"address"`
	ChainID uint64 `json:"chainId"`
	QR      string `json:"QR,omitempty"`
}
