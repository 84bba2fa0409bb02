package model

// HandleContractPair names one ciphertext handle and the contract it belongs to
type HandleContractPair struct {
	Handle          string `json:"handle"`
	ContractAddress string `json:"contractAddress"`
}

// RequestValidity is the authorization window, both fields decimal strings
type RequestValidity struct {
	StartTimestamp string `json:"startTimestamp"`
	DurationDays   string `json:"durationDays"`
}

// UserDecryptRequest is the body of POST {relayer}/v1/user-decrypt
type UserDecryptRequest struct {
	HandleContractPairs []HandleContractPair `json:"handleContractPairs"`
	RequestValidity     RequestValidity      `json:"requestValidity"`
	ContractsChainID    string               `json:"contractsChainId"`
	ContractAddresses   []string             `json:"contractAddresses"`
	UserAddress         string               `json:"userAddress"`
	Signature           string               `json:"signature"` // hex, no 0x prefix
	PublicKey           string               `json:"publicKey"` // hex, no 0x prefix
}

// SealedValue is one plaintext sealed to the request's public key
type SealedValue struct {
	Handle  string `json:"handle"`
	Payload string `json:"payload"` // base64 anonymous box
}

// UserDecryptResponse is the relayer answer; unknown handles are omitted
type UserDecryptResponse struct {
	Response []SealedValue `json:"response"`
}

// RelayerErrorResponse is the relayer error body
type RelayerErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Relayer error codes
const (
	RelayerCodeExpired      = "AUTHORIZATION_EXPIRED"
	RelayerCodeBadSignature = "INVALID_SIGNATURE"
	RelayerCodeNotAllowed   = "NOT_ALLOWED"
	RelayerCodeBadRequest   = "BAD_REQUEST"
)
