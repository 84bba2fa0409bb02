package fhe

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/AlexZinkM/encrypted-adventure/internal/common"

	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	domainName    = "Decryption"
	domainVersion = "1"

	primaryType = "UserDecryptRequestVerification"

	secondsPerDay = 24 * 60 * 60
)

// Domain is the EIP-712 domain of the decryption gateway
type Domain struct {
	ChainID           uint64
	VerifyingContract gethcommon.Address
}

// Authorization is a holder's time-bounded grant binding a public key to a set of contracts
type Authorization struct {
	PublicKey         []byte
	ContractAddresses []gethcommon.Address
	ContractsChainID  uint64
	StartTimestamp    int64
	DurationDays      int
	Signature         string // hex, no 0x
}

// NotBefore returns the start of the validity window
func (a *Authorization) NotBefore() time.Time {
	return time.Unix(a.StartTimestamp, 0)
}

// NotAfter returns the end of the validity window
func (a *Authorization) NotAfter() time.Time {
	return time.Unix(a.StartTimestamp+int64(a.DurationDays)*secondsPerDay, 0)
}

// ValidAt reports whether t falls inside [start, start+durationDays]
func (a *Authorization) ValidAt(t time.Time) bool {
	return !t.Before(a.NotBefore()) && !t.After(a.NotAfter())
}

// TypedData builds the EIP-712 payload the holder signs
func (a *Authorization) TypedData(d Domain) apitypes.TypedData {
	contracts := make([]interface{}, len(a.ContractAddresses))
	for i, c := range a.ContractAddresses {
		contracts[i] = c.Hex()
	}

	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			primaryType: {
				{Name: "publicKey", Type: "bytes"},
				{Name: "contractAddresses", Type: "address[]"},
				{Name: "contractsChainId", Type: "uint256"},
				{Name: "startTimestamp", Type: "uint256"},
				{Name: "durationDays", Type: "uint256"},
			},
		},
		PrimaryType: primaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              domainName,
			Version:           domainVersion,
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).SetUint64(d.ChainID)),
			VerifyingContract: d.VerifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"publicKey":         hexutil.Encode(a.PublicKey),
			"contractAddresses": contracts,
			"contractsChainId":  strconv.FormatUint(a.ContractsChainID, 10),
			"startTimestamp":    strconv.FormatInt(a.StartTimestamp, 10),
			"durationDays":      strconv.Itoa(a.DurationDays),
		},
	}
}

// RecoverSigner returns the address that produced signature over data.
// signature is 65 bytes hex, with or without 0x, V either 0/1 or 27/28.
func RecoverSigner(data apitypes.TypedData, signature string) (gethcommon.Address, error) {
	hash, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return gethcommon.Address{}, fmt.Errorf("failed to hash typed data: %w", err)
	}

	sig, err := hexutil.Decode(common.WithHexPrefix(signature))
	if err != nil {
		return gethcommon.Address{}, fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return gethcommon.Address{}, fmt.Errorf("invalid signature length %d", len(sig))
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return gethcommon.Address{}, errors.New("invalid signature recovery id")
	}

	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return gethcommon.Address{}, fmt.Errorf("failed to recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
