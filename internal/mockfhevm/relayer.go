package mockfhevm

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"

	"github.com/AlexZinkM/encrypted-adventure/internal/common"
	"github.com/AlexZinkM/encrypted-adventure/internal/fhe"
	"github.com/AlexZinkM/encrypted-adventure/internal/model"

	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxDurationDays = 365

// RelayerHandler serves POST /v1/user-decrypt the way the gateway relayer does
func (n *Network) RelayerHandler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/v1/user-decrypt", n.userDecrypt).Methods(http.MethodPost)
	return r
}

// StartRelayer runs RelayerHandler on a local test server; callers Close it
func (n *Network) StartRelayer() *httptest.Server {
	return httptest.NewServer(n.RelayerHandler())
}

func (n *Network) userDecrypt(w http.ResponseWriter, r *http.Request) {
	var req model.UserDecryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.RelayerCodeBadRequest, "invalid request body")
		return
	}

	if !n.wait(r) {
		return
	}

	auth, user, err := n.parseAuthorization(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.RelayerCodeBadRequest, err.Error())
		return
	}

	now := n.now()
	if now.Before(auth.NotBefore()) {
		writeError(w, http.StatusBadRequest, model.RelayerCodeBadRequest, "request is not valid yet")
		return
	}
	if !auth.ValidAt(now) {
		writeError(w, http.StatusForbidden, model.RelayerCodeExpired, "request expired")
		return
	}

	signer, err := fhe.RecoverSigner(auth.TypedData(n.domain), req.Signature)
	if err != nil || signer != user {
		writeError(w, http.StatusUnauthorized, model.RelayerCodeBadSignature, "signature does not match user address")
		return
	}

	pub, err := fhe.ParsePublicKey(req.PublicKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.RelayerCodeBadRequest, err.Error())
		return
	}

	contracts := make(map[gethcommon.Address]struct{}, len(auth.ContractAddresses))
	for _, c := range auth.ContractAddresses {
		contracts[c] = struct{}{}
	}

	resp := model.UserDecryptResponse{Response: make([]model.SealedValue, 0, len(req.HandleContractPairs))}
	for _, pair := range req.HandleContractPairs {
		contract, err := common.ParseAddress(pair.ContractAddress)
		if err != nil {
			writeError(w, http.StatusBadRequest, model.RelayerCodeBadRequest, err.Error())
			return
		}
		if _, ok := contracts[contract]; !ok {
			writeError(w, http.StatusBadRequest, model.RelayerCodeBadRequest,
				fmt.Sprintf("contract %s is not part of the authorization", contract.Hex()))
			return
		}
		h, err := fhe.ParseHandle(pair.Handle)
		if err != nil {
			writeError(w, http.StatusBadRequest, model.RelayerCodeBadRequest, err.Error())
			return
		}

		value, known, allowed := n.canRead(h, contract, user)
		if !known {
			continue
		}
		if !allowed {
			writeError(w, http.StatusForbidden, model.RelayerCodeNotAllowed,
				fmt.Sprintf("%s is not allowed to decrypt %s", user.Hex(), h))
			return
		}

		payload, err := fhe.SealValue(pub, value)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "", err.Error())
			return
		}
		resp.Response = append(resp.Response, model.SealedValue{Handle: h.String(), Payload: payload})
	}

	n.logger.Debug("user decrypt served",
		zap.String("user", user.Hex()),
		zap.Int("requested", len(req.HandleContractPairs)),
		zap.Int("returned", len(resp.Response)))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// wait blocks while the relayer is held; false means the caller went away
func (n *Network) wait(r *http.Request) bool {
	n.mu.Lock()
	gate, arrived := n.gate, n.arrived
	n.mu.Unlock()
	if gate == nil {
		return true
	}

	select {
	case arrived <- struct{}{}:
	default:
	}
	select {
	case <-gate:
		return true
	case <-r.Context().Done():
		return false
	}
}

func (n *Network) parseAuthorization(req *model.UserDecryptRequest) (*fhe.Authorization, gethcommon.Address, error) {
	user, err := common.ParseAddress(req.UserAddress)
	if err != nil {
		return nil, gethcommon.Address{}, fmt.Errorf("userAddress: %w", err)
	}
	chainID, err := strconv.ParseUint(req.ContractsChainID, 10, 64)
	if err != nil {
		return nil, gethcommon.Address{}, fmt.Errorf("contractsChainId: %w", err)
	}
	if chainID != n.chainID {
		return nil, gethcommon.Address{}, fmt.Errorf("contractsChainId %d is not served here", chainID)
	}
	start, err := strconv.ParseInt(req.RequestValidity.StartTimestamp, 10, 64)
	if err != nil {
		return nil, gethcommon.Address{}, fmt.Errorf("startTimestamp: %w", err)
	}
	days, err := strconv.Atoi(req.RequestValidity.DurationDays)
	if err != nil {
		return nil, gethcommon.Address{}, fmt.Errorf("durationDays: %w", err)
	}
	if days < 1 || days > maxDurationDays {
		return nil, gethcommon.Address{}, fmt.Errorf("durationDays must be between 1 and %d", maxDurationDays)
	}
	if len(req.ContractAddresses) == 0 || len(req.HandleContractPairs) == 0 {
		return nil, gethcommon.Address{}, fmt.Errorf("contractAddresses and handleContractPairs are required")
	}
	pub, err := hex.DecodeString(common.TrimHexPrefix(req.PublicKey))
	if err != nil {
		return nil, gethcommon.Address{}, fmt.Errorf("publicKey: %w", err)
	}

	auth := &fhe.Authorization{
		PublicKey:        pub,
		ContractsChainID: chainID,
		StartTimestamp:   start,
		DurationDays:     days,
		Signature:        req.Signature,
	}
	for _, s := range req.ContractAddresses {
		c, err := common.ParseAddress(s)
		if err != nil {
			return nil, gethcommon.Address{}, fmt.Errorf("contractAddresses: %w", err)
		}
		auth.ContractAddresses = append(auth.ContractAddresses, c)
	}
	return auth, user, nil
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.RelayerErrorResponse{Error: msg, Code: code})
}
