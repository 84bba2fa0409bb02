package handler

import (
	"errors"
	"net/http"

	"github.com/AlexZinkM/encrypted-adventure/adventure"
	"github.com/AlexZinkM/encrypted-adventure/internal/config"
	"github.com/AlexZinkM/encrypted-adventure/internal/model"
)

// WalletHandler manages the local keystore
type WalletHandler struct {
	filePath string
	chainID  uint64
}

// NewWalletHandler creates a new WalletHandler for the keystore at filePath
func NewWalletHandler(filePath string, chainID uint64) (*WalletHandler, error) {
	if filePath == "" {
		return nil, errors.New("KEYSTORE_PATH not set")
	}
	return &WalletHandler{
		filePath: filePath,
		chainID:  chainID,
	}, nil
}

// Generate handles POST /wallet/generate
// @Summary      Generate new wallet
// @Description  Generates a new Ethereum key and saves it to the encrypted .keystore file. Restart the server to play with it.
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.GenerateResponse
// @Failure      409  {object}  model.ErrorResponse
// @Router       /wallet/generate [post]
func (h *WalletHandler) Generate(w http.ResponseWriter, r *http.Request) {
	// Get password as []byte, use it, then zero it immediately
	passwordBytes, err := config.GetKeystorePasswordBytes()
	if err != nil {
		writeError(w, http.StatusBadRequest, model.CodeBadRequest, err.Error())
		return
	}
	defer clear(passwordBytes)

	address, err := adventure.GenerateWallet(h.filePath, h.chainID, passwordBytes)
	if err != nil {
		if adventure.IsFileExistsError(err) {
			writeError(w, http.StatusConflict, model.CodeFileExists, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, model.CodeInternal, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, model.GenerateResponse{
		Success: true,
		Message: "Wallet generated successfully",
		Address: address,
	})
}

// Address handles GET /wallet/address
// @Summary      Get wallet address
// @Description  Returns the keystore address and its QR code without unlocking the keystore
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.AddressResponse
// @Failure      404  {object}  model.ErrorResponse
// @Router       /wallet/address [get]
func (h *WalletHandler) Address(w http.ResponseWriter, r *http.Request) {
	resp, err := adventure.WalletAddress(h.filePath)
	if err != nil {
		writeError(w, http.StatusNotFound, model.CodeWalletUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
