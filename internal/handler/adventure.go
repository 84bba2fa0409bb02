package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/AlexZinkM/encrypted-adventure/adventure"
	"github.com/AlexZinkM/encrypted-adventure/internal/model"

	"go.uber.org/zap"
)

// AdventureHandler serves the player's game session
type AdventureHandler struct {
	game          *adventure.Game // nil when no wallet is unlocked
	actionTimeout time.Duration
	logger        *zap.Logger
}

// NewAdventureHandler creates a new AdventureHandler.
// actionTimeout bounds a whole join or attack, including confirmation and refresh.
func NewAdventureHandler(game *adventure.Game, actionTimeout time.Duration, logger *zap.Logger) *AdventureHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdventureHandler{
		game:          game,
		actionTimeout: actionTimeout,
		logger:        logger,
	}
}

// Status handles GET /adventure/status
// @Summary      Get player status
// @Description  Returns join status, decrypted stats, pending action and the latest status message. Does not touch the chain.
// @Tags         adventure
// @Produce      json
// @Success      200  {object}  model.PlayerStatusResponse
// @Failure      503  {object}  model.ErrorResponse
// @Router       /adventure/status [get]
func (h *AdventureHandler) Status(w http.ResponseWriter, r *http.Request) {
	if h.game == nil {
		writeError(w, http.StatusServiceUnavailable, model.CodeWalletUnavailable, adventure.MsgSignerUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, h.game.Snapshot())
}

// Refresh handles POST /adventure/refresh
// @Summary      Refresh player status
// @Description  Reads join status and encrypted handles from the contract and decrypts them through the relayer
// @Tags         adventure
// @Produce      json
// @Success      200  {object}  model.PlayerStatusResponse
// @Failure      403  {object}  model.ErrorResponse
// @Failure      502  {object}  model.ErrorResponse
// @Failure      503  {object}  model.ErrorResponse
// @Router       /adventure/refresh [post]
func (h *AdventureHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.game == nil {
		writeError(w, http.StatusServiceUnavailable, model.CodeWalletUnavailable, adventure.MsgSignerUnavailable)
		return
	}

	// a superseded refresh is not an error for the caller: the newer state wins
	if err := h.game.Refresh(r.Context()); err != nil && !errors.Is(err, adventure.ErrStaleResult) {
		status, code := errorStatus(err)
		h.logger.Warn("refresh failed", zap.Error(err))
		writeError(w, status, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.game.Snapshot())
}

// Join handles POST /adventure/join
// @Summary      Join the adventure
// @Description  Sends joinGame, waits for confirmation and decrypts the new weapon and coin balance
// @Tags         adventure
// @Produce      json
// @Success      200  {object}  model.ActionResponse
// @Failure      409  {object}  model.ErrorResponse
// @Failure      422  {object}  model.ErrorResponse
// @Failure      503  {object}  model.ErrorResponse
// @Router       /adventure/join [post]
func (h *AdventureHandler) Join(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.game.Join)
}

// Attack handles POST /adventure/attack
// @Summary      Attack a monster
// @Description  Sends attackMonster, waits for confirmation and reports the loot once the new coin balance is decrypted
// @Tags         adventure
// @Produce      json
// @Success      200  {object}  model.ActionResponse
// @Failure      409  {object}  model.ErrorResponse
// @Failure      422  {object}  model.ErrorResponse
// @Failure      503  {object}  model.ErrorResponse
// @Router       /adventure/attack [post]
func (h *AdventureHandler) Attack(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.game.Attack)
}

func (h *AdventureHandler) action(w http.ResponseWriter, r *http.Request, run func(context.Context) (*adventure.ActionResult, error)) {
	if h.game == nil {
		writeError(w, http.StatusServiceUnavailable, model.CodeWalletUnavailable, adventure.MsgSignerUnavailable)
		return
	}

	// the transaction outlives a dropped client connection
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.actionTimeout)
	defer cancel()

	res, err := run(ctx)
	if err != nil {
		status, code := errorStatus(err)
		msg := h.game.Snapshot().Message
		if msg == "" {
			msg = err.Error()
		}
		writeError(w, status, code, msg)
		return
	}

	resp := model.ActionResponse{
		TxHash:  res.TxHash.Hex(),
		Message: res.Message,
		Loot:    res.Loot,
		Status:  h.game.Snapshot(),
	}
	if res.RefreshErr != nil {
		resp.Warning = res.RefreshErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
