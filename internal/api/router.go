package api

import (
	"net/http"

	"github.com/AlexZinkM/encrypted-adventure/internal/handler"

	_ "github.com/AlexZinkM/encrypted-adventure/docs"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRouter sets up router with handlers
func SetupRouter(adventureHandler *handler.AdventureHandler, walletHandler *handler.WalletHandler) http.Handler {
	r := mux.NewRouter()

	// Swagger UI
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	// Adventure endpoints
	r.HandleFunc("/adventure/status", adventureHandler.Status).Methods(http.MethodGet)
	r.HandleFunc("/adventure/refresh", adventureHandler.Refresh).Methods(http.MethodPost)
	r.HandleFunc("/adventure/join", adventureHandler.Join).Methods(http.MethodPost)
	r.HandleFunc("/adventure/attack", adventureHandler.Attack).Methods(http.MethodPost)

	// Wallet endpoints
	r.HandleFunc("/wallet/generate", walletHandler.Generate).Methods(http.MethodPost)
	r.HandleFunc("/wallet/address", walletHandler.Address).Methods(http.MethodGet)

	return r
}
