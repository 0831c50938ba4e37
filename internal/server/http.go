package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/studybuddy/studybuddy/internal/config"
)

// NewRouter builds the application router and registers all provided
// services on it.
func NewRouter(registrars ...Registrar) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}).Methods(http.MethodGet)

	for _, reg := range registrars {
		reg.Register(r)
	}

	return r
}

// StartHTTPServer boots the HTTP server with CORS applied around the
// given handler.
func StartHTTPServer(cfg *config.Config, handler http.Handler) error {
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(handler)

	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)
	return http.ListenAndServe(addr, corsHandler)
}
