package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	svcErr "github.com/studybuddy/studybuddy/internal/errors"
)

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a service error to its HTTP status and writes it.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, svcErr.HTTPStatus(err), map[string]string{"error": err.Error()})
}

// PathID parses the named route variable as a uint64 id.
func PathID(r *http.Request, name string) (uint64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, svcErr.ErrInvalidInput
	}
	return id, nil
}
