package handlers

import (
	"encoding/json"
	"net/http"

	"fleetconsole/backend/libs/identity"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// viewer reads the identity forwarded by the gateway, answering 401 when absent.
func viewer(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	id, err := identity.FromHeaders(r.Header)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return identity.Identity{}, false
	}
	return id, true
}
