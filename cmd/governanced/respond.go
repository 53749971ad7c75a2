package main

import (
	"encoding/json"
	"net/http"

	goverrors "github.com/regulatory-governance/core/infrastructure/errors"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps a tagged GovernanceError to its HTTP status (spec.md
// §7); any other error falls back to 500 via errors.HTTPStatus.
func writeError(w http.ResponseWriter, err error) {
	status := goverrors.HTTPStatus(err)
	body := map[string]any{"error": err.Error()}
	if gerr, ok := goverrors.GetGovernanceError(err); ok {
		body["kind"] = string(gerr.Kind)
		if gerr.Details != nil {
			body["details"] = gerr.Details
		}
	}
	writeJSON(w, status, body)
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}
