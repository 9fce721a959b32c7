package api

import "net/http"

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Schema == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "SCHEMA_UNAVAILABLE", "schema source is not configured", false, nil)
		return
	}
	info, err := deps.Schema.Info(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_FAILED", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
