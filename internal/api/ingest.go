package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shekarbharathi/bank-fdic-v1/internal/ingest"
)

func handleIngestRun(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Ingest == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "INGEST_UNAVAILABLE", "ingest service is not configured", false, nil)
		return
	}

	// The run outlives the request, so it gets a fresh context. Overlap is
	// rejected here synchronously so the caller gets a clear 409.
	status := deps.Ingest.Status()
	if status.Running {
		writeError(r.Context(), w, http.StatusConflict, "INGEST_RUNNING", "an ingest run is already in progress", true, nil)
		return
	}

	go func() {
		if err := deps.Ingest.Run(context.Background()); err != nil {
			if errors.Is(err, ingest.ErrRunInProgress) {
				return
			}
			if deps.Logger != nil {
				deps.Logger.Error("ingest run failed", slog.Any("error", err))
			}
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{"status": "started"})
}

func handleIngestStatus(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Ingest == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "INGEST_UNAVAILABLE", "ingest service is not configured", false, nil)
		return
	}
	writeJSON(w, http.StatusOK, deps.Ingest.Status())
}
