package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/solclaim/solclaim/internal/config"
	"github.com/solclaim/solclaim/internal/db"
	"github.com/solclaim/solclaim/internal/models"
	"github.com/solclaim/solclaim/internal/scan"
	"github.com/solclaim/solclaim/internal/validate"
)

// startScanRequest is the JSON body for POST /api/scan.
type startScanRequest struct {
	Wallet string `json:"wallet"`
}

// StartScan handles POST /api/scan: serves a recent archived report
// directly, otherwise launches an async scan job.
func StartScan(manager *scan.Manager, database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startScanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Warn("invalid start scan request body",
				"error", err,
				"remoteAddr", r.RemoteAddr,
			)
			writeError(w, http.StatusBadRequest, config.ErrorInvalidRequest, "invalid request body")
			return
		}

		if err := validate.WalletAddress(req.Wallet); err != nil {
			slog.Warn("invalid wallet for scan", "wallet", req.Wallet, "error", err)
			writeError(w, http.StatusBadRequest, config.ErrorInvalidAddress, "invalid wallet address: "+req.Wallet)
			return
		}

		if report, ok := cachedReport(database, req.Wallet); ok {
			slog.Info("serving cached report", "wallet", req.Wallet, "scannedAt", report.ScanTime)
			writeJSON(w, http.StatusOK, models.APIResponse{
				Data: map[string]interface{}{
					"status": models.ScanStatusCompleted,
					"cached": true,
					"report": report,
				},
			})
			return
		}

		id, err := manager.Start(r.Context(), req.Wallet)
		if err != nil {
			if errors.Is(err, config.ErrScanAlreadyRunning) {
				slog.Warn("scan already running", "wallet", req.Wallet)
				writeError(w, http.StatusConflict, config.ErrorScanAlreadyRunning, "scan already running for "+req.Wallet)
				return
			}
			slog.Error("failed to start scan", "wallet", req.Wallet, "error", err)
			writeError(w, http.StatusInternalServerError, config.ErrorScanFailed, "failed to start scan: "+err.Error())
			return
		}

		slog.Info("scan job accepted", "id", id, "wallet", req.Wallet)

		writeJSON(w, http.StatusAccepted, models.APIResponse{
			Data: map[string]interface{}{
				"id":     id,
				"wallet": req.Wallet,
				"status": models.ScanStatusPending,
			},
		})
	}
}

// cachedReport returns the archived report for a wallet if it is fresh
// enough to answer a scan request.
func cachedReport(database *db.DB, wallet string) (*models.WalletReport, bool) {
	if database == nil {
		return nil, false
	}
	report, err := database.GetReport(wallet)
	if err != nil {
		return nil, false
	}
	scannedAt, err := time.Parse(time.RFC3339, report.ScanTime)
	if err != nil || time.Since(scannedAt) >= config.ScanCacheTTL {
		return nil, false
	}
	return report, true
}

// GetScanJob handles GET /api/scan/{id}: returns the job status and, once
// completed, its report.
func GetScanJob(manager *scan.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := chi.URLParam(r, "id")

		job, err := manager.Get(id)
		if err != nil {
			writeError(w, http.StatusNotFound, config.ErrorScanNotFound, "no scan with id "+id)
			return
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: job,
			Meta: &models.APIMeta{ExecutionTime: time.Since(start).Milliseconds()},
		})
	}
}
