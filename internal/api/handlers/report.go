package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/solclaim/solclaim/internal/config"
	"github.com/solclaim/solclaim/internal/db"
	"github.com/solclaim/solclaim/internal/models"
	"github.com/solclaim/solclaim/internal/validate"
)

// GetReport handles GET /api/report/{wallet}: returns the latest archived
// report for the wallet.
func GetReport(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wallet := chi.URLParam(r, "wallet")

		if err := validate.WalletAddress(wallet); err != nil {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidAddress, "invalid wallet address: "+wallet)
			return
		}

		report, err := database.GetReport(wallet)
		if err != nil {
			if errors.Is(err, config.ErrReportNotFound) {
				writeError(w, http.StatusNotFound, config.ErrorReportNotFound, "no report for "+wallet)
				return
			}
			slog.Error("failed to load report", "wallet", wallet, "error", err)
			writeError(w, http.StatusInternalServerError, config.ErrorDatabase, "failed to load report")
			return
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: report,
			Meta: &models.APIMeta{ExecutionTime: time.Since(start).Milliseconds()},
		})
	}
}

// DeleteReport handles DELETE /api/report/{wallet}: evicts the archived
// report so the next scan request bypasses the cache.
func DeleteReport(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wallet := chi.URLParam(r, "wallet")

		if err := validate.WalletAddress(wallet); err != nil {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidAddress, "invalid wallet address: "+wallet)
			return
		}

		if err := database.DeleteReport(wallet); err != nil {
			slog.Error("failed to delete report", "wallet", wallet, "error", err)
			writeError(w, http.StatusInternalServerError, config.ErrorDatabase, "failed to delete report")
			return
		}

		slog.Info("report deleted", "wallet", wallet)

		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: map[string]interface{}{"wallet": wallet, "deleted": true},
		})
	}
}

// ListReports handles GET /api/reports: archive summaries, newest first.
func ListReports(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		summaries, err := database.ListReports(100)
		if err != nil {
			slog.Error("failed to list reports", "error", err)
			writeError(w, http.StatusInternalServerError, config.ErrorDatabase, "failed to list reports")
			return
		}
		if summaries == nil {
			summaries = []db.ReportSummary{}
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: summaries,
			Meta: &models.APIMeta{
				Total:         int64(len(summaries)),
				ExecutionTime: time.Since(start).Milliseconds(),
			},
		})
	}
}
