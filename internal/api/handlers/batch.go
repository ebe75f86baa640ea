package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/solclaim/solclaim/internal/config"
	"github.com/solclaim/solclaim/internal/models"
	"github.com/solclaim/solclaim/internal/scan"
	"github.com/solclaim/solclaim/internal/validate"
)

// MaxBatchWallets caps one batch request.
const MaxBatchWallets = 50

// batchScanRequest is the JSON body for POST /api/batch.
type batchScanRequest struct {
	Wallets []string `json:"wallets"`
}

// BatchScan handles POST /api/batch: scans the wallets sequentially and
// returns the successful reports. Failed wallets are omitted.
func BatchScan(batch *scan.BatchScanner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req batchScanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Warn("invalid batch scan request body",
				"error", err,
				"remoteAddr", r.RemoteAddr,
			)
			writeError(w, http.StatusBadRequest, config.ErrorInvalidRequest, "invalid request body")
			return
		}

		if len(req.Wallets) == 0 {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidRequest, "wallets list is empty")
			return
		}
		if len(req.Wallets) > MaxBatchWallets {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidRequest, "too many wallets in one batch")
			return
		}

		for _, wallet := range req.Wallets {
			if err := validate.WalletAddress(wallet); err != nil {
				writeError(w, http.StatusBadRequest, config.ErrorInvalidAddress, "invalid wallet address: "+wallet)
				return
			}
		}

		slog.Info("batch scan requested",
			"wallets", len(req.Wallets),
			"remoteAddr", r.RemoteAddr,
		)

		reports := batch.Scan(r.Context(), req.Wallets)
		if reports == nil {
			reports = []*models.WalletReport{}
		}

		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: reports,
			Meta: &models.APIMeta{
				Total:         int64(len(reports)),
				ExecutionTime: time.Since(start).Milliseconds(),
			},
		})
	}
}
