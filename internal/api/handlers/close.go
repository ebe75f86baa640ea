package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/solclaim/solclaim/internal/config"
	"github.com/solclaim/solclaim/internal/models"
	"github.com/solclaim/solclaim/internal/soltx"
	"github.com/solclaim/solclaim/internal/validate"
)

// closeRequest is the JSON body for POST /api/close.
type closeRequest struct {
	Wallet        string   `json:"wallet"`
	EmptyAccounts []string `json:"empty_accounts"`
	GrossLamports uint64   `json:"gross_lamports"`
}

// BuildCloseTx handles POST /api/close: builds the unsigned close-accounts
// transaction message and returns it hex-encoded. Signing happens on the
// client; no key material ever reaches this service.
func BuildCloseTx(blockhashes soltx.BlockhashProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req closeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Warn("invalid close request body",
				"error", err,
				"remoteAddr", r.RemoteAddr,
			)
			writeError(w, http.StatusBadRequest, config.ErrorInvalidRequest, "invalid request body")
			return
		}

		if err := validate.WalletAddress(req.Wallet); err != nil {
			writeError(w, http.StatusBadRequest, config.ErrorInvalidAddress, "invalid wallet address: "+req.Wallet)
			return
		}
		for _, acc := range req.EmptyAccounts {
			if err := validate.WalletAddress(acc); err != nil {
				writeError(w, http.StatusBadRequest, config.ErrorInvalidAddress, "invalid account address: "+acc)
				return
			}
		}

		txHex, err := soltx.BuildCloseAccountsTx(r.Context(), blockhashes, req.Wallet, req.EmptyAccounts, req.GrossLamports)
		if err != nil {
			switch {
			case errors.Is(err, config.ErrNoInstructions):
				writeError(w, http.StatusBadRequest, config.ErrorTxBuildFailed, "nothing to close or transfer")
			case errors.Is(err, config.ErrSOLTxTooLarge):
				writeError(w, http.StatusBadRequest, config.ErrorTxTooLarge, "too many accounts for one transaction")
			default:
				slog.Error("failed to build close transaction",
					"wallet", req.Wallet,
					"accounts", len(req.EmptyAccounts),
					"error", err,
				)
				writeError(w, http.StatusInternalServerError, config.ErrorTxBuildFailed, "failed to build transaction: "+err.Error())
			}
			return
		}

		slog.Info("close transaction built",
			"wallet", req.Wallet,
			"accounts", len(req.EmptyAccounts),
			"grossLamports", req.GrossLamports,
		)

		writeJSON(w, http.StatusOK, models.APIResponse{
			Data: map[string]interface{}{
				"tx":     txHex,
				"wallet": req.Wallet,
			},
			Meta: &models.APIMeta{ExecutionTime: time.Since(start).Milliseconds()},
		})
	}
}
