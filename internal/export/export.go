package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/solclaim/solclaim/internal/config"
	"github.com/solclaim/solclaim/internal/models"
)

// ExportDir is the default directory for report exports.
const ExportDir = "./data/export"

// WriteJSON writes the full report as an indented JSON file and returns
// the file path.
func WriteJSON(report *models.WalletReport, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = ExportDir
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create export directory %q: %v", config.ErrExportFailed, outputDir, err)
	}

	filename := filepath.Join(outputDir, fmt.Sprintf("%s_report.json", shortWallet(report.Wallet)))

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: marshal report: %v", config.ErrExportFailed, err)
	}

	if err := os.WriteFile(filename, payload, 0o644); err != nil {
		return "", fmt.Errorf("%w: write %q: %v", config.ErrExportFailed, filename, err)
	}

	slog.Info("report exported", "format", "json", "wallet", report.Wallet, "file", filename)
	return filename, nil
}

// WriteCSV writes the held-token table of one report as a CSV file and
// returns the file path. Empty accounts and NFTs are not included; the
// CSV is the valuation table only.
func WriteCSV(report *models.WalletReport, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = ExportDir
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create export directory %q: %v", config.ErrExportFailed, outputDir, err)
	}

	filename := filepath.Join(outputDir, fmt.Sprintf("%s_tokens.csv", shortWallet(report.Wallet)))

	f, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("%w: create %q: %v", config.ErrExportFailed, filename, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"mint", "symbol", "name", "balance", "price_usd", "value_usd"}); err != nil {
		return "", fmt.Errorf("%w: write CSV header: %v", config.ErrExportFailed, err)
	}
	for _, tok := range report.Tokens {
		row := []string{
			tok.Mint,
			tok.Symbol,
			tok.Name,
			strconv.FormatFloat(tok.Balance, 'f', -1, 64),
			strconv.FormatFloat(tok.PriceUSD, 'f', -1, 64),
			strconv.FormatFloat(tok.ValueUSD, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("%w: write CSV row: %v", config.ErrExportFailed, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("%w: flush CSV: %v", config.ErrExportFailed, err)
	}

	slog.Info("report exported", "format", "csv", "wallet", report.Wallet, "file", filename)
	return filename, nil
}

// WriteBatchCSV writes one summary row per report and returns the file path.
func WriteBatchCSV(reports []*models.WalletReport, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = ExportDir
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create export directory %q: %v", config.ErrExportFailed, outputDir, err)
	}

	filename := filepath.Join(outputDir, fmt.Sprintf("batch_%s.csv", time.Now().UTC().Format("20060102T150405Z")))

	f, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("%w: create %q: %v", config.ErrExportFailed, filename, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"wallet", "sol_balance", "token_accounts", "empty_accounts",
		"rent_reclaimable", "rent_reclaimable_usd", "total_token_value_usd", "grand_total_usd",
	}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("%w: write CSV header: %v", config.ErrExportFailed, err)
	}
	for _, r := range reports {
		row := []string{
			r.Wallet,
			strconv.FormatFloat(r.SOLBalance, 'f', -1, 64),
			strconv.Itoa(r.TokenAccounts),
			strconv.Itoa(r.EmptyAccountCount),
			strconv.FormatFloat(r.RentReclaimable, 'f', -1, 64),
			strconv.FormatFloat(r.RentReclaimableUSD, 'f', -1, 64),
			strconv.FormatFloat(r.TotalTokenValueUSD, 'f', -1, 64),
			strconv.FormatFloat(r.GrandTotalUSD, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("%w: write CSV row: %v", config.ErrExportFailed, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("%w: flush CSV: %v", config.ErrExportFailed, err)
	}

	slog.Info("batch exported", "wallets", len(reports), "file", filename)
	return filename, nil
}

// RenderText writes a human-readable summary of one report.
func RenderText(w io.Writer, report *models.WalletReport) error {
	lines := []string{
		fmt.Sprintf("Wallet:            %s", report.Wallet),
		fmt.Sprintf("SOL balance:       %.9f SOL ($%.2f)", report.SOLBalance, report.SOLValueUSD),
		fmt.Sprintf("Token accounts:    %d (%d empty, %d NFT)", report.TokenAccounts, report.EmptyAccountCount, report.NFTAccountCount),
		fmt.Sprintf("Reclaimable rent:  %.9f SOL ($%.2f)", report.RentReclaimable, report.RentReclaimableUSD),
		fmt.Sprintf("Token value:       $%.2f", report.TotalTokenValueUSD),
		fmt.Sprintf("Grand total:       $%.2f", report.GrandTotalUSD),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("%w: %v", config.ErrExportFailed, err)
		}
	}

	if len(report.Tokens) > 0 {
		if _, err := fmt.Fprintln(w, "\nHoldings:"); err != nil {
			return fmt.Errorf("%w: %v", config.ErrExportFailed, err)
		}
		for _, tok := range report.Tokens {
			if _, err := fmt.Fprintf(w, "  %-12s %18.6f  $%12.2f\n", tok.Symbol, tok.Balance, tok.ValueUSD); err != nil {
				return fmt.Errorf("%w: %v", config.ErrExportFailed, err)
			}
		}
	}
	for _, nft := range report.NFTs {
		if _, err := fmt.Fprintf(w, "  NFT %s (%s)\n", nft.Name, nft.Mint); err != nil {
			return fmt.Errorf("%w: %v", config.ErrExportFailed, err)
		}
	}
	return nil
}

// shortWallet truncates a wallet address for use in filenames.
func shortWallet(wallet string) string {
	if len(wallet) > 8 {
		return wallet[:8]
	}
	return wallet
}
