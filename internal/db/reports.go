package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/solclaim/solclaim/internal/config"
	"github.com/solclaim/solclaim/internal/models"
)

// ReportSummary is one row of the archive listing, without the full payload.
type ReportSummary struct {
	Wallet          string  `json:"wallet"`
	GrandTotalUSD   float64 `json:"grand_total_usd"`
	RentReclaimable float64 `json:"rent_reclaimable"`
	ScannedAt       string  `json:"scanned_at"`
}

// SaveReport stores a wallet report, replacing any previous report for the
// same wallet. The full report is kept as JSON alongside the columns the
// listing queries need.
func (d *DB) SaveReport(report *models.WalletReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report for %s: %w", report.Wallet, err)
	}

	_, err = d.conn.Exec(
		`INSERT INTO reports (wallet, payload, grand_total_usd, rent_reclaimable, scanned_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(wallet) DO UPDATE SET
		   payload = excluded.payload,
		   grand_total_usd = excluded.grand_total_usd,
		   rent_reclaimable = excluded.rent_reclaimable,
		   scanned_at = excluded.scanned_at`,
		report.Wallet, string(payload), report.GrandTotalUSD, report.RentReclaimable, report.ScanTime,
	)
	if err != nil {
		return fmt.Errorf("upsert report for %s: %w", report.Wallet, err)
	}

	slog.Debug("report archived",
		"wallet", report.Wallet,
		"grandTotalUSD", report.GrandTotalUSD,
		"scannedAt", report.ScanTime,
	)

	return nil
}

// GetReport returns the latest archived report for a wallet.
func (d *DB) GetReport(wallet string) (*models.WalletReport, error) {
	var payload string

	err := d.conn.QueryRow(
		`SELECT payload FROM reports WHERE wallet = ?`, wallet,
	).Scan(&payload)

	if err == sql.ErrNoRows {
		return nil, config.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query report for %s: %w", wallet, err)
	}

	var report models.WalletReport
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, fmt.Errorf("unmarshal report for %s: %w", wallet, err)
	}

	return &report, nil
}

// ListReports returns archive summaries, most recently scanned first.
func (d *DB) ListReports(limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.conn.Query(
		`SELECT wallet, grand_total_usd, rent_reclaimable, scanned_at
		 FROM reports ORDER BY scanned_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var summaries []ReportSummary
	for rows.Next() {
		var s ReportSummary
		if err := rows.Scan(&s.Wallet, &s.GrandTotalUSD, &s.RentReclaimable, &s.ScannedAt); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}

	return summaries, nil
}

// DeleteReport removes the archived report for a wallet. Deleting a wallet
// with no report is not an error.
func (d *DB) DeleteReport(wallet string) error {
	_, err := d.conn.Exec(`DELETE FROM reports WHERE wallet = ?`, wallet)
	if err != nil {
		return fmt.Errorf("delete report for %s: %w", wallet, err)
	}
	return nil
}
