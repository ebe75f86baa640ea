package scan

import (
	"context"
	"log/slog"
	"time"

	"github.com/solclaim/solclaim/internal/models"
)

// ReportArchiver persists successful reports keyed by wallet.
type ReportArchiver interface {
	SaveReport(report *models.WalletReport) error
}

// BatchScanner sequences scans over a list of wallets with a fixed pause
// between them. Sequential by design: scanning wallets concurrently would
// hammer the third-party rate limits the fetch primitive is pacing.
type BatchScanner struct {
	scanner *Scanner
	archive ReportArchiver
	delay   time.Duration
	sleep   func(time.Duration)
}

// NewBatchScanner creates a batch orchestrator. archive may be nil.
func NewBatchScanner(scanner *Scanner, archive ReportArchiver, delay time.Duration) *BatchScanner {
	return &BatchScanner{
		scanner: scanner,
		archive: archive,
		delay:   delay,
		sleep:   time.Sleep,
	}
}

// Scan runs every wallet in order. Failed wallets are omitted from the
// result (best-effort batch); the relative order of successes is
// preserved. No pause after the last wallet.
func (b *BatchScanner) Scan(ctx context.Context, wallets []string) []*models.WalletReport {
	slog.Info("batch scan started", "wallets", len(wallets), "delay", b.delay)

	var reports []*models.WalletReport
	for i, wallet := range wallets {
		if err := ctx.Err(); err != nil {
			slog.Warn("batch scan cancelled", "error", err, "scanned", i)
			break
		}

		report, err := b.scanner.ScanWallet(ctx, wallet)
		if err != nil {
			slog.Warn("batch scan: wallet failed, skipping", "wallet", wallet, "error", err)
		} else {
			reports = append(reports, report)
			if b.archive != nil {
				if err := b.archive.SaveReport(report); err != nil {
					slog.Error("batch scan: failed to archive report", "wallet", wallet, "error", err)
				}
			}
		}

		if i < len(wallets)-1 && b.delay > 0 {
			b.sleep(b.delay)
		}
	}

	slog.Info("batch scan complete", "wallets", len(wallets), "succeeded", len(reports))
	return reports
}
