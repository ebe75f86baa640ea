package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/solclaim/solclaim/internal/config"
	"github.com/solclaim/solclaim/internal/models"
)

// Manager runs wallet scans asynchronously for the HTTP layer: a scan is
// started, assigned an id, and polled for status until it completes or
// fails. One running scan per wallet at a time.
type Manager struct {
	scanner *Scanner
	archive ReportArchiver

	mu      sync.Mutex
	jobs    map[string]*models.ScanJob
	running map[string]bool // wallet -> in flight
}

// NewManager creates the async scan job manager. archive may be nil.
func NewManager(scanner *Scanner, archive ReportArchiver) *Manager {
	return &Manager{
		scanner: scanner,
		archive: archive,
		jobs:    make(map[string]*models.ScanJob),
		running: make(map[string]bool),
	}
}

// Start launches a background scan and returns its job id.
func (m *Manager) Start(ctx context.Context, wallet string) (string, error) {
	m.mu.Lock()
	if m.running[wallet] {
		m.mu.Unlock()
		return "", config.ErrScanAlreadyRunning
	}

	id := scanID(wallet)
	job := &models.ScanJob{
		ID:        id,
		Wallet:    wallet,
		Status:    models.ScanStatusPending,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	m.jobs[id] = job
	m.running[wallet] = true
	m.mu.Unlock()

	// The job outlives the caller: an HTTP request context is cancelled as
	// soon as the handler returns, which must not kill the scan.
	go m.run(context.WithoutCancel(ctx), job)

	slog.Info("scan job started", "id", id, "wallet", wallet)
	return id, nil
}

func (m *Manager) run(ctx context.Context, job *models.ScanJob) {
	report, err := m.scanner.ScanWallet(ctx, job.Wallet)

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.running, job.Wallet)
	job.EndedAt = time.Now().UTC().Format(time.RFC3339)

	if err != nil {
		job.Status = models.ScanStatusFailed
		job.Error = err.Error()
		slog.Warn("scan job failed", "id", job.ID, "wallet", job.Wallet, "error", err)
		return
	}

	job.Status = models.ScanStatusCompleted
	job.Report = report

	if m.archive != nil {
		if err := m.archive.SaveReport(report); err != nil {
			slog.Error("scan job: failed to archive report", "id", job.ID, "error", err)
		}
	}
}

// Get returns a snapshot of the job with the given id. A copy is returned
// so callers never race with the background goroutine updating the job.
func (m *Manager) Get(id string) (models.ScanJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return models.ScanJob{}, config.ErrScanNotFound
	}
	return *job, nil
}

func scanID(wallet string) string {
	short := wallet
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), short)
}
