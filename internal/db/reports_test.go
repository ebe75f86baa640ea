package db

import (
	"errors"
	"testing"

	"github.com/solclaim/solclaim/internal/config"
	"github.com/solclaim/solclaim/internal/models"
)

func sampleReport(wallet string, grandTotal float64, scannedAt string) *models.WalletReport {
	return &models.WalletReport{
		Wallet:          wallet,
		SOLBalance:      1.5,
		GrandTotalUSD:   grandTotal,
		RentReclaimable: 0.0036,
		Tokens: []models.HeldToken{
			{Mint: "mint1", Symbol: "TKN", Balance: 10, PriceUSD: 2, ValueUSD: 20},
		},
		ScanTime: scannedAt,
	}
}

func TestSaveAndGetReport(t *testing.T) {
	d := newTestDB(t)

	want := sampleReport("walletA", 120.5, "2026-09-01T10:00:00Z")
	if err := d.SaveReport(want); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}

	got, err := d.GetReport("walletA")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}

	if got.Wallet != want.Wallet {
		t.Errorf("wallet = %q, want %q", got.Wallet, want.Wallet)
	}
	if got.GrandTotalUSD != want.GrandTotalUSD {
		t.Errorf("grand total = %f, want %f", got.GrandTotalUSD, want.GrandTotalUSD)
	}
	if len(got.Tokens) != 1 || got.Tokens[0].Mint != "mint1" {
		t.Errorf("tokens = %v, want the archived token list", got.Tokens)
	}
}

func TestSaveReport_ReplacesPrevious(t *testing.T) {
	d := newTestDB(t)

	if err := d.SaveReport(sampleReport("walletA", 100, "2026-09-01T10:00:00Z")); err != nil {
		t.Fatalf("first SaveReport() error = %v", err)
	}
	if err := d.SaveReport(sampleReport("walletA", 250, "2026-09-01T11:00:00Z")); err != nil {
		t.Fatalf("second SaveReport() error = %v", err)
	}

	got, err := d.GetReport("walletA")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if got.GrandTotalUSD != 250 {
		t.Errorf("grand total = %f, want 250 (latest report wins)", got.GrandTotalUSD)
	}

	var count int
	if err := d.Conn().QueryRow("SELECT COUNT(*) FROM reports").Scan(&count); err != nil {
		t.Fatalf("count reports: %v", err)
	}
	if count != 1 {
		t.Errorf("row count = %d, want 1", count)
	}
}

func TestGetReport_NotFound(t *testing.T) {
	d := newTestDB(t)

	_, err := d.GetReport("unknown")
	if !errors.Is(err, config.ErrReportNotFound) {
		t.Errorf("GetReport() error = %v, want ErrReportNotFound", err)
	}
}

func TestListReports_OrderedByScanTime(t *testing.T) {
	d := newTestDB(t)

	d.SaveReport(sampleReport("walletOld", 10, "2026-09-01T08:00:00Z"))
	d.SaveReport(sampleReport("walletNew", 30, "2026-09-01T12:00:00Z"))
	d.SaveReport(sampleReport("walletMid", 20, "2026-09-01T10:00:00Z"))

	summaries, err := d.ListReports(10)
	if err != nil {
		t.Fatalf("ListReports() error = %v", err)
	}

	wantOrder := []string{"walletNew", "walletMid", "walletOld"}
	if len(summaries) != len(wantOrder) {
		t.Fatalf("summary count = %d, want %d", len(summaries), len(wantOrder))
	}
	for i, want := range wantOrder {
		if summaries[i].Wallet != want {
			t.Errorf("summaries[%d].Wallet = %q, want %q", i, summaries[i].Wallet, want)
		}
	}
}

func TestListReports_Limit(t *testing.T) {
	d := newTestDB(t)

	d.SaveReport(sampleReport("walletA", 10, "2026-09-01T08:00:00Z"))
	d.SaveReport(sampleReport("walletB", 20, "2026-09-01T09:00:00Z"))

	summaries, err := d.ListReports(1)
	if err != nil {
		t.Fatalf("ListReports() error = %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summary count = %d, want 1", len(summaries))
	}
	if summaries[0].Wallet != "walletB" {
		t.Errorf("wallet = %q, want walletB (most recent first)", summaries[0].Wallet)
	}
}

func TestDeleteReport(t *testing.T) {
	d := newTestDB(t)

	d.SaveReport(sampleReport("walletA", 10, "2026-09-01T08:00:00Z"))

	if err := d.DeleteReport("walletA"); err != nil {
		t.Fatalf("DeleteReport() error = %v", err)
	}
	if _, err := d.GetReport("walletA"); !errors.Is(err, config.ErrReportNotFound) {
		t.Errorf("GetReport() after delete error = %v, want ErrReportNotFound", err)
	}

	// Deleting again is a no-op.
	if err := d.DeleteReport("walletA"); err != nil {
		t.Errorf("DeleteReport() on missing wallet error = %v", err)
	}
}
