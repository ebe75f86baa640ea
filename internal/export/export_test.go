package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/solclaim/solclaim/internal/models"
)

func testReport() *models.WalletReport {
	return &models.WalletReport{
		Wallet:             "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi",
		SOLBalance:         1.5,
		SOLValueUSD:        150,
		TokenAccounts:      3,
		EmptyAccountCount:  1,
		NFTAccountCount:    1,
		RentReclaimable:    0.0018,
		RentReclaimableUSD: 0.18,
		Tokens: []models.HeldToken{
			{Mint: "mintA", Symbol: "AAA", Name: "Token A", Balance: 10, PriceUSD: 2, ValueUSD: 20},
			{Mint: "mintB", Symbol: "BBB", Name: "Token B", Balance: 5, PriceUSD: 1, ValueUSD: 5},
		},
		NFTs:               []models.HeldNFT{{Mint: "mintNFT", Name: "Art #1"}},
		TotalTokenValueUSD: 25,
		GrandTotalUSD:      175,
		ScanTime:           "2026-09-01T10:00:00Z",
	}
}

func TestWriteJSON_RoundTrips(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteJSON(testReport(), dir)
	if err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}

	var got models.WalletReport
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if got.Wallet != testReport().Wallet || got.GrandTotalUSD != 175 {
		t.Errorf("exported report = %+v, want original values", got)
	}
}

func TestWriteCSV_TokenTable(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteCSV(testReport(), dir)
	if err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse CSV: %v", err)
	}

	// Header plus one row per held token, nothing for NFTs or empties.
	if len(rows) != 3 {
		t.Fatalf("row count = %d, want 3", len(rows))
	}
	if rows[0][0] != "mint" {
		t.Errorf("header = %v, want mint first", rows[0])
	}
	if rows[1][0] != "mintA" || rows[2][0] != "mintB" {
		t.Errorf("token order = [%s, %s], want [mintA, mintB]", rows[1][0], rows[2][0])
	}
	if rows[1][5] != "20" {
		t.Errorf("mintA value = %q, want 20", rows[1][5])
	}
}

func TestWriteBatchCSV_OneRowPerReport(t *testing.T) {
	dir := t.TempDir()

	r1 := testReport()
	r2 := testReport()
	r2.Wallet = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	r2.GrandTotalUSD = 50

	path, err := WriteBatchCSV([]*models.WalletReport{r1, r2}, dir)
	if err != nil {
		t.Fatalf("WriteBatchCSV() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("row count = %d, want 3", len(rows))
	}
	if rows[1][0] != r1.Wallet || rows[2][0] != r2.Wallet {
		t.Errorf("wallet order = [%s, %s]", rows[1][0], rows[2][0])
	}
	if rows[2][7] != "50" {
		t.Errorf("second grand total = %q, want 50", rows[2][7])
	}
}

func TestRenderText_Summary(t *testing.T) {
	var buf bytes.Buffer

	if err := RenderText(&buf, testReport()); err != nil {
		t.Fatalf("RenderText() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi",
		"Grand total:       $175.00",
		"AAA",
		"Art #1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
