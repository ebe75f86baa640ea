package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/solclaim/solclaim/internal/db"
	"github.com/solclaim/solclaim/internal/models"
	"github.com/solclaim/solclaim/internal/rpc"
	"github.com/solclaim/solclaim/internal/scan"
)

const (
	testWallet  = "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi"
	testAccount = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
)

// fakeChain serves empty chain state for every wallet.
type fakeChain struct{}

func (fakeChain) GetBalance(context.Context, string) (uint64, error) {
	return 1_000_000_000, nil
}

func (fakeChain) GetTokenAccountsByOwner(context.Context, string) ([]rpc.ParsedTokenAccount, error) {
	return nil, nil
}

func (fakeChain) GetAccountInfo(context.Context, string) (bool, uint64, error) {
	return true, 0, nil
}

type fakeTokens struct{}

func (fakeTokens) Metadata(context.Context, string) models.MintMetadata { return models.MintMetadata{} }
func (fakeTokens) Price(context.Context, string) models.PriceQuote      { return models.PriceQuote{} }
func (fakeTokens) IsNFT(context.Context, string) bool                   { return false }
func (fakeTokens) NFTMetadata(context.Context, string) models.HeldNFT   { return models.HeldNFT{} }

// fakeBlockhashes returns a fixed blockhash.
type fakeBlockhashes struct{}

func (fakeBlockhashes) GetLatestBlockhash(context.Context) ([32]byte, error) {
	var h [32]byte
	for i := range h {
		h[i] = 0x11
	}
	return h, nil
}

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.sqlite")

	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := database.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func setupRouterWithChain(t *testing.T, database *db.DB, chain scan.RPCClient) http.Handler {
	t.Helper()
	scanner := scan.NewScanner(chain, fakeTokens{})
	manager := scan.NewManager(scanner, database)
	batch := scan.NewBatchScanner(scanner, database, 0)

	r := chi.NewRouter()
	r.Post("/api/scan", StartScan(manager, database))
	r.Get("/api/scan/{id}", GetScanJob(manager))
	r.Get("/api/report/{wallet}", GetReport(database))
	r.Delete("/api/report/{wallet}", DeleteReport(database))
	r.Get("/api/reports", ListReports(database))
	r.Post("/api/batch", BatchScan(batch))
	r.Post("/api/close", BuildCloseTx(fakeBlockhashes{}))
	return r
}

func setupRouter(t *testing.T, database *db.DB) http.Handler {
	t.Helper()
	return setupRouterWithChain(t, database, fakeChain{})
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestStartScan_InvalidBody(t *testing.T) {
	router := setupRouter(t, setupTestDB(t))

	w := doJSON(t, router, "POST", "/api/scan", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400. body: %s", w.Code, w.Body.String())
	}
}

func TestStartScan_InvalidWallet(t *testing.T) {
	router := setupRouter(t, setupTestDB(t))

	w := doJSON(t, router, "POST", "/api/scan", `{"wallet":"garbage"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400. body: %s", w.Code, w.Body.String())
	}

	var errResp models.APIError
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("unmarshal error response: %v", err)
	}
	if errResp.Error.Code != "ERROR_INVALID_ADDRESS" {
		t.Errorf("error code = %q, want ERROR_INVALID_ADDRESS", errResp.Error.Code)
	}
}

func TestScanLifecycleOverHTTP(t *testing.T) {
	router := setupRouter(t, setupTestDB(t))

	w := doJSON(t, router, "POST", "/api/scan", `{"wallet":"`+testWallet+`"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202. body: %s", w.Code, w.Body.String())
	}

	var accepted struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("unmarshal accept response: %v", err)
	}
	if accepted.Data.ID == "" {
		t.Fatal("no job id in response")
	}

	// Poll until the background scan finishes.
	deadline := time.Now().Add(2 * time.Second)
	for {
		w = doJSON(t, router, "GET", "/api/scan/"+accepted.Data.ID, "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
		}

		var status struct {
			Data models.ScanJob `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
			t.Fatalf("unmarshal status response: %v", err)
		}
		if status.Data.Status == models.ScanStatusCompleted {
			if status.Data.Report == nil || status.Data.Report.Wallet != testWallet {
				t.Fatalf("completed job report = %+v", status.Data.Report)
			}
			break
		}
		if status.Data.Status == models.ScanStatusFailed {
			t.Fatalf("scan failed: %s", status.Data.Error)
		}
		if time.Now().After(deadline) {
			t.Fatal("scan did not complete before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// strictChain refuses calls with a dead context and stalls briefly first,
// so a scan riding a request-scoped context fails once the response has
// been written.
type strictChain struct{}

func (strictChain) GetBalance(ctx context.Context, _ string) (uint64, error) {
	time.Sleep(50 * time.Millisecond)
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return 1_000_000_000, nil
}

func (strictChain) GetTokenAccountsByOwner(ctx context.Context, _ string) ([]rpc.ParsedTokenAccount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

func (strictChain) GetAccountInfo(ctx context.Context, _ string) (bool, uint64, error) {
	if err := ctx.Err(); err != nil {
		return false, 0, err
	}
	return true, 0, nil
}

func TestScanJobOutlivesRequestContext(t *testing.T) {
	router := setupRouterWithChain(t, setupTestDB(t), strictChain{})
	srv := httptest.NewServer(router)
	defer srv.Close()

	// A real server cancels the request context when the 202 goes out; the
	// background scan must not inherit that cancellation.
	resp, err := http.Post(srv.URL+"/api/scan", "application/json",
		strings.NewReader(`{"wallet":"`+testWallet+`"}`))
	if err != nil {
		t.Fatalf("POST /api/scan error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	var accepted struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil {
		t.Fatalf("decode accept response: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		statusResp, err := http.Get(srv.URL + "/api/scan/" + accepted.Data.ID)
		if err != nil {
			t.Fatalf("GET status error = %v", err)
		}
		var status struct {
			Data models.ScanJob `json:"data"`
		}
		if err := json.NewDecoder(statusResp.Body).Decode(&status); err != nil {
			t.Fatalf("decode status response: %v", err)
		}
		statusResp.Body.Close()

		if status.Data.Status == models.ScanStatusCompleted {
			break
		}
		if status.Data.Status == models.ScanStatusFailed {
			t.Fatalf("scan failed after response was written: %s", status.Data.Error)
		}
		if time.Now().After(deadline) {
			t.Fatal("scan did not complete before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStartScan_ServesRecentCachedReport(t *testing.T) {
	database := setupTestDB(t)
	router := setupRouter(t, database)

	report := &models.WalletReport{
		Wallet:        testWallet,
		GrandTotalUSD: 42,
		ScanTime:      time.Now().UTC().Format(time.RFC3339),
	}
	if err := database.SaveReport(report); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}

	w := doJSON(t, router, "POST", "/api/scan", `{"wallet":"`+testWallet+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for a fresh archived report. body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Cached bool                 `json:"cached"`
			Status string               `json:"status"`
			Report *models.WalletReport `json:"report"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Data.Cached || resp.Data.Status != models.ScanStatusCompleted {
		t.Errorf("cached = %v status = %q, want cached completed", resp.Data.Cached, resp.Data.Status)
	}
	if resp.Data.Report == nil || resp.Data.Report.GrandTotalUSD != 42 {
		t.Errorf("report = %+v, want the archived one", resp.Data.Report)
	}
}

func TestStartScan_StaleReportTriggersNewScan(t *testing.T) {
	database := setupTestDB(t)
	router := setupRouter(t, database)

	report := &models.WalletReport{
		Wallet:   testWallet,
		ScanTime: time.Now().UTC().Add(-10 * time.Minute).Format(time.RFC3339),
	}
	if err := database.SaveReport(report); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}

	w := doJSON(t, router, "POST", "/api/scan", `{"wallet":"`+testWallet+`"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 for a stale report. body: %s", w.Code, w.Body.String())
	}
}

func TestGetScanJob_NotFound(t *testing.T) {
	router := setupRouter(t, setupTestDB(t))

	w := doJSON(t, router, "GET", "/api/scan/nope", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404. body: %s", w.Code, w.Body.String())
	}
}

func TestGetReport_FromArchive(t *testing.T) {
	database := setupTestDB(t)
	router := setupRouter(t, database)

	report := &models.WalletReport{
		Wallet:        testWallet,
		GrandTotalUSD: 123.45,
		ScanTime:      "2026-09-01T10:00:00Z",
	}
	if err := database.SaveReport(report); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}

	w := doJSON(t, router, "GET", "/api/report/"+testWallet, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data models.WalletReport `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Data.GrandTotalUSD != 123.45 {
		t.Errorf("grand total = %f, want 123.45", resp.Data.GrandTotalUSD)
	}
}

func TestGetReport_NotFound(t *testing.T) {
	router := setupRouter(t, setupTestDB(t))

	w := doJSON(t, router, "GET", "/api/report/"+testWallet, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404. body: %s", w.Code, w.Body.String())
	}
}

func TestDeleteReport_EvictsArchiveEntry(t *testing.T) {
	database := setupTestDB(t)
	router := setupRouter(t, database)

	report := &models.WalletReport{
		Wallet:   testWallet,
		ScanTime: time.Now().UTC().Format(time.RFC3339),
	}
	if err := database.SaveReport(report); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}

	w := doJSON(t, router, "DELETE", "/api/report/"+testWallet, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, "GET", "/api/report/"+testWallet, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status after delete = %d, want 404", w.Code)
	}

	// With the archive entry gone, a scan request starts a fresh job
	// instead of answering from cache.
	w = doJSON(t, router, "POST", "/api/scan", `{"wallet":"`+testWallet+`"}`)
	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202 once the cache is evicted", w.Code)
	}
}

func TestDeleteReport_InvalidWallet(t *testing.T) {
	router := setupRouter(t, setupTestDB(t))

	w := doJSON(t, router, "DELETE", "/api/report/garbage", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400. body: %s", w.Code, w.Body.String())
	}
}

func TestListReports_EmptyArchive(t *testing.T) {
	router := setupRouter(t, setupTestDB(t))

	w := doJSON(t, router, "GET", "/api/reports", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"data":[]`) {
		t.Errorf("empty archive should return [], got: %s", w.Body.String())
	}
}

func TestBatchScan_Success(t *testing.T) {
	router := setupRouter(t, setupTestDB(t))

	body := `{"wallets":["` + testWallet + `","` + testAccount + `"]}`
	w := doJSON(t, router, "POST", "/api/batch", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data []models.WalletReport `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Errorf("report count = %d, want 2", len(resp.Data))
	}
}

func TestBatchScan_RejectsEmptyAndInvalid(t *testing.T) {
	router := setupRouter(t, setupTestDB(t))

	w := doJSON(t, router, "POST", "/api/batch", `{"wallets":[]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty list status = %d, want 400", w.Code)
	}

	w = doJSON(t, router, "POST", "/api/batch", `{"wallets":["bad"]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid wallet status = %d, want 400", w.Code)
	}
}

func TestBuildCloseTx_Success(t *testing.T) {
	router := setupRouter(t, setupTestDB(t))

	body := `{"wallet":"` + testWallet + `","empty_accounts":["` + testAccount + `"],"gross_lamports":1000}`
	w := doJSON(t, router, "POST", "/api/close", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Tx string `json:"tx"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Data.Tx == "" {
		t.Fatal("no tx in response")
	}
	for _, c := range resp.Data.Tx {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Fatalf("tx is not lowercase hex: %q", resp.Data.Tx)
		}
	}
}

func TestBuildCloseTx_NothingToClose(t *testing.T) {
	router := setupRouter(t, setupTestDB(t))

	body := `{"wallet":"` + testWallet + `","empty_accounts":[],"gross_lamports":0}`
	w := doJSON(t, router, "POST", "/api/close", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400. body: %s", w.Code, w.Body.String())
	}
}
