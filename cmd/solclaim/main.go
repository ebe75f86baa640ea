package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/solclaim/solclaim/internal/api"
	"github.com/solclaim/solclaim/internal/config"
	"github.com/solclaim/solclaim/internal/db"
	"github.com/solclaim/solclaim/internal/export"
	"github.com/solclaim/solclaim/internal/fetch"
	"github.com/solclaim/solclaim/internal/logging"
	"github.com/solclaim/solclaim/internal/rpc"
	"github.com/solclaim/solclaim/internal/scan"
	"github.com/solclaim/solclaim/internal/token"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(); err != nil {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	case "scan":
		if err := runScan(); err != nil {
			slog.Error("scan error", "error", err)
			os.Exit(1)
		}
	case "batch":
		if err := runBatch(); err != nil {
			slog.Error("batch error", "error", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("solclaim %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: solclaim <command>

Commands:
  serve     Start the HTTP server
  scan      Scan a single wallet and print its report
  batch     Scan a list of wallets from a file
  version   Print version information
`)
}

// services bundles the wired scan pipeline shared by all commands.
type services struct {
	cfg       *config.Config
	rpcClient *rpc.Client
	scanner   *scan.Scanner
}

// setupServices wires config, RPC, fetch, and token layers.
func setupServices(cfg *config.Config) *services {
	httpClient := &http.Client{Timeout: config.APITimeout}

	rpcClient := rpc.NewClient(httpClient, cfg.RPCEndpoints())
	fetcher := fetch.NewClient(httpClient)

	metaCache := cache.New(cache.NoExpiration, cache.NoExpiration)
	priceCache := cache.New(cache.NoExpiration, cache.NoExpiration)
	tokens := token.NewService(fetcher, rpcClient, metaCache, priceCache, cfg)

	return &services{
		cfg:       cfg,
		rpcClient: rpcClient,
		scanner:   scan.NewScanner(rpcClient, tokens),
	}
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logCloser, err := logging.Setup(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logCloser.Close()

	slog.Info("starting solclaim",
		"version", version,
		"port", cfg.Port,
		"rpc", cfg.RPCURL,
		"dbPath", cfg.DBPath,
		"logLevel", cfg.LogLevel,
	)

	database, err := db.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if err := database.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("database ready", "path", cfg.DBPath)

	svc := setupServices(cfg)
	manager := scan.NewManager(svc.scanner, database)
	batch := scan.NewBatchScanner(svc.scanner, database, time.Duration(cfg.BatchDelayMs)*time.Millisecond)

	router := api.NewRouter(api.Deps{
		Config:      cfg,
		DB:          database,
		Manager:     manager,
		Batch:       batch,
		Blockhashes: svc.rpcClient,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("initiating graceful shutdown", "timeout", config.ShutdownTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

func runScan() error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	wallet := fs.String("wallet", "", "Wallet address to scan (required)")
	exportJSON := fs.Bool("export", false, "Also write the report as JSON to the export directory")
	outputDir := fs.String("output", "", "Export directory (default: ./data/export)")
	fs.Parse(os.Args[2:])

	if *wallet == "" {
		return fmt.Errorf("--wallet is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logCloser, err := logging.Setup(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logCloser.Close()

	svc := setupServices(cfg)

	report, err := svc.scanner.ScanWallet(context.Background(), *wallet)
	if err != nil {
		return fmt.Errorf("scan %s: %w", *wallet, err)
	}

	if err := export.RenderText(os.Stdout, report); err != nil {
		return err
	}

	if *exportJSON {
		path, err := export.WriteJSON(report, *outputDir)
		if err != nil {
			return err
		}
		fmt.Printf("\nReport written to %s\n", path)
	}

	return nil
}

func runBatch() error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	file := fs.String("file", "", "File with one wallet address per line (required)")
	exportCSV := fs.Bool("export", false, "Also write a CSV summary to the export directory")
	outputDir := fs.String("output", "", "Export directory (default: ./data/export)")
	fs.Parse(os.Args[2:])

	if *file == "" {
		return fmt.Errorf("--file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logCloser, err := logging.Setup(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logCloser.Close()

	wallets, err := readWalletList(*file)
	if err != nil {
		return err
	}
	if len(wallets) == 0 {
		return fmt.Errorf("no wallet addresses in %s", *file)
	}

	svc := setupServices(cfg)
	batch := scan.NewBatchScanner(svc.scanner, nil, time.Duration(cfg.BatchDelayMs)*time.Millisecond)

	reports := batch.Scan(context.Background(), wallets)

	for i, report := range reports {
		if i > 0 {
			fmt.Println(strings.Repeat("-", 60))
		}
		if err := export.RenderText(os.Stdout, report); err != nil {
			return err
		}
	}
	fmt.Printf("\nScanned %d of %d wallets\n", len(reports), len(wallets))

	if *exportCSV && len(reports) > 0 {
		path, err := export.WriteBatchCSV(reports, *outputDir)
		if err != nil {
			return err
		}
		fmt.Printf("Summary written to %s\n", path)
	}

	return nil
}

// readWalletList reads one wallet address per line, skipping blanks and
// #-comments.
func readWalletList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wallet list %q: %w", path, err)
	}
	defer f.Close()

	var wallets []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		wallets = append(wallets, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read wallet list %q: %w", path, err)
	}

	return wallets, nil
}
