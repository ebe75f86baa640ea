package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/solclaim/solclaim/internal/config"
	"github.com/solclaim/solclaim/internal/models"
	"github.com/solclaim/solclaim/internal/rpc"
	"github.com/solclaim/solclaim/internal/validate"
)

// RPCClient is the chain access the scanner needs.
type RPCClient interface {
	GetBalance(ctx context.Context, address string) (uint64, error)
	GetTokenAccountsByOwner(ctx context.Context, owner string) ([]rpc.ParsedTokenAccount, error)
	GetAccountInfo(ctx context.Context, address string) (exists bool, lamports uint64, err error)
}

// TokenService resolves metadata, prices and NFT classification per mint.
type TokenService interface {
	Metadata(ctx context.Context, mint string) models.MintMetadata
	Price(ctx context.Context, mint string) models.PriceQuote
	IsNFT(ctx context.Context, mint string) bool
	NFTMetadata(ctx context.Context, mint string) models.HeldNFT
}

// Scanner runs wallet scans: enumerate token accounts, classify each into
// held-fungible / held-NFT / empty, enrich with metadata and prices, and
// aggregate the valuation report.
type Scanner struct {
	rpc    RPCClient
	tokens TokenService
}

// NewScanner creates a wallet scanner.
func NewScanner(rpcClient RPCClient, tokens TokenService) *Scanner {
	return &Scanner{rpc: rpcClient, tokens: tokens}
}

// ScanWallet scans one wallet and returns its report. Any RPC failure
// aborts the scan with no partial report; a valid report with zero
// holdings is a distinct, successful outcome.
func (s *Scanner) ScanWallet(ctx context.Context, wallet string) (*models.WalletReport, error) {
	start := time.Now()

	if err := validate.WalletAddress(wallet); err != nil {
		return nil, err
	}

	slog.Info("scanning wallet", "wallet", wallet)

	balanceLamports, err := s.rpc.GetBalance(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrScanFailed, err)
	}
	solBalance := lamportsToSOL(balanceLamports)

	accounts, err := s.rpc.GetTokenAccountsByOwner(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrScanFailed, err)
	}

	slog.Info("token accounts found", "wallet", wallet, "count", len(accounts))

	var (
		tokens           []models.HeldToken
		nfts             []models.HeldNFT
		emptyAccounts    []models.EmptyAccount
		grossReclaimable uint64
		emptyNFTCount    int
	)

	for _, acc := range accounts {
		record, ok := s.resolveAccount(ctx, acc)
		if !ok {
			continue
		}

		if record.UIAmount() == 0 {
			isNFT := s.tokens.IsNFT(ctx, record.Mint)
			emptyAccounts = append(emptyAccounts, models.EmptyAccount{
				Pubkey:   record.Pubkey,
				Mint:     record.Mint,
				Lamports: record.Lamports,
				IsNFT:    isNFT,
			})
			if isNFT {
				emptyNFTCount++
			} else {
				// Only non-NFT empty accounts count toward reclaimable rent.
				grossReclaimable += record.Lamports
			}
			continue
		}

		if s.tokens.IsNFT(ctx, record.Mint) {
			nfts = append(nfts, s.tokens.NFTMetadata(ctx, record.Mint))
			continue
		}

		meta := s.tokens.Metadata(ctx, record.Mint)
		quote := s.tokens.Price(ctx, record.Mint)
		ui := record.UIAmount()
		tokens = append(tokens, models.HeldToken{
			Mint:     record.Mint,
			Symbol:   meta.Symbol,
			Name:     meta.Name,
			Balance:  ui,
			PriceUSD: quote.USD,
			ValueUSD: ui * quote.USD,
			Decimals: record.Decimals,
		})
	}

	// Descending by value; stable so equal values keep discovery order.
	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].ValueUSD > tokens[j].ValueUSD
	})

	var totalTokenValue float64
	for _, t := range tokens {
		totalTokenValue += t.ValueUSD
	}

	solPrice := s.tokens.Price(ctx, config.WrappedSOLMint)
	solValue := solBalance * solPrice.USD

	retention := float64(config.RetentionNumerator) / float64(config.RetentionDenominator)
	reclaimableSOL := lamportsToSOL(grossReclaimable) * retention
	reclaimableUSD := reclaimableSOL * solPrice.USD

	report := &models.WalletReport{
		Wallet:             wallet,
		SOLBalance:         solBalance,
		SOLValueUSD:        solValue,
		TokenAccounts:      len(accounts),
		EmptyAccountCount:  len(emptyAccounts),
		NFTAccountCount:    emptyNFTCount,
		RentReclaimable:    reclaimableSOL,
		RentReclaimableUSD: reclaimableUSD,
		Tokens:             tokens,
		NFTs:               nfts,
		EmptyAccounts:      emptyAccounts,
		TotalTokenValueUSD: totalTokenValue,
		// Reclaimable rent is informational and not yet liquid, so it is
		// not part of the grand total.
		GrandTotalUSD: totalTokenValue + solValue,
		ScanTime:      time.Now().UTC().Format(time.RFC3339),
		ExecutionTime: time.Since(start).Seconds(),
	}

	slog.Info("wallet scan complete",
		"wallet", wallet,
		"tokenAccounts", report.TokenAccounts,
		"emptyAccounts", report.EmptyAccountCount,
		"grandTotalUSD", report.GrandTotalUSD,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return report, nil
}

// resolveAccount turns one enumerated account into a TokenAccount record.
// Accounts whose state is missing or unparseable are skipped, not fatal.
func (s *Scanner) resolveAccount(ctx context.Context, acc rpc.ParsedTokenAccount) (models.TokenAccount, bool) {
	exists, lamports, err := s.rpc.GetAccountInfo(ctx, acc.Pubkey)
	if err != nil || !exists {
		slog.Warn("skipping unavailable token account", "pubkey", acc.Pubkey, "error", err)
		return models.TokenAccount{}, false
	}

	info := acc.Account.Data.Parsed.Info
	if info.Mint == "" {
		slog.Warn("skipping account with unparseable state", "pubkey", acc.Pubkey)
		return models.TokenAccount{}, false
	}

	amount, err := strconv.ParseUint(info.TokenAmount.Amount, 10, 64)
	if err != nil {
		slog.Warn("skipping account with unparseable amount",
			"pubkey", acc.Pubkey,
			"amount", info.TokenAmount.Amount,
			"error", err,
		)
		return models.TokenAccount{}, false
	}

	return models.TokenAccount{
		Pubkey:   acc.Pubkey,
		Mint:     info.Mint,
		Amount:   amount,
		Decimals: info.TokenAmount.Decimals,
		Lamports: lamports,
	}, true
}

func lamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / config.LamportsPerSOL
}
