package token

import (
	"context"
	"log/slog"

	"github.com/patrickmn/go-cache"

	"github.com/solclaim/solclaim/internal/config"
	"github.com/solclaim/solclaim/internal/models"
	"github.com/solclaim/solclaim/internal/rpc"
)

// Getter is the shared HTTP fetch primitive. Absent data (ok=false) is an
// expected outcome, not an error.
type Getter interface {
	Get(ctx context.Context, url string, headers map[string]string) ([]byte, bool)
}

// SupplyChecker looks up a mint's total supply on-chain, used for the
// zero-decimals supply-of-one NFT signature.
type SupplyChecker interface {
	GetTokenSupply(ctx context.Context, mint string) (rpc.TokenSupply, error)
}

// Service resolves mint metadata, USD prices and NFT classification with
// layered provider fallbacks. Results are cached per mint for the process
// lifetime; duplicate writes from concurrent scans are benign (last write
// wins, values are equivalent).
type Service struct {
	fetcher    Getter
	supply     SupplyChecker
	metaCache  *cache.Cache
	priceCache *cache.Cache

	solscanURL      string
	jupiterTokenURL string
	jupiterPriceURL string
	metaplexURL     string
}

// NewService creates the metadata/price service. Caches are injected so
// tests can pre-seed or inspect them.
func NewService(fetcher Getter, supply SupplyChecker, metaCache, priceCache *cache.Cache, cfg *config.Config) *Service {
	if metaCache == nil {
		metaCache = cache.New(cache.NoExpiration, 0)
	}
	if priceCache == nil {
		priceCache = cache.New(cache.NoExpiration, 0)
	}
	return &Service{
		fetcher:         fetcher,
		supply:          supply,
		metaCache:       metaCache,
		priceCache:      priceCache,
		solscanURL:      cfg.SolscanBaseURL,
		jupiterTokenURL: cfg.JupiterTokenBaseURL,
		jupiterPriceURL: cfg.JupiterPriceBaseURL,
		metaplexURL:     cfg.MetaplexBaseURL,
	}
}

// Metadata resolves mint metadata: Solscan first, then Jupiter remapped
// into the common shape, then a synthesized fallback with a truncated mint
// as the symbol. The first result, fallback included, is cached forever.
func (s *Service) Metadata(ctx context.Context, mint string) models.MintMetadata {
	if cached, ok := s.metaCache.Get(mint); ok {
		return cached.(models.MintMetadata)
	}

	meta, ok := s.fetchSolscanMeta(ctx, mint)
	if !ok || meta.Symbol == "" {
		if jup, jOK := s.fetchJupiterToken(ctx, mint); jOK {
			meta = jup
		}
	}

	if meta.Symbol == "" {
		meta = fallbackMetadata(mint)
		slog.Debug("metadata fallback used", "mint", mint)
	}

	s.metaCache.Set(mint, meta, cache.NoExpiration)
	return meta
}

// Price resolves a USD unit price: Jupiter first, then Solscan's market
// endpoint. Both failing yields an unpriced quote (USD 0, Found false).
// Cached forever per mint.
func (s *Service) Price(ctx context.Context, mint string) models.PriceQuote {
	if cached, ok := s.priceCache.Get(mint); ok {
		return cached.(models.PriceQuote)
	}

	quote := models.PriceQuote{}
	if usd, ok := s.fetchJupiterPrice(ctx, mint); ok {
		quote = models.PriceQuote{USD: usd, Found: true}
	} else if usd, ok := s.fetchSolscanPrice(ctx, mint); ok {
		quote = models.PriceQuote{USD: usd, Found: true}
	} else {
		slog.Debug("no price found", "mint", mint)
	}

	s.priceCache.Set(mint, quote, cache.NoExpiration)
	return quote
}

// IsNFT classifies a mint as non-fungible. Signals in fixed priority
// order, short-circuiting on the first positive:
//  1. a metadata provider explicitly labels the token type as NFT;
//  2. zero decimals with a total supply of exactly 1;
//  3. the Metaplex metadata endpoint returns a content URI.
func (s *Service) IsNFT(ctx context.Context, mint string) bool {
	key := nftCacheKey(mint)
	if cached, ok := s.metaCache.Get(key); ok {
		return cached.(bool)
	}

	result := s.classifyNFT(ctx, mint)
	s.metaCache.Set(key, result, cache.NoExpiration)
	return result
}

func (s *Service) classifyNFT(ctx context.Context, mint string) bool {
	if tokenType, ok := s.fetchSolscanTokenType(ctx, mint); ok && tokenType == "nft" {
		return true
	}

	if s.supply != nil {
		supply, err := s.supply.GetTokenSupply(ctx, mint)
		if err != nil {
			slog.Debug("token supply lookup failed", "mint", mint, "error", err)
		} else if supply.Decimals == 0 && supply.Amount == "1" {
			return true
		}
	}

	if uri, ok := s.fetchMetaplexURI(ctx, mint); ok && uri != "" {
		return true
	}

	return false
}

// NFTMetadata resolves display metadata for a non-fungible mint.
func (s *Service) NFTMetadata(ctx context.Context, mint string) models.HeldNFT {
	meta := s.Metadata(ctx, mint)
	nft := models.HeldNFT{
		Mint:       mint,
		Symbol:     meta.Symbol,
		Name:       meta.Name,
		Collection: meta.Collection,
		URI:        meta.URI,
	}
	if nft.URI == "" {
		if uri, ok := s.fetchMetaplexURI(ctx, mint); ok {
			nft.URI = uri
		}
	}
	return nft
}

func nftCacheKey(mint string) string {
	return "nft:" + mint
}

// fallbackMetadata synthesizes metadata when every provider comes up empty.
func fallbackMetadata(mint string) models.MintMetadata {
	symbol := mint
	if len(mint) > 4 {
		symbol = mint[:4] + "..."
	}
	return models.MintMetadata{
		Symbol: symbol,
		Name:   "Unknown",
	}
}
