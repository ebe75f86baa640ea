package token

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/solclaim/solclaim/internal/models"
)

// Each provider response has its own struct and an adapter into the common
// shape, so schema drift in one provider stays contained.

// solscanMetaResponse is the Solscan token/meta response.
type solscanMetaResponse struct {
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	Decimals   int    `json:"decimals"`
	Icon       string `json:"icon"`
	TokenType  string `json:"tokenType"`
	Collection string `json:"collection"`
}

func (r solscanMetaResponse) toMetadata() models.MintMetadata {
	return models.MintMetadata{
		Symbol:     r.Symbol,
		Name:       r.Name,
		Decimals:   r.Decimals,
		Icon:       r.Icon,
		Collection: r.Collection,
	}
}

// jupiterTokenResponse is the Jupiter token API response.
type jupiterTokenResponse struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
	LogoURI  string `json:"logoURI"`
}

func (r jupiterTokenResponse) toMetadata(mint string) models.MintMetadata {
	meta := models.MintMetadata{
		Symbol:   r.Symbol,
		Name:     r.Name,
		Decimals: r.Decimals,
		Icon:     r.LogoURI,
	}
	if meta.Symbol == "" {
		meta.Symbol = fallbackMetadata(mint).Symbol
	}
	if meta.Name == "" {
		meta.Name = "Unknown"
	}
	return meta
}

// jupiterPriceResponse is the Jupiter price v4 response, keyed by mint.
type jupiterPriceResponse struct {
	Data map[string]struct {
		Price float64 `json:"price"`
	} `json:"data"`
}

// solscanMarketResponse is the Solscan market/token response. The price
// arrives as a string field.
type solscanMarketResponse struct {
	PriceUsdt string `json:"priceUsdt"`
}

// metaplexMetaResponse is the Metaplex token metadata response.
type metaplexMetaResponse struct {
	URI string `json:"uri"`
}

func (s *Service) fetchSolscanMeta(ctx context.Context, mint string) (models.MintMetadata, bool) {
	url := fmt.Sprintf("%s/token/meta?tokenAddress=%s", s.solscanURL, mint)
	body, ok := s.fetcher.Get(ctx, url, nil)
	if !ok {
		return models.MintMetadata{}, false
	}

	var resp solscanMetaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		slog.Debug("solscan meta decode failed", "mint", mint, "error", err)
		return models.MintMetadata{}, false
	}

	return resp.toMetadata(), true
}

func (s *Service) fetchSolscanTokenType(ctx context.Context, mint string) (string, bool) {
	url := fmt.Sprintf("%s/token/meta?tokenAddress=%s", s.solscanURL, mint)
	body, ok := s.fetcher.Get(ctx, url, nil)
	if !ok {
		return "", false
	}

	var resp solscanMetaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", false
	}

	return resp.TokenType, true
}

func (s *Service) fetchJupiterToken(ctx context.Context, mint string) (models.MintMetadata, bool) {
	url := fmt.Sprintf("%s/token/%s", s.jupiterTokenURL, mint)
	body, ok := s.fetcher.Get(ctx, url, nil)
	if !ok {
		return models.MintMetadata{}, false
	}

	var resp jupiterTokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		slog.Debug("jupiter token decode failed", "mint", mint, "error", err)
		return models.MintMetadata{}, false
	}

	return resp.toMetadata(mint), true
}

func (s *Service) fetchJupiterPrice(ctx context.Context, mint string) (float64, bool) {
	url := fmt.Sprintf("%s/v4/price?ids=%s", s.jupiterPriceURL, mint)
	body, ok := s.fetcher.Get(ctx, url, nil)
	if !ok {
		return 0, false
	}

	var resp jupiterPriceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		slog.Debug("jupiter price decode failed", "mint", mint, "error", err)
		return 0, false
	}

	entry, ok := resp.Data[mint]
	if !ok {
		return 0, false
	}

	return entry.Price, true
}

func (s *Service) fetchSolscanPrice(ctx context.Context, mint string) (float64, bool) {
	url := fmt.Sprintf("%s/market/token/%s", s.solscanURL, mint)
	body, ok := s.fetcher.Get(ctx, url, nil)
	if !ok {
		return 0, false
	}

	var resp solscanMarketResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		slog.Debug("solscan market decode failed", "mint", mint, "error", err)
		return 0, false
	}
	if resp.PriceUsdt == "" {
		return 0, false
	}

	price, err := strconv.ParseFloat(resp.PriceUsdt, 64)
	if err != nil {
		slog.Debug("solscan priceUsdt parse failed", "mint", mint, "value", resp.PriceUsdt, "error", err)
		return 0, false
	}

	return price, true
}

func (s *Service) fetchMetaplexURI(ctx context.Context, mint string) (string, bool) {
	url := fmt.Sprintf("%s/v1/tokens/%s/metadata", s.metaplexURL, mint)
	body, ok := s.fetcher.Get(ctx, url, nil)
	if !ok {
		return "", false
	}

	var resp metaplexMetaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", false
	}

	return resp.URI, true
}
