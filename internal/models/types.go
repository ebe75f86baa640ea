package models

import "math"

// TokenAccount is one token-holding account owned by a wallet, as parsed
// from getTokenAccountsByOwner + getAccountInfo.
type TokenAccount struct {
	Pubkey   string `json:"pubkey"`
	Mint     string `json:"mint"`
	Amount   uint64 `json:"amount"`
	Decimals int    `json:"decimals"`
	Lamports uint64 `json:"lamports"`
}

// UIAmount converts the raw integer amount to a display amount.
// Zero decimals means the UI amount equals the raw amount.
func (a TokenAccount) UIAmount() float64 {
	if a.Decimals == 0 {
		return float64(a.Amount)
	}
	return float64(a.Amount) / math.Pow10(a.Decimals)
}

// MintMetadata describes a token mint: symbol, name, decimals, icon and
// optional NFT collection. Cached per mint for the process lifetime.
type MintMetadata struct {
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	Decimals   int    `json:"decimals"`
	Icon       string `json:"icon,omitempty"`
	Collection string `json:"collection,omitempty"`
	URI        string `json:"uri,omitempty"`
}

// PriceQuote is a USD unit price for a mint. Found=false means no provider
// returned a price; USD is then 0, which is a "no data" sentinel rather
// than an actual zero valuation.
type PriceQuote struct {
	USD   float64 `json:"usd"`
	Found bool    `json:"found"`
}

// HeldToken is a fungible token position with nonzero balance, joined with
// metadata and price.
type HeldToken struct {
	Mint     string  `json:"mint"`
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Balance  float64 `json:"balance"`
	PriceUSD float64 `json:"price_usd"`
	ValueUSD float64 `json:"value_usd"`
	Decimals int     `json:"decimals"`
}

// HeldNFT is a non-fungible position with nonzero balance. NFTs are never
// priced in the report.
type HeldNFT struct {
	Mint       string `json:"mint"`
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	Collection string `json:"collection,omitempty"`
	URI        string `json:"uri,omitempty"`
}

// EmptyAccount is a token account with zero balance. Lamports of non-NFT
// empty accounts count toward the reclaimable rent total; NFT holder
// accounts are excluded from reclamation.
type EmptyAccount struct {
	Pubkey   string `json:"pubkey"`
	Mint     string `json:"mint"`
	Lamports uint64 `json:"lamports"`
	IsNFT    bool   `json:"is_nft"`
}

// WalletReport is the aggregate result of one wallet scan. Immutable after
// construction.
type WalletReport struct {
	Wallet             string         `json:"wallet"`
	SOLBalance         float64        `json:"sol_balance"`
	SOLValueUSD        float64        `json:"sol_value_usd"`
	TokenAccounts      int            `json:"token_accounts"`
	EmptyAccountCount  int            `json:"empty_accounts"`
	NFTAccountCount    int            `json:"nft_accounts"`
	RentReclaimable    float64        `json:"rent_reclaimable"`
	RentReclaimableUSD float64        `json:"rent_reclaimable_usd"`
	Tokens             []HeldToken    `json:"tokens"`
	NFTs               []HeldNFT      `json:"nfts,omitempty"`
	EmptyAccounts      []EmptyAccount `json:"empty_account_list,omitempty"`
	TotalTokenValueUSD float64        `json:"total_token_value_usd"`
	GrandTotalUSD      float64        `json:"grand_total_usd"`
	ScanTime           string         `json:"scan_time"`
	ExecutionTime      float64        `json:"execution_time"`
}

// ScanStatus values for async scan jobs.
const (
	ScanStatusPending   = "pending"
	ScanStatusCompleted = "completed"
	ScanStatusFailed    = "failed"
)

// ScanJob tracks an asynchronous wallet scan started over the API.
type ScanJob struct {
	ID        string        `json:"id"`
	Wallet    string        `json:"wallet"`
	Status    string        `json:"status"`
	Report    *WalletReport `json:"report,omitempty"`
	Error     string        `json:"error,omitempty"`
	StartedAt string        `json:"startedAt"`
	EndedAt   string        `json:"endedAt,omitempty"`
}

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Data interface{} `json:"data,omitempty"`
	Meta *APIMeta    `json:"meta,omitempty"`
}

// APIMeta contains pagination and execution metadata.
type APIMeta struct {
	Page          int   `json:"page,omitempty"`
	PageSize      int   `json:"pageSize,omitempty"`
	Total         int64 `json:"total,omitempty"`
	ExecutionTime int64 `json:"executionTime,omitempty"`
}

// APIError is the standard error response.
type APIError struct {
	Error APIErrorDetail `json:"error"`
}

// APIErrorDetail contains error code and message.
type APIErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
