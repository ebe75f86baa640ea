package config

import "time"

// Solana program and account identifiers
const (
	SOLTokenProgramID  = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	SOLSystemProgramID = "11111111111111111111111111111111"
	WrappedSOLMint     = "So11111111111111111111111111111111111111112"

	// CollectorAddress receives the 10% share of reclaimed rent.
	CollectorAddress = "5AVbEpWRAHhmk2VFwvJMubwvkqbBRxKuXjCWpz9GKqU"
)

// Units
const (
	LamportsPerSOL = 1_000_000_000
)

// Retry / backoff policy
const (
	MaxRetries       = 5
	RetryBackoff     = 1500 * time.Millisecond // RPC rotation wait + HTTP 429 backoff base
	APITimeout       = 15 * time.Second
	BatchScanDelay   = 1 * time.Second
	RateLimitPerHost = 10 // requests per second through the fetch primitive
)

// ScanCacheTTL is how long an archived report answers a scan request
// before a fresh scan is started.
const ScanCacheTTL = 5 * time.Minute

// Rent retention: reports show 90% of gross reclaimable rent; the close
// transaction splits gross lamports 90% to the wallet, 10% to the collector.
const (
	RetentionNumerator   = 9
	RetentionDenominator = 10
)

// Transaction
const (
	SOLMaxTxSize = 1232 // max serialized transaction size in bytes
)

// Server
const (
	ServerReadTimeout  = 30 * time.Second
	ServerWriteTimeout = 60 * time.Second
	ShutdownTimeout    = 30 * time.Second
)

// Logging
const (
	LogFilePattern = "solclaim-%s.log" // %s = YYYY-MM-DD
	LogMaxAgeDays  = 30
)

// Database
const (
	DBBusyTimeout = 5000 // milliseconds
)
