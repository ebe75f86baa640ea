package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mr-tron/base58"

	"github.com/solclaim/solclaim/internal/config"
)

// Client is a Solana JSON-RPC client with endpoint failover. On any
// failure it rotates to the next endpoint and retries after a fixed wait,
// up to MaxRetries attempts. The rotation is sticky across calls.
type Client struct {
	httpClient *http.Client
	endpoints  []string
	rotation   Rotation
	mu         sync.Mutex

	maxRetries int
	backoff    time.Duration
	sleep      func(time.Duration)
}

// NewClient creates a JSON-RPC client over the ordered endpoint list
// (primary first, then backups).
func NewClient(httpClient *http.Client, endpoints []string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.APITimeout}
	}
	slog.Info("SOL RPC client created",
		"endpointCount", len(endpoints),
		"endpoints", endpoints,
	)
	return &Client{
		httpClient: httpClient,
		endpoints:  endpoints,
		rotation:   NewRotation(len(endpoints)),
		maxRetries: config.MaxRetries,
		backoff:    config.RetryBackoff,
		sleep:      time.Sleep,
	}
}

// rpcRequest is a Solana JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// rpcResponse is a generic JSON-RPC response with json.RawMessage result.
type rpcResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// currentEndpoint returns the endpoint currently in rotation.
func (c *Client) currentEndpoint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoints[c.rotation.Current]
}

// rotate advances to the next endpoint after a failure.
func (c *Client) rotate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rotation = c.rotation.Next()
}

// call invokes a JSON-RPC method against the current endpoint, rotating
// and retrying on failure. Exhausting all attempts returns ErrRPCExhausted
// wrapping the last failure's cause.
func (c *Client) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			c.sleep(c.backoff)
		}

		url := c.currentEndpoint()
		result, err := c.doRPC(ctx, url, method, params)
		if err == nil {
			return result, nil
		}
		lastErr = err

		slog.Warn("RPC call failed, rotating endpoint",
			"method", method,
			"endpoint", url,
			"attempt", attempt+1,
			"maxRetries", c.maxRetries,
			"error", err,
		)
		c.rotate()
	}

	return nil, fmt.Errorf("%w: %s after %d attempts: %v", config.ErrRPCExhausted, method, c.maxRetries, lastErr)
}

// doRPC sends a single JSON-RPC request and returns the raw result.
func (c *Client) doRPC(ctx context.Context, url, method string, params []interface{}) (json.RawMessage, error) {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal RPC request: %w", err)
	}

	slog.Debug("SOL RPC request",
		"method", method,
		"url", url,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create RPC request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute RPC request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: HTTP 429 from %s", config.ErrProviderRateLimit, url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("RPC HTTP %d from %s", resp.StatusCode, url)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("decode RPC response: %w", err)
	}

	if rpcResp.Error != nil {
		return nil, fmt.Errorf("RPC error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	return rpcResp.Result, nil
}

// GetBalance fetches the SOL balance (lamports) for an address.
func (c *Client) GetBalance(ctx context.Context, address string) (uint64, error) {
	result, err := c.call(ctx, "getBalance", []interface{}{
		address,
		map[string]string{"commitment": "confirmed"},
	})
	if err != nil {
		return 0, fmt.Errorf("getBalance for %s: %w", address, err)
	}

	var parsed struct {
		Value uint64 `json:"value"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return 0, fmt.Errorf("parse getBalance: %w", err)
	}

	slog.Debug("SOL balance fetched",
		"address", address,
		"lamports", parsed.Value,
	)

	return parsed.Value, nil
}

// ParsedTokenAccount is one entry from getTokenAccountsByOwner with
// jsonParsed encoding.
type ParsedTokenAccount struct {
	Pubkey  string `json:"pubkey"`
	Account struct {
		Data struct {
			Parsed struct {
				Info struct {
					Mint        string `json:"mint"`
					TokenAmount struct {
						Amount   string `json:"amount"`
						Decimals int    `json:"decimals"`
					} `json:"tokenAmount"`
				} `json:"info"`
			} `json:"parsed"`
		} `json:"data"`
		Lamports uint64 `json:"lamports"`
	} `json:"account"`
}

// GetTokenAccountsByOwner enumerates all SPL token accounts owned by the
// wallet under the standard token program.
func (c *Client) GetTokenAccountsByOwner(ctx context.Context, owner string) ([]ParsedTokenAccount, error) {
	result, err := c.call(ctx, "getTokenAccountsByOwner", []interface{}{
		owner,
		map[string]string{"programId": config.SOLTokenProgramID},
		map[string]string{"encoding": "jsonParsed"},
	})
	if err != nil {
		return nil, fmt.Errorf("getTokenAccountsByOwner for %s: %w", owner, err)
	}

	var parsed struct {
		Value []ParsedTokenAccount `json:"value"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return nil, fmt.Errorf("parse getTokenAccountsByOwner: %w", err)
	}

	slog.Debug("token accounts enumerated",
		"owner", owner,
		"count", len(parsed.Value),
	)

	return parsed.Value, nil
}

// GetAccountInfo checks if an account exists and returns its lamport balance.
func (c *Client) GetAccountInfo(ctx context.Context, address string) (bool, uint64, error) {
	result, err := c.call(ctx, "getAccountInfo", []interface{}{
		address,
		map[string]string{"encoding": "base64"},
	})
	if err != nil {
		return false, 0, fmt.Errorf("getAccountInfo for %s: %w", address, err)
	}

	var parsed struct {
		Value *struct {
			Lamports uint64 `json:"lamports"`
		} `json:"value"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return false, 0, fmt.Errorf("parse getAccountInfo: %w", err)
	}

	if parsed.Value == nil {
		return false, 0, nil
	}

	return true, parsed.Value.Lamports, nil
}

// TokenSupply is the total supply of a mint with its decimal precision.
type TokenSupply struct {
	Amount   string `json:"amount"`
	Decimals int    `json:"decimals"`
}

// GetTokenSupply fetches the supply of a mint. A supply of exactly 1 with
// zero decimals is the canonical NFT signature.
func (c *Client) GetTokenSupply(ctx context.Context, mint string) (TokenSupply, error) {
	result, err := c.call(ctx, "getTokenSupply", []interface{}{mint})
	if err != nil {
		return TokenSupply{}, fmt.Errorf("getTokenSupply for %s: %w", mint, err)
	}

	var parsed struct {
		Value TokenSupply `json:"value"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return TokenSupply{}, fmt.Errorf("parse getTokenSupply: %w", err)
	}

	return parsed.Value, nil
}

// GetLatestBlockhash fetches a recent blockhash for transaction building.
func (c *Client) GetLatestBlockhash(ctx context.Context) ([32]byte, error) {
	result, err := c.call(ctx, "getLatestBlockhash", []interface{}{
		map[string]string{"commitment": "confirmed"},
	})
	if err != nil {
		return [32]byte{}, fmt.Errorf("getLatestBlockhash: %w", err)
	}

	var parsed struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return [32]byte{}, fmt.Errorf("parse getLatestBlockhash: %w", err)
	}

	hashBytes, err := base58.Decode(parsed.Value.Blockhash)
	if err != nil {
		return [32]byte{}, fmt.Errorf("decode blockhash: %w", err)
	}
	if len(hashBytes) != 32 {
		return [32]byte{}, fmt.Errorf("invalid blockhash length: %d", len(hashBytes))
	}

	var blockhash [32]byte
	copy(blockhash[:], hashBytes)

	slog.Debug("fetched SOL blockhash", "blockhash", parsed.Value.Blockhash)

	return blockhash, nil
}
