package soltx

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/solclaim/solclaim/internal/config"
)

// BlockhashProvider supplies a recent blockhash as the transaction's
// anti-replay anchor.
type BlockhashProvider interface {
	GetLatestBlockhash(ctx context.Context) ([32]byte, error)
}

// BuildCloseAccountsTx builds an unsigned transaction message closing the
// given empty token accounts and splitting the gross reclaimed lamports
// 90% back to the wallet, 10% to the collector. Returns the hex-encoded
// serialized message for external signing; no private key is ever held
// here.
func BuildCloseAccountsTx(
	ctx context.Context,
	blockhashes BlockhashProvider,
	wallet string,
	emptyAccounts []string,
	grossLamports uint64,
) (string, error) {
	walletKey, err := PublicKeyFromBase58(wallet)
	if err != nil {
		return "", fmt.Errorf("parse wallet address: %w", err)
	}

	collectorKey, err := PublicKeyFromBase58(config.CollectorAddress)
	if err != nil {
		return "", fmt.Errorf("parse collector address: %w", err)
	}

	var instructions []Instruction

	for _, acc := range emptyAccounts {
		accKey, err := PublicKeyFromBase58(acc)
		if err != nil {
			return "", fmt.Errorf("parse account address %q: %w", acc, err)
		}
		instructions = append(instructions, BuildCloseAccountInstruction(accKey, walletKey, walletKey))
	}

	walletShare := grossLamports * config.RetentionNumerator / config.RetentionDenominator
	collectorShare := grossLamports - walletShare

	if walletShare > 0 {
		instructions = append(instructions, BuildSystemTransferInstruction(walletKey, walletKey, walletShare))
	}
	if collectorShare > 0 {
		instructions = append(instructions, BuildSystemTransferInstruction(walletKey, collectorKey, collectorShare))
	}

	if len(instructions) == 0 {
		return "", config.ErrNoInstructions
	}

	blockhash, err := blockhashes.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("get blockhash: %w", err)
	}

	msg, err := CompileMessage(walletKey, instructions, blockhash)
	if err != nil {
		return "", fmt.Errorf("compile message: %w", err)
	}

	msgBytes, err := SerializeMessage(msg)
	if err != nil {
		return "", fmt.Errorf("serialize message: %w", err)
	}

	if len(msgBytes) > config.SOLMaxTxSize {
		return "", fmt.Errorf("%w: %d bytes (max %d)", config.ErrSOLTxTooLarge, len(msgBytes), config.SOLMaxTxSize)
	}

	slog.Info("close-accounts message built",
		"wallet", wallet,
		"closeCount", len(emptyAccounts),
		"grossLamports", grossLamports,
		"walletShare", walletShare,
		"collectorShare", collectorShare,
		"size", len(msgBytes),
	)

	return hex.EncodeToString(msgBytes), nil
}
