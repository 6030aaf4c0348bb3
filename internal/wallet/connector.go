// Package wallet manages the simulated wallet session. There is no real
// chain behind the venue: connecting either adopts a caller-supplied address
// or mints a fresh keypair, then funds a new account with the demo balance.
package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Qhawe-ma/predd/internal/domain"
)

// Connector opens and closes wallet sessions against the portfolio store.
type Connector struct {
	portfolio   domain.PortfolioStore
	seedBalance float64
	delay       time.Duration
	logger      *slog.Logger
}

// NewConnector creates a Connector. seedBalance is the cash granted to a
// wallet the first time it connects; delay simulates the extension handshake.
func NewConnector(portfolio domain.PortfolioStore, seedBalance float64, delay time.Duration, logger *slog.Logger) *Connector {
	return &Connector{
		portfolio:   portfolio,
		seedBalance: seedBalance,
		delay:       delay,
		logger:      logger,
	}
}

// Connect opens a session for the given address, or for a freshly generated
// one when address is empty. A first-time wallet is funded with the seed
// balance; a returning wallet keeps its balance, positions, and history.
func (c *Connector) Connect(ctx context.Context, address string) (domain.Account, error) {
	if err := c.handshake(ctx); err != nil {
		return domain.Account{}, fmt.Errorf("wallet: connect: %w", err)
	}

	if address == "" {
		generated, err := generateAddress()
		if err != nil {
			return domain.Account{}, fmt.Errorf("wallet: generate address: %w", err)
		}
		address = generated
	} else if !common.IsHexAddress(address) {
		return domain.Account{}, &domain.ValidationError{Field: "wallet", Reason: "is not a valid hex address"}
	} else {
		address = common.HexToAddress(address).Hex()
	}

	now := time.Now().UTC()
	account, err := c.portfolio.GetAccount(ctx, address)
	if err == nil {
		account.Connected = true
		account.ConnectedAt = now
	} else {
		account = domain.Account{
			Wallet:      address,
			Connected:   true,
			Balance:     c.seedBalance,
			ConnectedAt: now,
		}
	}

	if err := c.portfolio.SaveAccount(ctx, account); err != nil {
		return domain.Account{}, fmt.Errorf("wallet: save account: %w", err)
	}

	c.logger.InfoContext(ctx, "wallet: connected",
		slog.String("wallet", account.Wallet),
		slog.Float64("balance", account.Balance),
	)
	return account, nil
}

// Disconnect closes the session. The account and its holdings stay intact
// for the next connect. Disconnecting an unknown wallet is a no-op.
func (c *Connector) Disconnect(ctx context.Context, address string) error {
	account, err := c.portfolio.GetAccount(ctx, address)
	if err != nil {
		return nil
	}
	account.Connected = false
	if err := c.portfolio.SaveAccount(ctx, account); err != nil {
		return fmt.Errorf("wallet: disconnect: %w", err)
	}
	c.logger.InfoContext(ctx, "wallet: disconnected", slog.String("wallet", address))
	return nil
}

// handshake simulates the latency of a browser-extension approval.
func (c *Connector) handshake(ctx context.Context) error {
	if c.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// generateAddress mints a throwaway secp256k1 keypair and returns its
// checksummed address. The private key is discarded; nothing is ever signed.
func generateAddress() (string, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", err
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}
