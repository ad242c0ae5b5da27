package wallet

import (
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
	bip39 "github.com/tyler-smith/go-bip39"
)

// ErrNoKey is returned when neither a private key nor a mnemonic is configured
var ErrNoKey = errors.New("private key or mnemonic is required")

// Wallet holds the keypair that signs pool transactions
type Wallet struct {
	account types.Account
	logger  *logrus.Logger
}

// WalletConfig contains wallet configuration
type WalletConfig struct {
	PrivateKey string // base58, 64 bytes
	Mnemonic   string
	Passphrase string
	Network    string
}

// NewWallet loads the signer from a base58 private key, or from a BIP-39
// mnemonic when no private key is set
func NewWallet(cfg WalletConfig, logger *logrus.Logger) (*Wallet, error) {
	var (
		account types.Account
		err     error
	)

	switch {
	case cfg.PrivateKey != "":
		account, err = types.AccountFromBase58(cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
	case cfg.Mnemonic != "":
		account, err = AccountFromMnemonic(cfg.Mnemonic, cfg.Passphrase)
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrNoKey
	}

	wallet := &Wallet{
		account: account,
		logger:  logger,
	}

	logger.WithFields(logrus.Fields{
		"public_key": wallet.PublicKey().String(),
		"network":    cfg.Network,
	}).Info("Wallet initialized")

	return wallet, nil
}

// AccountFromMnemonic derives the keypair the way solana-keygen does without a
// derivation path: the first 32 bytes of the BIP-39 seed are the ed25519 seed.
func AccountFromMnemonic(mnemonic, passphrase string) (types.Account, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return types.Account{}, fmt.Errorf("invalid mnemonic: %w", err)
	}

	account, err := types.AccountFromSeed(seed[:32])
	if err != nil {
		return types.Account{}, fmt.Errorf("failed to derive account from seed: %w", err)
	}
	return account, nil
}

// PublicKey returns the wallet's public key
func (w *Wallet) PublicKey() solana.PublicKey {
	return solana.PublicKeyFromBytes(w.account.PublicKey.Bytes())
}

// PrivateKey returns the 64-byte signing key
func (w *Wallet) PrivateKey() solana.PrivateKey {
	return solana.PrivateKey(w.account.PrivateKey)
}

// ExportBase58 returns the private key in the base58 form accepted by NewWallet
func (w *Wallet) ExportBase58() string {
	return base58.Encode(w.account.PrivateKey)
}

// AssociatedTokenAddress returns the wallet's ATA for mint (no RPC call)
func (w *Wallet) AssociatedTokenAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := common.FindAssociatedTokenAddress(w.account.PublicKey, common.PublicKeyFromBytes(mint.Bytes()))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to find ATA address: %w", err)
	}
	return solana.PublicKeyFromBytes(ata.Bytes()), nil
}

// Signer returns a key getter for solana.Transaction.Sign
func (w *Wallet) Signer() func(solana.PublicKey) *solana.PrivateKey {
	return func(key solana.PublicKey) *solana.PrivateKey {
		if !key.Equals(w.PublicKey()) {
			return nil
		}
		priv := w.PrivateKey()
		return &priv
	}
}
