package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	confirm "github.com/gagliardetto/solana-go/rpc/sendAndConfirmTransaction"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/sirupsen/logrus"

	"swap-pool-go/internal/pool"
	"swap-pool-go/internal/runtime"
	"swap-pool-go/pkg/utils"
)

// ErrAccountNotFound is returned when an account does not exist on chain
var ErrAccountNotFound = errors.New("account not found")

// Signer is the keypair that pays for and signs pool transactions
type Signer interface {
	PublicKey() solana.PublicKey
	Signer() func(solana.PublicKey) *solana.PrivateKey
}

// Client talks to a cluster over JSON-RPC and submits pool instructions
type Client struct {
	client    *rpc.Client
	wsClient  *ws.Client
	logger    *logrus.Logger
	programID solana.PublicKey
	config    ClientConfig
}

// ClientConfig contains configuration for the pool client
type ClientConfig struct {
	RPCEndpoint    string
	WSEndpoint     string
	APIKey         string
	ProgramID      solana.PublicKey
	Timeout        time.Duration
	ConfirmTimeout time.Duration
	Commitment     rpc.CommitmentType
}

// NewClient creates the RPC client and connects the websocket used for confirmations
func NewClient(ctx context.Context, config ClientConfig, logger *logrus.Logger) (*Client, error) {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.ConfirmTimeout == 0 {
		config.ConfirmTimeout = 30 * time.Second
	}
	if config.Commitment == "" {
		config.Commitment = rpc.CommitmentConfirmed
	}

	var rpcClient *rpc.Client
	if config.APIKey != "" {
		rpcClient = rpc.NewWithHeaders(config.RPCEndpoint, map[string]string{
			"Authorization": "Bearer " + config.APIKey,
		})
	} else {
		rpcClient = rpc.New(config.RPCEndpoint)
	}

	wsClient, err := ws.Connect(ctx, config.WSEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect websocket %s: %w", config.WSEndpoint, err)
	}

	return &Client{
		client:    rpcClient,
		wsClient:  wsClient,
		logger:    logger,
		programID: config.ProgramID,
		config:    config,
	}, nil
}

// Close closes the websocket connection
func (c *Client) Close() {
	if c.wsClient != nil {
		c.wsClient.Close()
	}
}

// ProgramID returns the pool program the client targets
func (c *Client) ProgramID() solana.PublicKey {
	return c.programID
}

// GetAccountInfo fetches an account, mapping a missing account to ErrAccountNotFound
func (c *Client) GetAccountInfo(ctx context.Context, address solana.PublicKey) (*rpc.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	result, err := c.client.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.config.Commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
		}
		return nil, fmt.Errorf("getAccountInfo failed: %w", err)
	}
	if result == nil || result.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}

	return result.Value, nil
}

// GetUpgradeAuthority reads the program's current upgrade authority from its ProgramData account
func (c *Client) GetUpgradeAuthority(ctx context.Context) (solana.PublicKey, error) {
	programData, _, err := utils.DeriveProgramData(c.programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive program data: %w", err)
	}

	account, err := c.GetAccountInfo(ctx, programData)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if !account.Owner.Equals(runtime.LoaderProgramID()) {
		return solana.PublicKey{}, pool.ErrInvalidProgramData
	}

	return pool.ParseUpgradeAuthority(account.Data.GetBinary())
}

// GetController returns the controller address and its record, if initialized
func (c *Client) GetController(ctx context.Context) (solana.PublicKey, *pool.ControllerRecord, error) {
	address, _, err := utils.NewControllerDerivation(c.programID).Derive()
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("failed to derive controller: %w", err)
	}

	account, err := c.GetAccountInfo(ctx, address)
	if err != nil {
		return address, nil, err
	}
	if !account.Owner.Equals(c.programID) {
		return address, nil, pool.ErrAccountOwnedByWrongProgram
	}

	record, err := pool.UnmarshalControllerRecord(account.Data.GetBinary())
	if err != nil {
		return address, nil, err
	}
	return address, record, nil
}

// GetTokenBalance returns the raw token amount held by a token account
func (c *Client) GetTokenBalance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	result, err := c.client.GetTokenAccountBalance(ctx, address, c.config.Commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get token balance: %w", err)
	}
	if result == nil || result.Value == nil {
		return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}

	amount, err := strconv.ParseUint(result.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token amount %q: %w", result.Value.Amount, err)
	}
	return amount, nil
}

// GetTransactionLogs returns the program logs of a confirmed transaction
func (c *Client) GetTransactionLogs(ctx context.Context, signature solana.Signature) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	maxVersion := uint64(0)
	result, err := c.client.GetTransaction(ctx, signature, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     c.config.Commitment,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("getTransaction failed: %w", err)
	}
	if result == nil || result.Meta == nil {
		return nil, fmt.Errorf("transaction %s has no metadata", signature)
	}

	return result.Meta.LogMessages, nil
}

// Send signs the instructions with signer as fee payer, submits them and waits for confirmation
func (c *Client) Send(ctx context.Context, signer Signer, instructions ...solana.Instruction) (solana.Signature, error) {
	recent, err := c.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		recent.Value.Blockhash,
		solana.TransactionPayer(signer.PublicKey()),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	if _, err := tx.Sign(signer.Signer()); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	confirmCtx, cancel := context.WithTimeout(ctx, c.config.ConfirmTimeout)
	defer cancel()

	sig, err := confirm.SendAndConfirmTransaction(confirmCtx, c.client, c.wsClient, tx)
	if err != nil {
		return sig, fmt.Errorf("failed to send transaction: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"signature":    sig.String(),
		"instructions": len(instructions),
	}).Debug("Transaction confirmed")

	return sig, nil
}

// Initialize creates the controller record; signer must be the upgrade authority
func (c *Client) Initialize(ctx context.Context, signer Signer) (solana.Signature, error) {
	ix, err := pool.NewInitializeInstruction(c.programID, signer.PublicKey())
	if err != nil {
		return solana.Signature{}, err
	}
	return c.Send(ctx, signer, ix)
}

// Deposit moves amount from the signer's token account into the vault
func (c *Client) Deposit(ctx context.Context, signer Signer, source, vault solana.PublicKey, amount uint64) (solana.Signature, error) {
	ix, err := pool.NewDepositInstruction(c.programID, pool.DepositAccounts{
		User:             signer.PublicKey(),
		UserTokenAccount: source,
		Vault:            vault,
	}, amount)
	if err != nil {
		return solana.Signature{}, err
	}
	return c.Send(ctx, signer, ix)
}

// Swap moves amount from the vault to recipient; signer must be the upgrade authority
func (c *Client) Swap(ctx context.Context, signer Signer, vault, recipient solana.PublicKey, amount uint64) (solana.Signature, error) {
	ix, err := pool.NewSwapInstruction(c.programID, pool.SwapAccounts{
		Authority: signer.PublicKey(),
		Vault:     vault,
		Recipient: recipient,
	}, amount)
	if err != nil {
		return solana.Signature{}, err
	}
	return c.Send(ctx, signer, ix)
}
