package runtime

import (
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/sirupsen/logrus"
)

// Program is an on-chain program the host can dispatch instructions to
type Program interface {
	Process(ctx *InvokeContext, accounts []*AccountInfo, data []byte) error
}

// ProgramFunc adapts a function to the Program interface
type ProgramFunc func(ctx *InvokeContext, accounts []*AccountInfo, data []byte) error

func (f ProgramFunc) Process(ctx *InvokeContext, accounts []*AccountInfo, data []byte) error {
	return f(ctx, accounts, data)
}

// Transaction is a signed batch of instructions executed atomically
type Transaction struct {
	Instructions []solana.Instruction
	Signers      []solana.PrivateKey
}

// Receipt describes the outcome of one executed transaction
type Receipt struct {
	Signature solana.Signature
	Logs      []string
	Slot      uint64
}

// Bank holds account state and executes transactions against it.
// Transactions are serialized; each one commits fully or not at all.
type Bank struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey]*Account
	programs map[solana.PublicKey]Program
	slot     uint64
	logger   *logrus.Logger
}

// NewBank creates a bank with the system and token programs registered
func NewBank(logger *logrus.Logger) *Bank {
	if logger == nil {
		logger = logrus.New()
	}

	b := &Bank{
		accounts: make(map[solana.PublicKey]*Account),
		programs: make(map[solana.PublicKey]Program),
		logger:   logger,
	}

	b.RegisterProgram(SystemProgramID(), &SystemProgram{})
	b.RegisterProgram(TokenProgramID(), &TokenProgram{})

	return b
}

// RegisterProgram makes program callable under id
func (b *Bank) RegisterProgram(id solana.PublicKey, program Program) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.programs[id] = program
}

// SetAccount stores a copy of acc under key
func (b *Bank) SetAccount(key solana.PublicKey, acc *Account) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.accounts[key] = acc.Clone()
}

// GetAccount returns a copy of the account stored under key
func (b *Bank) GetAccount(key solana.PublicKey) (*Account, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.accounts[key]
	if !ok {
		return nil, false
	}
	return acc.Clone(), true
}

// Slot returns the current slot
func (b *Bank) Slot() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.slot
}

// CreateTokenAccount stores an initialized token account holding amount of mint for owner
func (b *Bank) CreateTokenAccount(key, mint, owner solana.PublicKey, amount uint64) error {
	data, err := PackTokenAccount(&token.Account{
		Mint:   mint,
		Owner:  owner,
		Amount: amount,
		State:  token.Initialized,
	})
	if err != nil {
		return fmt.Errorf("failed to pack token account: %w", err)
	}

	b.SetAccount(key, &Account{
		Owner:    TokenProgramID(),
		Lamports: RentExemptMinimum(uint64(len(data))),
		Data:     data,
	})
	return nil
}

// TokenBalance returns the token amount held by the account under key
func (b *Bank) TokenBalance(key solana.PublicKey) (uint64, error) {
	acc, ok := b.GetAccount(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingAccount, key)
	}
	if !acc.Owner.Equals(TokenProgramID()) {
		return 0, fmt.Errorf("%w: %s is not a token account", ErrIncorrectProgramID, key)
	}

	state, err := UnpackTokenAccount(acc.Data)
	if err != nil {
		return 0, err
	}
	return state.Amount, nil
}

// Airdrop credits lamports to key
func (b *Bank) Airdrop(key solana.PublicKey, lamports uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.accounts[key]
	if !ok {
		acc = &Account{Owner: SystemProgramID()}
		b.accounts[key] = acc
	}
	acc.Lamports += lamports
}

// Execute runs every instruction of tx against a working copy of the touched
// accounts and commits the copy only if all of them succeed.
func (b *Bank) Execute(tx *Transaction) (*Receipt, error) {
	if len(tx.Instructions) == 0 {
		return nil, ErrEmptyTransaction
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	message, err := messageBytes(tx.Instructions)
	if err != nil {
		return nil, err
	}

	signers, signature, err := verifySigners(tx, message)
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{
		Signature: signature,
		Slot:      b.slot,
	}

	working := make(map[solana.PublicKey]*Account)
	load := func(key solana.PublicKey) *Account {
		if acc, ok := working[key]; ok {
			return acc
		}
		acc, ok := b.accounts[key]
		if ok {
			acc = acc.Clone()
		} else {
			acc = &Account{Owner: SystemProgramID()}
		}
		working[key] = acc
		return acc
	}

	for i, ix := range tx.Instructions {
		metas := ix.Accounts()
		for _, meta := range metas {
			if meta.IsSigner && !signers[meta.PublicKey] {
				return receipt, &InstructionError{Index: i, Err: fmt.Errorf("%w: %s", ErrMissingSignature, meta.PublicKey)}
			}
		}

		data, err := ix.Data()
		if err != nil {
			return receipt, &InstructionError{Index: i, Err: fmt.Errorf("%w: %v", ErrInvalidAccountData, err)}
		}

		infos := make([]*AccountInfo, len(metas))
		for j, meta := range metas {
			infos[j] = &AccountInfo{
				Key:        meta.PublicKey,
				IsSigner:   meta.IsSigner,
				IsWritable: meta.IsWritable,
				Account:    load(meta.PublicKey),
			}
		}

		ctx := &InvokeContext{
			bank:      b,
			programID: ix.ProgramID(),
			logs:      &receipt.Logs,
		}
		if err := ctx.execute(ix.ProgramID(), infos, data); err != nil {
			b.logger.WithFields(logrus.Fields{
				"signature":   signature.String(),
				"instruction": i,
				"program":     ix.ProgramID().String(),
			}).WithError(err).Warn("Transaction rolled back")
			return receipt, &InstructionError{Index: i, Err: err}
		}
	}

	for key, acc := range working {
		if acc.IsEmpty() {
			delete(b.accounts, key)
			continue
		}
		b.accounts[key] = acc
	}
	b.slot++

	b.logger.WithFields(logrus.Fields{
		"signature":    signature.String(),
		"instructions": len(tx.Instructions),
		"slot":         receipt.Slot,
	}).Debug("Transaction committed")

	return receipt, nil
}

// messageBytes serializes the instructions into the payload every signer signs
func messageBytes(instructions []solana.Instruction) ([]byte, error) {
	var message []byte
	for _, ix := range instructions {
		message = append(message, ix.ProgramID().Bytes()...)
		for _, meta := range ix.Accounts() {
			message = append(message, meta.PublicKey.Bytes()...)
		}
		data, err := ix.Data()
		if err != nil {
			return nil, fmt.Errorf("failed to serialize instruction: %w", err)
		}
		message = append(message, data...)
	}
	digest := sha256.Sum256(message)
	return digest[:], nil
}

// verifySigners signs the message with every signer, verifies each signature
// and returns the signer set plus the first signature as the transaction id
func verifySigners(tx *Transaction, message []byte) (map[solana.PublicKey]bool, solana.Signature, error) {
	signers := make(map[solana.PublicKey]bool, len(tx.Signers))
	var first solana.Signature

	for i, key := range tx.Signers {
		sig, err := key.Sign(message)
		if err != nil {
			return nil, solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
		}
		if !sig.Verify(key.PublicKey(), message) {
			return nil, solana.Signature{}, fmt.Errorf("%w: signature verification failed for %s", ErrMissingSignature, key.PublicKey())
		}
		if i == 0 {
			first = sig
		}
		signers[key.PublicKey()] = true
	}

	return signers, first, nil
}
