package runtime

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
)

// TokenProgram is the host's token-transfer primitive. Only Transfer is supported.
type TokenProgram struct{}

func (p *TokenProgram) Process(ctx *InvokeContext, accounts []*AccountInfo, data []byte) error {
	metas := make([]*solana.AccountMeta, len(accounts))
	for i, info := range accounts {
		metas[i] = solana.NewAccountMeta(info.Key, info.IsWritable, info.IsSigner)
	}

	inst, err := token.DecodeInstruction(metas, data)
	if err != nil {
		return fmt.Errorf("%w: %v", TokenErrInvalidInstruction, err)
	}

	switch impl := inst.Impl.(type) {
	case *token.Transfer:
		if impl.Amount == nil {
			return TokenErrInvalidInstruction
		}
		if len(accounts) < 3 {
			return ErrMissingAccount
		}
		return p.transfer(ctx, accounts[0], accounts[1], accounts[2], *impl.Amount)
	default:
		return fmt.Errorf("%w: unsupported token instruction %T", TokenErrInvalidInstruction, impl)
	}
}

func (p *TokenProgram) transfer(ctx *InvokeContext, source, destination, authority *AccountInfo, amount uint64) error {
	for _, info := range []*AccountInfo{source, destination} {
		if !info.Owner.Equals(TokenProgramID()) {
			return fmt.Errorf("%w: %s is not owned by the token program", ErrIncorrectProgramID, info.Key)
		}
	}

	src, err := UnpackTokenAccount(source.Data)
	if err != nil {
		return err
	}
	dst, err := UnpackTokenAccount(destination.Data)
	if err != nil {
		return err
	}

	if src.State == token.Uninitialized || dst.State == token.Uninitialized {
		return TokenErrUninitializedState
	}
	if src.State == token.Frozen || dst.State == token.Frozen {
		return TokenErrAccountFrozen
	}
	if src.Amount < amount {
		return TokenErrInsufficientFunds
	}
	if !src.Mint.Equals(dst.Mint) {
		return TokenErrMintMismatch
	}
	if !src.Owner.Equals(authority.Key) {
		return TokenErrOwnerMismatch
	}
	if !authority.IsSigner {
		return fmt.Errorf("%w: %s", ErrMissingSignature, authority.Key)
	}

	ctx.Log("Instruction: Transfer")

	if source.Key.Equals(destination.Key) {
		return nil
	}

	if dst.Amount+amount < dst.Amount {
		return TokenErrOverflow
	}
	src.Amount -= amount
	dst.Amount += amount

	srcData, err := PackTokenAccount(src)
	if err != nil {
		return err
	}
	dstData, err := PackTokenAccount(dst)
	if err != nil {
		return err
	}
	source.Data = srcData
	destination.Data = dstData

	return nil
}
