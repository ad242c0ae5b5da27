package runtime

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

// MaxPermittedDataLength bounds the size of a newly allocated account
const MaxPermittedDataLength = 10 * 1024 * 1024

// SystemProgram creates, funds, allocates and assigns accounts
type SystemProgram struct{}

func (p *SystemProgram) Process(ctx *InvokeContext, accounts []*AccountInfo, data []byte) error {
	metas := make([]*solana.AccountMeta, len(accounts))
	for i, info := range accounts {
		metas[i] = solana.NewAccountMeta(info.Key, info.IsWritable, info.IsSigner)
	}

	inst, err := system.DecodeInstruction(metas, data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}

	switch impl := inst.Impl.(type) {
	case *system.CreateAccount:
		if impl.Lamports == nil || impl.Space == nil || impl.Owner == nil {
			return ErrInvalidAccountData
		}
		if len(accounts) < 2 {
			return ErrMissingAccount
		}
		return p.createAccount(ctx, accounts[0], accounts[1], *impl.Lamports, *impl.Space, *impl.Owner)
	case *system.Transfer:
		if impl.Lamports == nil {
			return ErrInvalidAccountData
		}
		if len(accounts) < 2 {
			return ErrMissingAccount
		}
		return p.transfer(ctx, accounts[0], accounts[1], *impl.Lamports)
	case *system.Allocate:
		if impl.Space == nil {
			return ErrInvalidAccountData
		}
		if len(accounts) < 1 {
			return ErrMissingAccount
		}
		return p.allocate(ctx, accounts[0], *impl.Space)
	case *system.Assign:
		if impl.Owner == nil {
			return ErrInvalidAccountData
		}
		if len(accounts) < 1 {
			return ErrMissingAccount
		}
		return p.assign(accounts[0], *impl.Owner)
	default:
		return fmt.Errorf("%w: unsupported system instruction %T", ErrInvalidAccountData, impl)
	}
}

func (p *SystemProgram) createAccount(ctx *InvokeContext, from, to *AccountInfo, lamports, space uint64, owner solana.PublicKey) error {
	if !from.IsSigner {
		return fmt.Errorf("%w: funding account %s", ErrMissingSignature, from.Key)
	}
	if !to.IsSigner {
		return fmt.Errorf("%w: new account %s", ErrMissingSignature, to.Key)
	}
	if to.Lamports > 0 || len(to.Data) > 0 || !to.Owner.Equals(SystemProgramID()) {
		ctx.Log("Create Account: account %s already in use", to.Key)
		return ErrAccountAlreadyInUse
	}
	if space > MaxPermittedDataLength {
		return fmt.Errorf("%w: requested %d bytes", ErrInvalidAccountData, space)
	}
	if from.Lamports < lamports {
		ctx.Log("Transfer: insufficient lamports %d, need %d", from.Lamports, lamports)
		return ErrInsufficientLamports
	}

	from.Lamports -= lamports
	to.Lamports += lamports
	to.Data = make([]byte, space)
	to.Owner = owner

	return nil
}

func (p *SystemProgram) transfer(ctx *InvokeContext, from, to *AccountInfo, lamports uint64) error {
	if !from.IsSigner {
		return fmt.Errorf("%w: funding account %s", ErrMissingSignature, from.Key)
	}
	if len(from.Data) > 0 {
		ctx.Log("Transfer: `from` must not carry data")
		return ErrInvalidAccountData
	}
	if from.Lamports < lamports {
		ctx.Log("Transfer: insufficient lamports %d, need %d", from.Lamports, lamports)
		return ErrInsufficientLamports
	}

	from.Lamports -= lamports
	to.Lamports += lamports
	return nil
}

func (p *SystemProgram) allocate(ctx *InvokeContext, account *AccountInfo, space uint64) error {
	if !account.IsSigner {
		return fmt.Errorf("%w: allocated account %s", ErrMissingSignature, account.Key)
	}
	if len(account.Data) > 0 || !account.Owner.Equals(SystemProgramID()) {
		ctx.Log("Allocate: account %s already in use", account.Key)
		return ErrAccountAlreadyInUse
	}
	if space > MaxPermittedDataLength {
		return fmt.Errorf("%w: requested %d bytes", ErrInvalidAccountData, space)
	}

	account.Data = make([]byte, space)
	return nil
}

func (p *SystemProgram) assign(account *AccountInfo, owner solana.PublicKey) error {
	if account.Owner.Equals(owner) {
		return nil
	}
	if !account.IsSigner {
		return fmt.Errorf("%w: assigned account %s", ErrMissingSignature, account.Key)
	}

	account.Owner = owner
	return nil
}
